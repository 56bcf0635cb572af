package model

import "time"

// 管理者が在庫数を直接変えた記録。チェックアウトでの減算は取引側に残る。
type InventoryAdjustment struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID   int64     `gorm:"not null;index" json:"product_id"`
	ActorID     string    `gorm:"type:varchar(255);not null" json:"actor_id"`
	StockBefore int64     `gorm:"not null" json:"stock_before"`
	StockAfter  int64     `gorm:"not null;check:stock_after >= 0" json:"stock_after"`
	Reason      string    `gorm:"type:varchar(255);not null" json:"reason"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`
}

func (a InventoryAdjustment) Delta() int64 {
	return a.StockAfter - a.StockBefore
}
