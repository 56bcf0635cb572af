package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// 商品の販売状態。2値のみ。
type ProductStatus string

const (
	ProductStatusOnShelf  ProductStatus = "ON_SHELF"
	ProductStatusOffShelf ProductStatus = "OFF_SHELF"
)

// 購入可能か（ON_SHELFだけtrue）
func (s ProductStatus) IsPurchasable() bool {
	switch s {
	case ProductStatusOnShelf:
		return true
	default: // OFF_SHELF、未知の値
		return false
	}
}

// 入力値として正しいか
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusOnShelf, ProductStatusOffShelf:
		return true
	default:
		return false
	}
}

type Product struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock       int64           `gorm:"not null;check:stock >= 0" json:"stock"`
	Status      ProductStatus   `gorm:"type:varchar(20);not null;default:'OFF_SHELF';index" json:"status"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
