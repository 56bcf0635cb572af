package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	// チェックアウトで作られた直後
	TransactionStatusCommitted TransactionStatus = "COMMITTED"
	// 受け渡し済み
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	// 取消（在庫は戻す）
	TransactionStatusCanceled TransactionStatus = "CANCELED"
)

// 終端ステータスか
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusCanceled
}

// 購入トランザクション。1カート明細につき1件。
// Amountはコミット時点の価格×数量。
type Transaction struct {
	ID                  string            `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutID          string            `gorm:"type:uuid;not null;index" json:"checkout_id"`
	ProductID           int64             `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string            `gorm:"type:varchar(255);not null" json:"product_name"`
	BuyerID             string            `gorm:"type:varchar(255);not null;index" json:"buyer_id"`
	Quantity            int64             `gorm:"not null" json:"quantity"`
	UnitPrice           decimal.Decimal   `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Amount              decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"amount"`
	Status              TransactionStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt           time.Time         `gorm:"not null;index" json:"created_at"`
	UpdatedAt           time.Time         `gorm:"not null" json:"updated_at"`
}
