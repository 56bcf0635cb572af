package repository

import (
	"context"
	"time"

	"campusshop/internal/domain/model"
)

type AdminTransactionListFilter struct {
	Page      int
	Limit     int
	Status    string
	BuyerID   *string
	ProductID *int64
	From      *time.Time
	To        *time.Time
}

// 購入トランザクションの保存・取得
type TransactionRepository interface {
	Create(ctx context.Context, t model.Transaction) (string, error)
	FindByID(ctx context.Context, id string) (model.Transaction, error)
	ListByBuyer(ctx context.Context, buyerID string, page int, limit int) ([]model.Transaction, int64, error)
	UpdateStatus(ctx context.Context, id string, status model.TransactionStatus) error

	//管理者用の一覧
	ListAdmin(ctx context.Context, f AdminTransactionListFilter) ([]model.Transaction, int64, error)
}
