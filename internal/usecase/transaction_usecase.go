package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionOutput struct {
	ID          string                  `json:"id"`
	CheckoutID  string                  `json:"checkout_id"`
	ProductID   int64                   `json:"product_id"`
	ProductName string                  `json:"product_name"`
	BuyerID     string                  `json:"buyer_id"`
	Quantity    int64                   `json:"quantity"`
	UnitPrice   decimal.Decimal         `json:"unit_price"`
	Amount      decimal.Decimal         `json:"amount"`
	Status      model.TransactionStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func toTransactionOutput(t model.Transaction) TransactionOutput {
	return TransactionOutput{
		ID:          t.ID,
		CheckoutID:  t.CheckoutID,
		ProductID:   t.ProductID,
		ProductName: t.ProductNameSnapshot,
		BuyerID:     t.BuyerID,
		Quantity:    t.Quantity,
		UnitPrice:   t.UnitPrice,
		Amount:      t.Amount,
		Status:      t.Status,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type TransactionListOutput struct {
	Items []TransactionOutput `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Limit int                 `json:"limit"`
}

func toTransactionList(items []model.Transaction, total int64, page, limit int) TransactionListOutput {
	out := TransactionListOutput{
		Items: make([]TransactionOutput, 0, len(items)),
		Total: total,
		Page:  page,
		Limit: limit,
	}
	for _, t := range items {
		out.Items = append(out.Items, toTransactionOutput(t))
	}
	return out
}

// 購入者本人向けの取引参照
type TransactionUsecase struct {
	transactions repo.TransactionRepository
}

func NewTransactionUsecase(transactions repo.TransactionRepository) *TransactionUsecase {
	return &TransactionUsecase{transactions: transactions}
}

func (u *TransactionUsecase) ListMyTransactions(ctx context.Context, userID string, page, limit int) (TransactionListOutput, error) {
	if err := requireUser(userID); err != nil {
		return TransactionListOutput{}, err
	}
	if page < 1 {
		return TransactionListOutput{}, NewValidationError("invalid page")
	}
	if limit < 1 || limit > 100 {
		return TransactionListOutput{}, NewValidationError("invalid limit")
	}

	items, total, err := u.transactions.ListByBuyer(ctx, userID, page, limit)
	if err != nil {
		return TransactionListOutput{}, NewPersistenceError("db error", err)
	}
	return toTransactionList(items, total, page, limit), nil
}

// 他人の取引は存在しない扱い
func (u *TransactionUsecase) GetMyTransaction(ctx context.Context, userID string, transactionID string) (TransactionOutput, error) {
	if err := requireUser(userID); err != nil {
		return TransactionOutput{}, err
	}
	if err := validateTransactionID(transactionID); err != nil {
		return TransactionOutput{}, err
	}

	t, err := u.transactions.FindByID(ctx, transactionID)
	if errors.Is(err, repo.ErrNotFound) {
		return TransactionOutput{}, NewNotFoundError("transaction not found")
	}
	if err != nil {
		return TransactionOutput{}, NewPersistenceError("db error", err)
	}
	if t.BuyerID != userID {
		return TransactionOutput{}, NewNotFoundError("transaction not found")
	}
	return toTransactionOutput(t), nil
}

func validateTransactionID(id string) error {
	if _, err := uuid.Parse(strings.TrimSpace(id)); err != nil {
		return NewValidationError("invalid transaction id")
	}
	return nil
}
