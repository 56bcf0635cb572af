package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"
)

type AdminTransactionUsecase struct {
	tx           repo.TransactionManager
	transactions repo.TransactionRepository
	clock        Clock
}

func NewAdminTransactionUsecase(tx repo.TransactionManager, transactions repo.TransactionRepository, clock Clock) *AdminTransactionUsecase {
	return &AdminTransactionUsecase{
		tx:           tx,
		transactions: transactions,
		clock:        clock,
	}
}

type AdminListTransactionsInput struct {
	Page      int
	Limit     int
	Status    string
	BuyerID   string
	ProductID int64
	From      *time.Time
	To        *time.Time
}

func (u *AdminTransactionUsecase) ListTransactions(ctx context.Context, in AdminListTransactionsInput) (TransactionListOutput, error) {
	if in.Page < 1 {
		return TransactionListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return TransactionListOutput{}, NewValidationError("invalid limit")
	}
	if in.Status != "" {
		switch model.TransactionStatus(in.Status) {
		case model.TransactionStatusCommitted, model.TransactionStatusCompleted, model.TransactionStatusCanceled:
		default:
			return TransactionListOutput{}, NewValidationError("invalid status")
		}
	}
	if in.ProductID < 0 {
		return TransactionListOutput{}, NewValidationError("invalid product id")
	}
	if in.From != nil && in.To != nil && in.From.After(*in.To) {
		return TransactionListOutput{}, NewValidationError("from must be <= to")
	}

	f := repo.AdminTransactionListFilter{
		Page:   in.Page,
		Limit:  in.Limit,
		Status: in.Status,
		From:   in.From,
		To:     in.To,
	}
	if b := strings.TrimSpace(in.BuyerID); b != "" {
		f.BuyerID = &b
	}
	if in.ProductID > 0 {
		pid := in.ProductID
		f.ProductID = &pid
	}

	items, total, err := u.transactions.ListAdmin(ctx, f)
	if err != nil {
		return TransactionListOutput{}, NewPersistenceError("db error", err)
	}
	return toTransactionList(items, total, in.Page, in.Limit), nil
}

// COMMITTED -> COMPLETED | CANCELED のみ。
// CANCELEDにしたら在庫を戻す。同じステータスへの変更は何もしない。
func (u *AdminTransactionUsecase) UpdateTransactionStatus(ctx context.Context, adminUserID string, transactionID string, status model.TransactionStatus) error {
	if err := requireUser(adminUserID); err != nil {
		return err
	}
	if err := validateTransactionID(transactionID); err != nil {
		return err
	}
	if status != model.TransactionStatusCompleted && status != model.TransactionStatusCanceled {
		return NewValidationError("invalid status")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transactions().FindByID(ctx, transactionID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("transaction not found")
		}
		if err != nil {
			return NewPersistenceError("db error", err)
		}

		if t.Status == status {
			return nil
		}
		if t.Status.IsTerminal() {
			return NewStateConflictError(fmt.Sprintf("transaction already %s", t.Status))
		}

		if err := r.Transactions().UpdateStatus(ctx, transactionID, status); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("transaction not found")
			}
			return NewPersistenceError("db error", err)
		}

		if status == model.TransactionStatusCanceled {
			if err := r.Inventory().IncreaseStock(ctx, t.ProductID, t.Quantity); err != nil {
				return NewPersistenceError("db error", err)
			}
		}

		if err := r.AuditLogs().Create(ctx, model.TransactionStatusAudit(adminUserID, transactionID, t.Status, status, u.clock.Now())); err != nil {
			return NewPersistenceError("db error", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsShopError(err); ok {
			return err
		}
		return NewPersistenceError("db error", err)
	}
	return nil
}
