package repository

import (
	"context"
	"errors"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"gorm.io/gorm"
)

type TransactionGormRepository struct {
	db *gorm.DB
}

func NewTransactionGormRepository(db *gorm.DB) *TransactionGormRepository {
	return &TransactionGormRepository{db: db}
}

func (r *TransactionGormRepository) Create(ctx context.Context, t model.Transaction) (string, error) {
	if t.ID == "" {
		return "", errors.New("transaction id required")
	}
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return "", err
	}
	return t.ID, nil
}

func (r *TransactionGormRepository) FindByID(ctx context.Context, id string) (model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Transaction{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

func (r *TransactionGormRepository) ListByBuyer(ctx context.Context, buyerID string, page int, limit int) ([]model.Transaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("buyer_id = ?", buyerID).
		Count(&total).Error; err != nil {
		return []model.Transaction{}, 0, err
	}

	var items []model.Transaction
	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at desc").
		Order("id asc").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return []model.Transaction{}, 0, err
	}

	return items, total, nil
}

func (r *TransactionGormRepository) UpdateStatus(ctx context.Context, id string, status model.TransactionStatus) error {
	return affected(r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ?", id).
		Update("status", status))
}

func (r *TransactionGormRepository) ListAdmin(ctx context.Context, f repo.AdminTransactionListFilter) ([]model.Transaction, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Transaction{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.BuyerID != nil {
		q = q.Where("buyer_id = ?", *f.BuyerID)
	}
	if f.ProductID != nil {
		q = q.Where("product_id = ?", *f.ProductID)
	}

	//期間絞り込み
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return []model.Transaction{}, 0, err
	}

	var items []model.Transaction
	offset := (f.Page - 1) * f.Limit
	if err := q.Order("created_at desc").Order("id asc").Limit(f.Limit).Offset(offset).Find(&items).Error; err != nil {
		return []model.Transaction{}, 0, err
	}

	return items, total, nil
}
