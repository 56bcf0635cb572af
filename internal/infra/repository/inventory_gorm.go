package repository

import (
	"context"
	"errors"

	"campusshop/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// check_violation
const pgCheckViolation = "23514"

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", newStock))
}

// 在庫が足りるときだけ減らす
// 読んでから書くのではなく、条件付きUPDATE 1文で比較と減算を同時に行う
func (r *InventoryGormRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if qty <= 0 {
		return false, errors.New("invalid quantity")
	}

	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ? AND stock >= ?", productID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))

	if res.Error != nil {
		// stock >= 0 の制約違反も「足りない」扱い
		if isCheckViolation(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

// 在庫戻し（キャンセル）
func (r *InventoryGormRepository) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	if qty <= 0 {
		return errors.New("invalid quantity")
	}
	return affected(r.db.WithContext(ctx).
		Model(&model.Product{}).
		Unscoped().
		Where("id = ?", productID).
		Update("stock", gorm.Expr("stock + ?", qty)))
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	return r.db.WithContext(ctx).Create(&adj).Error
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgCheckViolation
	}
	return false
}
