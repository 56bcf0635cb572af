package repository

import (
	"context"

	"campusshop/internal/domain/model"
)

// 在庫数の変更はすべてここを通す
type InventoryRepository interface {
	// 管理者による上書き
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// stock >= qty のときだけ減らす。足りなければ false（エラーではない）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 取消で戻す。削除済みの商品にも戻す
	IncreaseStock(ctx context.Context, productID int64, qty int64) error

	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
