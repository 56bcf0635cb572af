package repository

import (
	"campusshop/internal/domain/model"
	"errors"
)

// 追加できる余地がない（在庫 - 現在数量 <= 0）
var ErrCartLineAtCapacity = errors.New("cart line at capacity")

// ユーザーごとのカート（メモリ上、永続化しない）。
// 同じユーザーへの操作は直列化され、別ユーザー同士は独立して進む。
type CartStore interface {
	// deltaを加算する。limitを超える分は切り詰め、実際に加算した数を返す。
	// 加算できる数が0以下ならErrCartLineAtCapacity（変更なし）。
	Add(userID string, productID int64, delta int64, limit int64) (int64, error)

	// 絶対値で設定。qty<=0は削除。
	SetQty(userID string, productID int64, qty int64)

	// 無いIDは無視
	Remove(userID string, productIDs ...int64)

	Clear(userID string)

	// 確定した数量だけ差し引く。0以下になった明細は削除。
	Deduct(userID string, lines []model.CartLine)

	// 追加順のコピーを返す（ライブビューではない）
	Snapshot(userID string) []model.CartLine

	TotalCount(userID string) int64
}
