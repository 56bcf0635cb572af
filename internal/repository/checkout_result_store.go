package repository

import (
	"context"
	"errors"
	"time"
)

var ErrResultMiss = errors.New("checkout result miss")

// 冪等キーごとのチェックアウト結果（成功時のみ保存）
type CheckoutResultStore interface {
	Get(ctx context.Context, userID string, key string) ([]byte, error)
	Set(ctx context.Context, userID string, key string, payload []byte, ttl time.Duration) error
}
