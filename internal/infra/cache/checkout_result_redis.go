package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	repo "campusshop/internal/repository"

	"github.com/redis/go-redis/v9"
)

type CheckoutResultRedis struct {
	client *redis.Client
}

var _ repo.CheckoutResultStore = (*CheckoutResultRedis)(nil)

func NewCheckoutResultRedis(client *redis.Client) *CheckoutResultRedis {
	return &CheckoutResultRedis{client: client}
}

func (r *CheckoutResultRedis) Get(ctx context.Context, userID string, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, resultKey(userID, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repo.ErrResultMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// 先に保存された結果を優先する（SET NX）
func (r *CheckoutResultRedis) Set(ctx context.Context, userID string, key string, payload []byte, ttl time.Duration) error {
	if err := r.client.SetNX(ctx, resultKey(userID, key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func resultKey(userID string, key string) string {
	return fmt.Sprintf("checkout:%s:%s", userID, key)
}
