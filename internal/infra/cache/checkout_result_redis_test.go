package cache

import (
	"context"
	"testing"
	"time"

	repo "campusshop/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a store backed by it
func setupTestRedis(t *testing.T) (*CheckoutResultRedis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { client.Close() })

	return NewCheckoutResultRedis(client), mr
}

func TestCheckoutResultRedis_Miss(t *testing.T) {
	store, _ := setupTestRedis(t)

	_, err := store.Get(context.Background(), "u1", "k1")
	assert.ErrorIs(t, err, repo.ErrResultMiss)
}

func TestCheckoutResultRedis_SetThenGet(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1", "k1", []byte(`{"checkout_id":"c1"}`), time.Minute))

	got, err := store.Get(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"checkout_id":"c1"}`, string(got))

	assert.True(t, mr.Exists("checkout:u1:k1"))
	assert.Equal(t, time.Minute, mr.TTL("checkout:u1:k1"))
}

func TestCheckoutResultRedis_FirstWriteWins(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1", "k1", []byte("first"), time.Minute))
	require.NoError(t, store.Set(ctx, "u1", "k1", []byte("second"), time.Minute))

	got, err := store.Get(ctx, "u1", "k1")
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
}

func TestCheckoutResultRedis_KeysAreScopedPerUser(t *testing.T) {
	store, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1", "same", []byte("u1"), time.Minute))

	_, err := store.Get(ctx, "u2", "same")
	assert.ErrorIs(t, err, repo.ErrResultMiss)
}

func TestCheckoutResultRedis_Expires(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "u1", "k1", []byte("x"), time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := store.Get(ctx, "u1", "k1")
	assert.ErrorIs(t, err, repo.ErrResultMiss)
}

func TestCheckoutResultRedis_ServerDown(t *testing.T) {
	store, mr := setupTestRedis(t)
	mr.Close()

	_, err := store.Get(context.Background(), "u1", "k1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, repo.ErrResultMiss)
}
