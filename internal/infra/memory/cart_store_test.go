package memory

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *CartStore {
	store := NewCartStore(0)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCartStore_Add_CreatesAndAccumulates(t *testing.T) {
	store := setupStore(t)

	added, err := store.Add("u1", 10, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), added)

	// 残り2しか入らない
	added, err = store.Add("u1", 10, 4, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), added)

	assert.Equal(t, []model.CartLine{{ProductID: 10, Quantity: 5}}, store.Snapshot("u1"))
	assert.Equal(t, int64(5), store.TotalCount("u1"))
}

func TestCartStore_Add_AtCapacity(t *testing.T) {
	store := setupStore(t)

	_, err := store.Add("u1", 10, 5, 5)
	require.NoError(t, err)

	added, err := store.Add("u1", 10, 1, 5)
	assert.ErrorIs(t, err, repo.ErrCartLineAtCapacity)
	assert.Equal(t, int64(0), added)
	assert.Equal(t, int64(5), store.TotalCount("u1"))

	// 在庫0の商品は最初から入らない
	_, err = store.Add("u1", 11, 1, 0)
	assert.ErrorIs(t, err, repo.ErrCartLineAtCapacity)
	assert.Len(t, store.Snapshot("u1"), 1)
}

func TestCartStore_SetQty(t *testing.T) {
	store := setupStore(t)

	store.SetQty("u1", 1, 4)
	store.SetQty("u1", 2, 1)
	store.SetQty("u1", 1, 2)
	assert.Equal(t, []model.CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, store.Snapshot("u1"))

	// 0以下は削除
	store.SetQty("u1", 1, 0)
	assert.Equal(t, []model.CartLine{{ProductID: 2, Quantity: 1}}, store.Snapshot("u1"))
}

func TestCartStore_RemoveAndClear_AreIdempotent(t *testing.T) {
	store := setupStore(t)

	// 存在しないユーザー/商品でも何も起きない
	store.Remove("nobody", 1, 2)
	store.Clear("nobody")
	assert.Empty(t, store.Snapshot("nobody"))

	store.SetQty("u1", 1, 1)
	store.SetQty("u1", 2, 2)
	store.Remove("u1", 1, 999)
	assert.Equal(t, []model.CartLine{{ProductID: 2, Quantity: 2}}, store.Snapshot("u1"))

	store.Clear("u1")
	store.Clear("u1")
	assert.Empty(t, store.Snapshot("u1"))
	assert.Equal(t, int64(0), store.TotalCount("u1"))
}

func TestCartStore_Snapshot_IsACopy(t *testing.T) {
	store := setupStore(t)
	store.SetQty("u1", 1, 2)

	snap := store.Snapshot("u1")
	snap[0].Quantity = 100

	store.SetQty("u1", 3, 1)
	assert.Len(t, snap, 1)
	assert.Equal(t, int64(2), store.Snapshot("u1")[0].Quantity)
}

func TestCartStore_Snapshot_KeepsInsertionOrder(t *testing.T) {
	store := setupStore(t)
	for _, id := range []int64{30, 10, 20} {
		store.SetQty("u1", id, 1)
	}
	// 数量更新では順番は変わらない
	store.SetQty("u1", 30, 5)

	ids := []int64{}
	for _, l := range store.Snapshot("u1") {
		ids = append(ids, l.ProductID)
	}
	assert.Equal(t, []int64{30, 10, 20}, ids)
}

func TestCartStore_Deduct(t *testing.T) {
	store := setupStore(t)
	store.SetQty("u1", 1, 3)
	store.SetQty("u1", 2, 2)
	store.SetQty("u1", 3, 1)

	// チェックアウト中に1を1個足された想定
	store.Deduct("u1", []model.CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 2},
		{ProductID: 99, Quantity: 1},
	})

	assert.Equal(t, []model.CartLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 3, Quantity: 1},
	}, store.Snapshot("u1"))
}

// 既存カートへの更新でカートを作り直さない
func TestCartStore_ReusesExistingCart(t *testing.T) {
	store := setupStore(t)
	store.SetQty("u1", 1, 1)

	v, ok := store.carts.Load("u1")
	require.True(t, ok)
	before := v.(*userCart)

	store.SetQty("u1", 1, 2)
	_, err := store.Add("u1", 2, 1, 5)
	require.NoError(t, err)

	v, _ = store.carts.Load("u1")
	assert.Same(t, before, v.(*userCart))

	const runs = 100
	users := make([]string, runs+1)
	for i := range users {
		users[i] = "fresh-" + strconv.Itoa(i)
	}
	next := 0
	fresh := testing.AllocsPerRun(runs, func() {
		store.SetQty(users[next], 1, 1)
		next++
	})
	existing := testing.AllocsPerRun(runs, func() {
		store.SetQty("u1", 1, 3)
	})
	assert.Less(t, existing, fresh)
}

func TestCartStore_UsersAreIndependent(t *testing.T) {
	store := setupStore(t)
	store.SetQty("u1", 1, 1)
	store.SetQty("u2", 1, 7)

	store.Clear("u1")
	assert.Equal(t, int64(0), store.TotalCount("u1"))
	assert.Equal(t, int64(7), store.TotalCount("u2"))
}

func TestCartStore_ConcurrentAdds_NeverExceedLimit(t *testing.T) {
	store := setupStore(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var totalAdded int64

	// 同じユーザーの重複リクエストが50件同時に来る
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			added, err := store.Add("u1", 1, 3, 20)
			if err == nil {
				mu.Lock()
				totalAdded += added
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), totalAdded)
	assert.Equal(t, int64(20), store.TotalCount("u1"))
}

func TestCartStore_ConcurrentUsers(t *testing.T) {
	store := setupStore(t)

	var wg sync.WaitGroup
	users := []string{"a", "b", "c", "d"}
	for _, u := range users {
		for i := 0; i < 25; i++ {
			wg.Add(1)
			go func(user string) {
				defer wg.Done()
				_, _ = store.Add(user, 1, 1, 1000)
			}(u)
		}
	}
	wg.Wait()

	for _, u := range users {
		assert.Equal(t, int64(25), store.TotalCount(u))
	}
}

func TestCartStore_EvictIdle(t *testing.T) {
	store := setupStore(t)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.idleTTL = time.Hour
	store.now = func() time.Time { return now }

	store.SetQty("old", 1, 1)
	now = now.Add(30 * time.Minute)
	store.SetQty("fresh", 1, 1)
	now = now.Add(45 * time.Minute)

	assert.Equal(t, 1, store.evictIdle())
	assert.Empty(t, store.Snapshot("old"))
	assert.Equal(t, int64(1), store.TotalCount("fresh"))

	// 掃除後の操作は新しいカートに入る
	store.SetQty("old", 2, 3)
	assert.Equal(t, []model.CartLine{{ProductID: 2, Quantity: 3}}, store.Snapshot("old"))
}

func TestCartStore_CloseIsIdempotent(t *testing.T) {
	store := NewCartStore(time.Hour)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())
}

func TestCleanupInterval(t *testing.T) {
	assert.Equal(t, 30*time.Second, cleanupInterval(time.Minute))
	assert.Equal(t, maxCleanupInterval, cleanupInterval(24*time.Hour))
}
