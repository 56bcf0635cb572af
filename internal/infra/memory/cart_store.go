package memory

import (
	"sort"
	"sync"
	"time"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"
)

// 放置カートの掃除間隔の上限
const maxCleanupInterval = time.Minute

type cartLine struct {
	qty int64
	seq uint64 // 追加順
}

// 1ユーザー分のカート。muで直列化する。
type userCart struct {
	mu      sync.Mutex
	lines   map[int64]*cartLine
	nextSeq uint64
	touched time.Time
	evicted bool // 掃除済み。掴んでいたら作り直す
}

// CartStore はユーザーごとにロックを持つメモリ上のカート。
// 全体ロックは持たない。
type CartStore struct {
	carts   sync.Map // userID -> *userCart
	idleTTL time.Duration
	now     func() time.Time

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

var _ repo.CartStore = (*CartStore)(nil)

// idleTTL<=0 なら掃除しない
func NewCartStore(idleTTL time.Duration) *CartStore {
	s := &CartStore{
		idleTTL:     idleTTL,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}

	if idleTTL > 0 {
		s.wg.Add(1)
		go s.cleanupLoop(cleanupInterval(idleTTL))
	}

	return s
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if d := ttl / 2; d < maxCleanupInterval {
		return d
	}
	return maxCleanupInterval
}

func (s *CartStore) cleanupLoop(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictIdle()
		case <-s.stopCleanup:
			return
		}
	}
}

// idleTTLより長く触られていないカートを消す
func (s *CartStore) evictIdle() int {
	now := s.now()
	evicted := 0

	s.carts.Range(func(key, value any) bool {
		c := value.(*userCart)

		c.mu.Lock()
		if now.Sub(c.touched) >= s.idleTTL {
			c.evicted = true
			s.carts.CompareAndDelete(key, c)
			evicted++
		}
		c.mu.Unlock()
		return true
	})

	return evicted
}

// ロック済みのカートでfnを実行（無ければ作る）
func (s *CartStore) withCart(userID string, fn func(c *userCart)) {
	for {
		v, ok := s.carts.Load(userID)
		if !ok {
			v, _ = s.carts.LoadOrStore(userID, &userCart{lines: make(map[int64]*cartLine)})
		}
		c := v.(*userCart)

		c.mu.Lock()
		if c.evicted {
			//掃除と競合したので作り直し
			c.mu.Unlock()
			continue
		}
		fn(c)
		c.touched = s.now()
		c.mu.Unlock()
		return
	}
}

// 読むだけ（無ければ作らない）
func (s *CartStore) readCart(userID string, fn func(c *userCart)) {
	v, ok := s.carts.Load(userID)
	if !ok {
		return
	}
	c := v.(*userCart)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evicted {
		return
	}
	fn(c)
}

func (s *CartStore) Add(userID string, productID int64, delta int64, limit int64) (int64, error) {
	var added int64
	var err error

	s.withCart(userID, func(c *userCart) {
		var current int64
		if l, ok := c.lines[productID]; ok {
			current = l.qty
		}

		room := limit - current
		if delta > room {
			delta = room
		}
		if delta <= 0 {
			err = repo.ErrCartLineAtCapacity
			return
		}

		c.put(productID, current+delta)
		added = delta
	})

	return added, err
}

func (s *CartStore) SetQty(userID string, productID int64, qty int64) {
	s.withCart(userID, func(c *userCart) {
		if qty <= 0 {
			delete(c.lines, productID)
			return
		}
		c.put(productID, qty)
	})
}

func (s *CartStore) Remove(userID string, productIDs ...int64) {
	s.readCart(userID, func(c *userCart) {
		for _, id := range productIDs {
			delete(c.lines, id)
		}
		c.touched = s.now()
	})
}

func (s *CartStore) Clear(userID string) {
	s.readCart(userID, func(c *userCart) {
		c.lines = make(map[int64]*cartLine)
		c.touched = s.now()
	})
}

func (s *CartStore) Deduct(userID string, lines []model.CartLine) {
	s.readCart(userID, func(c *userCart) {
		for _, ln := range lines {
			l, ok := c.lines[ln.ProductID]
			if !ok {
				continue
			}
			l.qty -= ln.Quantity
			if l.qty <= 0 {
				delete(c.lines, ln.ProductID)
			}
		}
		c.touched = s.now()
	})
}

func (s *CartStore) Snapshot(userID string) []model.CartLine {
	out := []model.CartLine{}

	s.readCart(userID, func(c *userCart) {
		type entry struct {
			id  int64
			qty int64
			seq uint64
		}
		entries := make([]entry, 0, len(c.lines))
		for id, l := range c.lines {
			entries = append(entries, entry{id: id, qty: l.qty, seq: l.seq})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

		out = make([]model.CartLine, 0, len(entries))
		for _, e := range entries {
			out = append(out, model.CartLine{ProductID: e.id, Quantity: e.qty})
		}
	})

	return out
}

func (s *CartStore) TotalCount(userID string) int64 {
	var total int64
	s.readCart(userID, func(c *userCart) {
		for _, l := range c.lines {
			total += l.qty
		}
	})
	return total
}

// Close stops the background cleanup and waits for it to finish
func (s *CartStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCleanup) })
	s.wg.Wait()
	return nil
}

// 既存の明細なら追加順を保ったまま数量だけ更新
func (c *userCart) put(productID int64, qty int64) {
	if l, ok := c.lines[productID]; ok {
		l.qty = qty
		return
	}
	c.nextSeq++
	c.lines[productID] = &cartLine{qty: qty, seq: c.nextSeq}
}
