package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// =====================
// メモリ上のカタログ（WithinTxはエラーで巻き戻す）
// =====================

type fakeShop struct {
	mu   sync.Mutex
	txMu sync.Mutex // Txは1本ずつ（行ロックの代わり）

	products map[int64]model.Product
	deleted  map[int64]bool
	txs      map[string]model.Transaction
	audits   []model.AuditLog
	adjusts  []model.InventoryAdjustment

	findErr        error // FindByIDが返すエラー
	failTxCreateOn int   // n件目のTransactions().Createで失敗（0は失敗しない）
	txCreates      int
	beforeTx       func() // Tx開始直前に割り込む（他ユーザーの購入など）
	afterTx        func() // commit直後
	txCalls        int
}

func newFakeShop(products ...model.Product) *fakeShop {
	s := &fakeShop{
		products: map[int64]model.Product{},
		deleted:  map[int64]bool{},
		txs:      map[string]model.Transaction{},
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
	return s
}

func onShelf(id int64, name string, price string, stock int64) model.Product {
	return model.Product{
		ID:     id,
		Name:   name,
		Price:  decimal.RequireFromString(price),
		Stock:  stock,
		Status: model.ProductStatusOnShelf,
	}
}

type shopState struct {
	products map[int64]model.Product
	deleted  map[int64]bool
	txs      map[string]model.Transaction
	audits   []model.AuditLog
	adjusts  []model.InventoryAdjustment
}

func (s *fakeShop) snapshot() shopState {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := shopState{
		products: make(map[int64]model.Product, len(s.products)),
		deleted:  make(map[int64]bool, len(s.deleted)),
		txs:      make(map[string]model.Transaction, len(s.txs)),
		audits:   append([]model.AuditLog(nil), s.audits...),
		adjusts:  append([]model.InventoryAdjustment(nil), s.adjusts...),
	}
	for k, v := range s.products {
		st.products[k] = v
	}
	for k, v := range s.deleted {
		st.deleted[k] = v
	}
	for k, v := range s.txs {
		st.txs[k] = v
	}
	return st
}

func (s *fakeShop) restore(st shopState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = st.products
	s.deleted = st.deleted
	s.txs = st.txs
	s.audits = st.audits
	s.adjusts = st.adjusts
}

func (s *fakeShop) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if s.beforeTx != nil {
		s.beforeTx()
	}
	//キャンセル済みのctxではTxを開始できない
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCalls++
	s.mu.Unlock()

	st := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(st)
		return err
	}
	if s.afterTx != nil {
		s.afterTx()
	}
	return nil
}

func (s *fakeShop) Products() repo.ProductRepository         { return fakeProducts{s} }
func (s *fakeShop) Inventory() repo.InventoryRepository      { return fakeInventory{s} }
func (s *fakeShop) Transactions() repo.TransactionRepository { return fakeTransactions{s} }
func (s *fakeShop) AuditLogs() repo.AuditLogRepository       { return fakeAudits{s} }

var (
	_ repo.TransactionManager = (*fakeShop)(nil)
	_ repo.TxRepos            = (*fakeShop)(nil)
)

// テスト用の参照
func (s *fakeShop) stockOf(id int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[id].Stock
}

func (s *fakeShop) setStock(id int64, stock int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Stock = stock
	s.products[id] = p
}

func (s *fakeShop) setPrice(id int64, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Price = decimal.RequireFromString(price)
	s.products[id] = p
}

func (s *fakeShop) setStatus(id int64, status model.ProductStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Status = status
	s.products[id] = p
}

func (s *fakeShop) markDeleted(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted[id] = true
}

func (s *fakeShop) putTransaction(t model.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs[t.ID] = t
}

func (s *fakeShop) transactionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.txs)
}

func (s *fakeShop) transaction(id string) model.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs[id]
}

func (s *fakeShop) auditLogs() []model.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.AuditLog(nil), s.audits...)
}

func (s *fakeShop) adjustments() []model.InventoryAdjustment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.InventoryAdjustment(nil), s.adjusts...)
}

// ---- ProductRepository ----

type fakeProducts struct{ s *fakeShop }

func (f fakeProducts) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	items := []model.Product{}
	for id, p := range f.s.products {
		if !f.s.deleted[id] && p.Status == model.ProductStatusOnShelf {
			items = append(items, p)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, int64(len(items)), nil
}

func (f fakeProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	if f.s.findErr != nil {
		return model.Product{}, f.s.findErr
	}
	p, ok := f.s.products[id]
	if !ok || f.s.deleted[id] {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f fakeProducts) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	return f.FindByID(ctx, id)
}

func (f fakeProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in fakeShop tests")
}

func (f fakeProducts) Update(ctx context.Context, p model.Product) error {
	panic("not used in fakeShop tests")
}

func (f fakeProducts) SoftDelete(ctx context.Context, id int64) error {
	f.s.markDeleted(id)
	return nil
}

// ---- InventoryRepository ----

type fakeInventory struct{ s *fakeShop }

func (f fakeInventory) SetStock(ctx context.Context, productID int64, newStock int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	p, ok := f.s.products[productID]
	if !ok || f.s.deleted[productID] {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	f.s.products[productID] = p
	return nil
}

// 比較と減算を1回のロックで行う
func (f fakeInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	p, ok := f.s.products[productID]
	if !ok || f.s.deleted[productID] || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	f.s.products[productID] = p
	return true, nil
}

func (f fakeInventory) IncreaseStock(ctx context.Context, productID int64, qty int64) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	p, ok := f.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock += qty
	f.s.products[productID] = p
	return nil
}

func (f fakeInventory) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.adjusts = append(f.s.adjusts, adj)
	return nil
}

// ---- TransactionRepository ----

type fakeTransactions struct{ s *fakeShop }

var errWriteFailed = errors.New("write failed")

func (f fakeTransactions) Create(ctx context.Context, t model.Transaction) (string, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	f.s.txCreates++
	if f.s.failTxCreateOn > 0 && f.s.txCreates == f.s.failTxCreateOn {
		return "", errWriteFailed
	}
	f.s.txs[t.ID] = t
	return t.ID, nil
}

func (f fakeTransactions) FindByID(ctx context.Context, id string) (model.Transaction, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	t, ok := f.s.txs[id]
	if !ok {
		return model.Transaction{}, repo.ErrNotFound
	}
	return t, nil
}

func (f fakeTransactions) ListByBuyer(ctx context.Context, buyerID string, page int, limit int) ([]model.Transaction, int64, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	items := []model.Transaction{}
	for _, t := range f.s.txs {
		if t.BuyerID == buyerID {
			items = append(items, t)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, int64(len(items)), nil
}

func (f fakeTransactions) UpdateStatus(ctx context.Context, id string, status model.TransactionStatus) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()

	t, ok := f.s.txs[id]
	if !ok {
		return repo.ErrNotFound
	}
	t.Status = status
	f.s.txs[id] = t
	return nil
}

func (f fakeTransactions) ListAdmin(ctx context.Context, filter repo.AdminTransactionListFilter) ([]model.Transaction, int64, error) {
	panic("not used in fakeShop tests")
}

// ---- AuditLogRepository ----

type fakeAudits struct{ s *fakeShop }

func (f fakeAudits) Create(ctx context.Context, log model.AuditLog) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.audits = append(f.s.audits, log)
	return nil
}

func (f fakeAudits) List(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	panic("not used in fakeShop tests")
}

// =====================
// IDGenerator / Clock
// =====================

type seqIDs struct{ n atomic.Int64 }

func (g *seqIDs) NewID() string {
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", g.n.Add(1))
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

// =====================
// helper
// =====================

func assertErrContains(t *testing.T, err error, want string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), want)
	}
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got.String())
}
