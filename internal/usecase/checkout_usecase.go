package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"campusshop/internal/domain/model"
	"campusshop/internal/metrics"
	repo "campusshop/internal/repository"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const maxIdempotencyKeyLen = 255

type CheckoutOutput struct {
	CheckoutID    string              `json:"checkout_id"`
	Committed     []TransactionOutput `json:"committed"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	TotalItems    int64               `json:"total_items"`
	CartCount     int64               `json:"cart_count"`
	RemainingCart CartView            `json:"remaining_cart"`
}

// カート全体を1つのDBトランザクションで確定する。
// 1明細でも失敗したら何も書かない（全部か無し）。
type CheckoutUsecase struct {
	tx       repo.TransactionManager
	products repo.ProductRepository
	carts    repo.CartStore
	views    *CartViewBuilder
	idGen    IDGenerator
	clock    Clock
	metrics  *metrics.ShopMetrics

	// 冪等キー（任意）
	results   repo.CheckoutResultStore
	replayTTL time.Duration
	inflight  singleflight.Group
}

// DI
func NewCheckoutUsecase(
	tx repo.TransactionManager,
	products repo.ProductRepository,
	carts repo.CartStore,
	views *CartViewBuilder,
	idGen IDGenerator,
	clock Clock,
	m *metrics.ShopMetrics,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:       tx,
		products: products,
		carts:    carts,
		views:    views,
		idGen:    idGen,
		clock:    clock,
		metrics:  m,
	}
}

// 成功結果をkeyごとに保存して再送時にそのまま返す
func (u *CheckoutUsecase) WithResultStore(store repo.CheckoutResultStore, ttl time.Duration) *CheckoutUsecase {
	u.results = store
	u.replayTTL = ttl
	return u
}

// idempotencyKeyが空なら毎回新しいチェックアウトになる
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID string, idempotencyKey string) (CheckoutOutput, error) {
	if err := requireUser(userID); err != nil {
		return CheckoutOutput{}, err
	}
	key := strings.TrimSpace(idempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return CheckoutOutput{}, NewValidationError("idempotency key too long")
	}
	if key == "" {
		return u.checkout(ctx, userID)
	}

	//同じキーの同時リクエストは1回だけ実行
	v, err, _ := u.inflight.Do(userID+"\x00"+key, func() (interface{}, error) {
		//待っている他のリクエストがあるので、最初の呼び出し元の切断では止めない
		ctx := context.WithoutCancel(ctx)
		if out, ok := u.replay(ctx, userID, key); ok {
			return out, nil
		}
		out, err := u.checkout(ctx, userID)
		if err != nil {
			return nil, err
		}
		u.remember(ctx, userID, key, out)
		return out, nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}
	return v.(CheckoutOutput), nil
}

func (u *CheckoutUsecase) replay(ctx context.Context, userID, key string) (CheckoutOutput, bool) {
	if u.results == nil {
		return CheckoutOutput{}, false
	}
	payload, err := u.results.Get(ctx, userID, key)
	if errors.Is(err, repo.ErrResultMiss) {
		return CheckoutOutput{}, false
	}
	if err != nil {
		//キャッシュが落ちていても購入はできるようにする
		slog.WarnContext(ctx, "checkout result lookup failed", "user_id", userID, "error", err)
		return CheckoutOutput{}, false
	}

	var out CheckoutOutput
	if err := json.Unmarshal(payload, &out); err != nil {
		slog.WarnContext(ctx, "checkout result decode failed", "user_id", userID, "error", err)
		return CheckoutOutput{}, false
	}
	u.metrics.ObserveCheckout(metrics.CheckoutReplayed, 0)
	return out, true
}

func (u *CheckoutUsecase) remember(ctx context.Context, userID, key string, out CheckoutOutput) {
	if u.results == nil {
		return
	}
	payload, err := json.Marshal(out)
	if err != nil {
		slog.WarnContext(ctx, "checkout result encode failed", "checkout_id", out.CheckoutID, "error", err)
		return
	}
	if err := u.results.Set(ctx, userID, key, payload, u.replayTTL); err != nil {
		slog.WarnContext(ctx, "checkout result store failed", "checkout_id", out.CheckoutID, "error", err)
	}
}

func (u *CheckoutUsecase) checkout(ctx context.Context, userID string) (out CheckoutOutput, err error) {
	defer func() {
		switch {
		case err == nil:
			u.metrics.ObserveCheckout(metrics.CheckoutCommitted, out.TotalItems)
		case errors.Is(err, ErrPersistence):
			u.metrics.ObserveCheckout(metrics.CheckoutFailed, 0)
		default:
			u.metrics.ObserveCheckout(metrics.CheckoutRejected, 0)
		}
	}()

	lines := u.carts.Snapshot(userID)
	if len(lines) == 0 {
		return CheckoutOutput{}, NewValidationError("cart is empty")
	}

	//1. 検証（ロックなし）。問題のある明細を全部集める
	if err := u.validate(ctx, lines); err != nil {
		return CheckoutOutput{}, err
	}

	//2. 確定（1トランザクション）
	checkoutID := u.idGen.NewID()
	now := u.clock.Now()

	//ロック順を揃えてデッドロックを避ける
	ordered := make([]model.CartLine, len(lines))
	copy(ordered, lines)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ProductID < ordered[j].ProductID })

	var created map[int64]model.Transaction
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//リトライされても前回分を持ち越さない
		created = make(map[int64]model.Transaction, len(ordered))
		for _, ln := range ordered {
			t, err := u.commitLine(ctx, r, checkoutID, userID, ln, now)
			if err != nil {
				return err
			}
			created[ln.ProductID] = t
		}
		return nil
	})
	if err != nil {
		if _, ok := AsShopError(err); ok {
			return CheckoutOutput{}, err
		}
		return CheckoutOutput{}, NewPersistenceError("checkout failed", err)
	}

	//3. 確定した分だけカートから引く（その間に足された分は残る）
	out = CheckoutOutput{
		CheckoutID:  checkoutID,
		Committed:   make([]TransactionOutput, 0, len(lines)),
		TotalAmount: decimal.Zero,
	}
	for _, ln := range lines {
		t := created[ln.ProductID]
		out.Committed = append(out.Committed, toTransactionOutput(t))
		out.TotalAmount = out.TotalAmount.Add(t.Amount)
		out.TotalItems += t.Quantity
	}
	u.carts.Deduct(userID, lines)

	view, verr := u.views.Build(ctx, u.carts.Snapshot(userID))
	if verr != nil {
		//購入自体は確定しているので失敗にはしない
		slog.WarnContext(ctx, "remaining cart view failed", "checkout_id", checkoutID, "error", verr)
		view = emptyCartView()
	}
	out.CartCount = u.carts.TotalCount(userID)
	out.RemainingCart = view

	slog.InfoContext(ctx, "checkout committed",
		"checkout_id", checkoutID,
		"user_id", userID,
		"lines", len(out.Committed),
		"items", out.TotalItems,
		"total_amount", out.TotalAmount.String(),
	)
	return out, nil
}

func (u *CheckoutUsecase) validate(ctx context.Context, lines []model.CartLine) error {
	var failures []LineError

	for _, ln := range lines {
		p, err := u.products.FindByID(ctx, ln.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			failures = append(failures, LineError{ProductID: ln.ProductID, Kind: KindNotFound, Reason: ReasonProductNotFound})
			continue
		}
		if err != nil {
			return NewPersistenceError("db error", err)
		}
		if !p.Status.IsPurchasable() {
			failures = append(failures, LineError{ProductID: ln.ProductID, Kind: KindStateConflict, Reason: ReasonProductOffShelf})
			continue
		}
		if ln.Quantity > p.Stock {
			failures = append(failures, LineError{
				ProductID: ln.ProductID,
				Kind:      KindStateConflict,
				Reason:    fmt.Sprintf("%s: requested %d, available %d", ReasonInsufficientStock, ln.Quantity, p.Stock),
			})
		}
	}

	if len(failures) > 0 {
		return newLineError("checkout rejected", failures, nil)
	}
	return nil
}

// 行ロック→状態確認→条件付き減算→取引作成。金額はロック中の価格で計算する。
func (u *CheckoutUsecase) commitLine(ctx context.Context, r repo.TxRepos, checkoutID, userID string, ln model.CartLine, now time.Time) (model.Transaction, error) {
	reject := func(kind ErrorKind, reason string, cause error) error {
		msg := "checkout rejected"
		if kind == KindPersistence {
			msg = "checkout failed"
		}
		return newLineError(msg, []LineError{{ProductID: ln.ProductID, Kind: kind, Reason: reason}}, cause)
	}

	p, err := r.Products().FindByIDForUpdate(ctx, ln.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Transaction{}, reject(KindNotFound, ReasonProductNotFound, nil)
	}
	if err != nil {
		return model.Transaction{}, reject(KindPersistence, ReasonCommitFailed, err)
	}
	if !p.Status.IsPurchasable() {
		return model.Transaction{}, reject(KindStateConflict, ReasonProductOffShelf, nil)
	}

	ok, err := r.Inventory().DecreaseStockIfEnough(ctx, ln.ProductID, ln.Quantity)
	if err != nil {
		return model.Transaction{}, reject(KindPersistence, ReasonCommitFailed, err)
	}
	if !ok {
		return model.Transaction{}, reject(KindStateConflict, ReasonInsufficientStock, nil)
	}

	t := model.Transaction{
		ID:                  u.idGen.NewID(),
		CheckoutID:          checkoutID,
		ProductID:           p.ID,
		ProductNameSnapshot: p.Name,
		BuyerID:             userID,
		Quantity:            ln.Quantity,
		UnitPrice:           p.Price,
		Amount:              p.Price.Mul(decimal.NewFromInt(ln.Quantity)),
		Status:              model.TransactionStatusCommitted,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if _, err := r.Transactions().Create(ctx, t); err != nil {
		return model.Transaction{}, reject(KindPersistence, ReasonCommitFailed, err)
	}
	return t, nil
}
