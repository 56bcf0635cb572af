package usecase

import (
	"context"
	"errors"
	"strings"

	"campusshop/internal/metrics"
	repo "campusshop/internal/repository"
)

type CartUsecase struct {
	carts    repo.CartStore
	products repo.ProductRepository
	views    *CartViewBuilder
	metrics  *metrics.ShopMetrics
}

// DI
func NewCartUsecase(
	carts repo.CartStore,
	products repo.ProductRepository,
	views *CartViewBuilder,
	m *metrics.ShopMetrics,
) *CartUsecase {
	return &CartUsecase{
		carts:    carts,
		products: products,
		views:    views,
		metrics:  m,
	}
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type AddCartOutput struct {
	CartCount int64 `json:"cart_count"`
	ProductID int64 `json:"product_id"`
	Added     int64 `json:"added"` // 在庫で切り詰めた後の数
}

type SetCartItemOutput struct {
	CartCount int64 `json:"cart_count"`
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type CartCountOutput struct {
	CartCount int64 `json:"cart_count"`
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return newShopError(KindUnauthorized, "unauthorized")
	}
	return nil
}

// カートに入れてよい商品か確認して返す（在庫を上限にする）
func (u *CartUsecase) loadPurchasable(ctx context.Context, productID int64) (int64, error) {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return 0, NewNotFoundError("product not found")
	}
	if err != nil {
		return 0, NewPersistenceError("db error", err)
	}
	if !p.Status.IsPurchasable() {
		return 0, NewStateConflictError(ReasonProductOffShelf)
	}
	return p.Stock, nil
}

// 加算。在庫を超える分は切り詰める（エラーにはしない）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in AddCartInput) (out AddCartOutput, err error) {
	defer func() { u.metrics.ObserveCartMutation("add", err) }()

	if err := requireUser(userID); err != nil {
		return AddCartOutput{}, err
	}
	if in.ProductID <= 0 {
		return AddCartOutput{}, NewValidationError("invalid product id")
	}
	if in.Quantity <= 0 {
		return AddCartOutput{}, NewValidationError("quantity must be >= 1")
	}

	stock, err := u.loadPurchasable(ctx, in.ProductID)
	if err != nil {
		return AddCartOutput{}, err
	}

	added, err := u.carts.Add(userID, in.ProductID, in.Quantity, stock)
	if errors.Is(err, repo.ErrCartLineAtCapacity) {
		return AddCartOutput{}, NewStateConflictError(ReasonInsufficientStock)
	}
	if err != nil {
		return AddCartOutput{}, NewPersistenceError("cart error", err)
	}

	return AddCartOutput{
		CartCount: u.carts.TotalCount(userID),
		ProductID: in.ProductID,
		Added:     added,
	}, nil
}

// 数量の絶対値設定。0以下は削除、在庫を超える指定は在庫に合わせる。
func (u *CartUsecase) SetCartItem(ctx context.Context, userID string, productID int64, qty int64) (out SetCartItemOutput, err error) {
	defer func() { u.metrics.ObserveCartMutation("set", err) }()

	if err := requireUser(userID); err != nil {
		return SetCartItemOutput{}, err
	}
	if productID <= 0 {
		return SetCartItemOutput{}, NewValidationError("invalid product id")
	}
	if qty <= 0 {
		u.carts.Remove(userID, productID)
		return SetCartItemOutput{
			CartCount: u.carts.TotalCount(userID),
			ProductID: productID,
			Quantity:  0,
		}, nil
	}

	stock, err := u.loadPurchasable(ctx, productID)
	if err != nil {
		return SetCartItemOutput{}, err
	}
	if qty > stock {
		qty = stock
	}
	//在庫0に切り詰めた場合は削除と区別するため拒否
	if qty <= 0 {
		return SetCartItemOutput{}, NewStateConflictError(ReasonInsufficientStock)
	}

	u.carts.SetQty(userID, productID, qty)
	return SetCartItemOutput{
		CartCount: u.carts.TotalCount(userID),
		ProductID: productID,
		Quantity:  qty,
	}, nil
}

// 無いIDは無視する
func (u *CartUsecase) RemoveFromCart(ctx context.Context, userID string, productIDs []int64) (out CartCountOutput, err error) {
	defer func() { u.metrics.ObserveCartMutation("remove", err) }()

	if err := requireUser(userID); err != nil {
		return CartCountOutput{}, err
	}
	if len(productIDs) == 0 {
		return CartCountOutput{}, NewValidationError("product_ids required")
	}
	for _, id := range productIDs {
		if id <= 0 {
			return CartCountOutput{}, NewValidationError("invalid product id")
		}
	}

	u.carts.Remove(userID, productIDs...)
	return CartCountOutput{CartCount: u.carts.TotalCount(userID)}, nil
}

func (u *CartUsecase) ClearCart(ctx context.Context, userID string) (out CartCountOutput, err error) {
	defer func() { u.metrics.ObserveCartMutation("clear", err) }()

	if err := requireUser(userID); err != nil {
		return CartCountOutput{}, err
	}

	u.carts.Clear(userID)
	return CartCountOutput{CartCount: 0}, nil
}

func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartView, error) {
	if err := requireUser(userID); err != nil {
		return CartView{}, err
	}
	return u.views.Build(ctx, u.carts.Snapshot(userID))
}
