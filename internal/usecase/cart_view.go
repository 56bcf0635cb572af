package usecase

import (
	"context"
	"errors"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"github.com/shopspring/decimal"
)

type CartViewLine struct {
	ProductID int64               `json:"product_id"`
	Name      string              `json:"name"`
	Price     decimal.Decimal     `json:"price"`
	Quantity  int64               `json:"quantity"`
	Subtotal  decimal.Decimal     `json:"subtotal"`
	Stock     int64               `json:"stock"`
	Status    model.ProductStatus `json:"status"`
}

// 表示用のカート。Count/TotalAmountはItemsの合計。
// 販売停止の明細も含める（買えない理由を画面で出すため）。
type CartView struct {
	Items       []CartViewLine  `json:"items"`
	Count       int64           `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func emptyCartView() CartView {
	return CartView{Items: []CartViewLine{}, TotalAmount: decimal.Zero}
}

// カートの明細に商品情報（現在の価格・在庫）をつける
type CartViewBuilder struct {
	products repo.ProductRepository
}

func NewCartViewBuilder(products repo.ProductRepository) *CartViewBuilder {
	return &CartViewBuilder{products: products}
}

func (b *CartViewBuilder) Build(ctx context.Context, lines []model.CartLine) (CartView, error) {
	view := emptyCartView()

	for _, ln := range lines {
		p, err := b.products.FindByID(ctx, ln.ProductID)
		//削除済みの商品は表示しない
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return CartView{}, NewPersistenceError("db error", err)
		}

		subtotal := p.Price.Mul(decimal.NewFromInt(ln.Quantity))
		view.Items = append(view.Items, CartViewLine{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  ln.Quantity,
			Subtotal:  subtotal,
			Stock:     p.Stock,
			Status:    p.Status,
		})
		view.Count += ln.Quantity
		view.TotalAmount = view.TotalAmount.Add(subtotal)
	}

	return view, nil
}
