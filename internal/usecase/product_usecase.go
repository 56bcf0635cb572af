package usecase

import (
	"context"
	"errors"
	"strings"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	clock       Clock
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	tx repo.TransactionManager,
	clock Clock,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo: productRepo,
		tx:          tx,
		clock:       clock,
	}
}

// GET /productsの入力DTO
type ListProductsInput struct {
	Page     int
	Limit    int
	Q        string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if in.Page < 1 {
		return ProductListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return ProductListOutput{}, NewValidationError("invalid limit")
	}
	if len(in.Q) > 100 {
		return ProductListOutput{}, NewValidationError("q too long")
	}
	if in.MinPrice != nil && in.MinPrice.IsNegative() {
		return ProductListOutput{}, NewValidationError("min_price must be >= 0")
	}
	if in.MaxPrice != nil && in.MaxPrice.IsNegative() {
		return ProductListOutput{}, NewValidationError("max_price must be >= 0")
	}
	if in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice) {
		return ProductListOutput{}, NewValidationError("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
	default:
		return ProductListOutput{}, NewValidationError("invalid sort")
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		Q:        strings.TrimSpace(in.Q),
		MinPrice: in.MinPrice,
		MaxPrice: in.MaxPrice,
		Sort:     in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, NewPersistenceError("db error", err)
	}

	return ProductListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 販売停止中の商品は一般公開しない
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, NewValidationError("invalid product id")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError("product not found")
	}
	if err != nil {
		return model.Product{}, NewPersistenceError("db error", err)
	}

	if !p.Status.IsPurchasable() {
		return model.Product{}, NewNotFoundError("product not found")
	}
	return p, nil
}

type AdminProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int64
	Status      model.ProductStatus
}

func validateProductInput(in AdminProductInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name required")
	}
	if len(in.Name) > 255 {
		return NewValidationError("name too long")
	}
	if in.Price.IsNegative() {
		return NewValidationError("price must be >= 0")
	}
	//numeric(12,2)に収まるか
	if !in.Price.Equal(in.Price.Round(2)) {
		return NewValidationError("price must have at most 2 decimal places")
	}
	if in.Stock < 0 {
		return NewValidationError("stock must be >= 0")
	}
	if !in.Status.Valid() {
		return NewValidationError("invalid status")
	}
	return nil
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID string, in AdminProductInput) (model.Product, error) {
	if strings.TrimSpace(adminUserID) == "" {
		return model.Product{}, newShopError(KindUnauthorized, "unauthorized")
	}
	if err := validateProductInput(in); err != nil {
		return model.Product{}, err
	}

	now := u.clock.Now()
	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		Status:      in.Status,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return model.Product{}, NewPersistenceError("db error", err)
	}
	return p, nil
}

// 在庫は変えない（在庫は/admin/inventoryで履歴付きで変える）
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID string, productID int64, in AdminProductInput) error {
	if strings.TrimSpace(adminUserID) == "" {
		return newShopError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if err := validateProductInput(in); err != nil {
		return err
	}

	err := u.productRepo.Update(ctx, model.Product{
		ID:          productID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		Status:      in.Status,
		UpdatedAt:   u.clock.Now(),
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewNotFoundError("product not found")
	}
	if err != nil {
		return NewPersistenceError("db error", err)
	}
	return nil
}

// 論理削除。カートに残っている分は表示から消え、チェックアウトではnot_foundになる。
func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID string, productID int64) error {
	if strings.TrimSpace(adminUserID) == "" {
		return newShopError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}

	err := u.productRepo.SoftDelete(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewNotFoundError("product not found")
	}
	if err != nil {
		return NewPersistenceError("db error", err)
	}
	return nil
}

// 在庫の絶対値設定。調整履歴と監査ログも同じTxで書く。
func (u *ProductUsecase) AdminUpdateInventory(ctx context.Context, adminUserID string, productID int64, newStock int64, reason string) error {
	if strings.TrimSpace(adminUserID) == "" {
		return newShopError(KindUnauthorized, "unauthorized")
	}
	if productID <= 0 {
		return NewValidationError("invalid product id")
	}
	if newStock < 0 {
		return NewValidationError("stock must be >= 0")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return NewValidationError("reason required")
	}

	now := u.clock.Now()
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//変更前の在庫（before）。チェックアウトと競合しないよう行ロック
		p, err := r.Products().FindByIDForUpdate(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError("product not found")
		}
		if err != nil {
			return NewPersistenceError("db error", err)
		}

		if err := r.Inventory().SetStock(ctx, productID, newStock); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return NewNotFoundError("product not found")
			}
			return NewPersistenceError("db error", err)
		}

		//履歴を作成（差分）
		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			ActorID:     adminUserID,
			StockBefore: p.Stock,
			StockAfter:  newStock,
			Reason:      reason,
			CreatedAt:   now,
		}); err != nil {
			return NewPersistenceError("db error", err)
		}

		//監査ログ
		if err := r.AuditLogs().Create(ctx, model.StockSetAudit(adminUserID, productID, p.Stock, newStock, now)); err != nil {
			return NewPersistenceError("db error", err)
		}
		return nil
	})
	if err != nil {
		if _, ok := AsShopError(err); ok {
			return err
		}
		return NewPersistenceError("db error", err)
	}
	return nil
}
