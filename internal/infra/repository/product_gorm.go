package repository

import (
	"context"
	"errors"
	"strings"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 販売中のみ。削除済みはgormのsoft deleteで除外される
func onShelf(db *gorm.DB) *gorm.DB {
	return db.Where("status = ?", model.ProductStatusOnShelf)
}

func matching(q repo.ProductListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if kw := strings.TrimSpace(q.Q); kw != "" {
			db = db.Where("name ILIKE ?", "%"+kw+"%")
		}
		if q.MinPrice != nil {
			db = db.Where("price >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			db = db.Where("price <= ?", *q.MaxPrice)
		}
		return db
	}
}

func sortedBy(sort string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch sort {
		case "price_asc":
			return db.Order("price asc").Order("id asc")
		case "price_desc":
			return db.Order("price desc").Order("id desc")
		default:
			return db.Order("created_at desc").Order("id desc")
		}
	}
}

func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	base := matching(q)(onShelf(r.db.WithContext(ctx).Model(&model.Product{})))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	products := []model.Product{}
	err := sortedBy(q.Sort)(base).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	return firstProduct(r.db.WithContext(ctx), id)
}

// SELECT ... FOR UPDATE
// 同じ商品を買う他のチェックアウトはcommit/rollbackまで待つ
func (r *ProductGormRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	return firstProduct(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func firstProduct(db *gorm.DB, id int64) (model.Product, error) {
	var p model.Product
	err := db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Product{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Product{}, err
	}
	return p, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, err
	}
	return p, nil
}

// stockは触らない（InventoryRepositoryで履歴付きで変える）
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", p.ID).
		Select("name", "description", "price", "status").
		Updates(model.Product{Name: p.Name, Description: p.Description, Price: p.Price, Status: p.Status}))
}

func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Product{}, id))
}

// 0行ならErrNotFound
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
