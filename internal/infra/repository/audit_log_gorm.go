package repository

import (
	"context"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

// tx内で呼ばれたら操作と一緒にロールバックされる
func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return r.db.WithContext(ctx).Create(&log).Error
}

func (r *AuditLogGormRepository) List(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.AuditLog{})
	if q.ActorID != "" {
		tx = tx.Where("actor_id = ?", q.ActorID)
	}
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	if q.TargetID != "" {
		tx = tx.Where("target_id = ?", q.TargetID)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []model.AuditLog{}
	err := tx.Order("created_at desc").Order("id desc").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
