package repository

import (
	"context"

	"campusshop/internal/domain/model"
)

// 空の項目は絞り込まない
type AuditLogQuery struct {
	Page     int
	Limit    int
	ActorID  string
	Action   model.AuditAction
	TargetID string
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error

	// 新しい順
	List(ctx context.Context, q AuditLogQuery) ([]model.AuditLog, int64, error)
}
