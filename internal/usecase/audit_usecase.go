package usecase

import (
	"context"
	"strings"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"
)

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

type ListAuditLogsInput struct {
	Page     int
	Limit    int
	ActorID  string
	Action   string
	TargetID string
}

// 管理者向けの監査ログ閲覧
type AuditUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditUsecase(logs repo.AuditLogRepository) *AuditUsecase {
	return &AuditUsecase{logs: logs}
}

func (u *AuditUsecase) ListAuditLogs(ctx context.Context, in ListAuditLogsInput) (AuditLogListOutput, error) {
	if in.Page < 1 {
		return AuditLogListOutput{}, NewValidationError("invalid page")
	}
	if in.Limit < 1 || in.Limit > 200 {
		return AuditLogListOutput{}, NewValidationError("invalid limit")
	}

	action := model.AuditAction(strings.TrimSpace(in.Action))
	if action != "" && !action.Valid() {
		return AuditLogListOutput{}, NewValidationError("invalid action")
	}
	targetID := strings.TrimSpace(in.TargetID)
	if len(targetID) > 64 {
		return AuditLogListOutput{}, NewValidationError("target_id too long")
	}

	items, total, err := u.logs.List(ctx, repo.AuditLogQuery{
		Page:     in.Page,
		Limit:    in.Limit,
		ActorID:  strings.TrimSpace(in.ActorID),
		Action:   action,
		TargetID: targetID,
	})
	if err != nil {
		return AuditLogListOutput{}, NewPersistenceError("db error", err)
	}

	return AuditLogListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}
