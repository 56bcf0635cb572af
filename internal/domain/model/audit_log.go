package model

import (
	"fmt"
	"strconv"
	"time"
)

// 管理者操作の種類。対象（TargetID）の種類は操作で決まる。
type AuditAction string

const (
	AuditStockSet          AuditAction = "stock.set"          // TargetID = 商品ID
	AuditTransactionStatus AuditAction = "transaction.status" // TargetID = 取引ID
)

func (a AuditAction) Valid() bool {
	switch a {
	case AuditStockSet, AuditTransactionStatus:
		return true
	default:
		return false
	}
}

// AuditLog は管理者操作1件。Before/After は変わった項目だけのJSON。
type AuditLog struct {
	ID        int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorID   string      `gorm:"type:varchar(255);not null;index" json:"actor_id"`
	Action    AuditAction `gorm:"type:varchar(32);not null;index:idx_audit_target,priority:1" json:"action"`
	TargetID  string      `gorm:"type:varchar(64);not null;index:idx_audit_target,priority:2" json:"target_id"`
	Before    string      `gorm:"type:text;not null" json:"before"`
	After     string      `gorm:"type:text;not null" json:"after"`
	CreatedAt time.Time   `gorm:"not null;index" json:"created_at"`
}

func StockSetAudit(actorID string, productID int64, before, after int64, at time.Time) AuditLog {
	return AuditLog{
		ActorID:   actorID,
		Action:    AuditStockSet,
		TargetID:  strconv.FormatInt(productID, 10),
		Before:    fmt.Sprintf(`{"stock":%d}`, before),
		After:     fmt.Sprintf(`{"stock":%d}`, after),
		CreatedAt: at,
	}
}

func TransactionStatusAudit(actorID string, transactionID string, before, after TransactionStatus, at time.Time) AuditLog {
	return AuditLog{
		ActorID:   actorID,
		Action:    AuditTransactionStatus,
		TargetID:  transactionID,
		Before:    fmt.Sprintf(`{"status":%q}`, before),
		After:     fmt.Sprintf(`{"status":%q}`, after),
		CreatedAt: at,
	}
}
