package repository

import "context"

// 同じDBトランザクションに載ったrepository一式
type TxRepos interface {
	Products() ProductRepository
	Inventory() InventoryRepository
	Transactions() TransactionRepository
	AuditLogs() AuditLogRepository
}

// fnがnilを返せばcommit、errorならrollbackしてそのerrorを返す
type TransactionManager interface {
	WithinTx(ctx context.Context, fn func(r TxRepos) error) error
}
