package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type contextKey string

const txKey contextKey = "gorm_tx"

// TransactionManager manages database transactions via context injection.
// Every state-changing operation (order save, line-item save, plan update)
// runs as a single unit of work through RunInTx.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type transactionManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &transactionManager{db: db}
}

func (t *transactionManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txCtx := context.WithValue(ctx, txKey, tx)
		return fn(txCtx)
	})
}

// GetDB extracts the transaction DB from context if present, otherwise returns root DB.
func GetDB(ctx context.Context, rootDB *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return rootDB.WithContext(ctx)
}

// dayFloor and dayAfter bound calendar-day filters as a half-open
// range. Date columns may come back as full timestamps depending on
// the driver, so "col >= dayFloor AND col < dayAfter" is the only
// comparison that behaves the same everywhere.
func dayFloor(t time.Time) string {
	return t.Format("2006-01-02")
}

func dayAfter(t time.Time) string {
	return t.AddDate(0, 0, 1).Format("2006-01-02")
}
