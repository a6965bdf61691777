package persistence

import (
	"context"

	appinv "github.com/resys/stockledger/internal/application/inventory"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Stock rows, ledger movements and outbox entries written inside one Execute
// commit or roll back together.
type GormTransactionScope struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB, outbox shared.OutboxEventSaver) *GormTransactionScope {
	return &GormTransactionScope{db: db, outbox: outbox}
}

// Execute runs fn within a database transaction.
// The transaction is rolled back if fn fails or ctx is done before commit.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(&gormTransactionalRepositories{tx: tx, outbox: s.outbox}); err != nil {
			return err
		}
		return ctx.Err()
	})
}

type gormTransactionalRepositories struct {
	tx     *gorm.DB
	outbox shared.OutboxEventSaver
}

func (r *gormTransactionalRepositories) StockItemRepo() inventory.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *gormTransactionalRepositories) LocationRepo() inventory.StockLocationRepository {
	return NewGormStockLocationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Events() shared.EventRecorder {
	return txEventRecorder(*r)
}

// txEventRecorder writes events to the outbox through the open transaction
type txEventRecorder gormTransactionalRepositories

func (r txEventRecorder) Record(ctx context.Context, events ...shared.DomainEvent) error {
	if r.outbox == nil || len(events) == 0 {
		return nil
	}
	return r.outbox.SaveEvents(ctx, r.tx, events...)
}

var (
	_ appinv.TransactionScope          = (*GormTransactionScope)(nil)
	_ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
	_ shared.EventRecorder             = txEventRecorder{}
)
