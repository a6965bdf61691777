package inventory

import (
	"context"

	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
)

// TransactionScope provides transactional access to the stock repositories.
// Everything done through the repositories handed to fn is committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error or ctx is cancelled before commit, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories of one transaction.
//
//   - StockItemRepo: the StockItem aggregate; counter changes go through SaveWithLock.
//   - MovementRepo: the append-only ledger.
//   - LocationRepo: read access to the location registry.
//   - Events: outbox writer; recorded events are dispatched only after commit.
type TransactionalRepositories interface {
	StockItemRepo() inventory.StockItemRepository
	MovementRepo() inventory.StockMovementRepository
	LocationRepo() inventory.StockLocationRepository
	Events() shared.EventRecorder
}
