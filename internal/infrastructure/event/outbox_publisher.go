package event

import (
	"context"
	"fmt"

	"github.com/resys/stockledger/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher stages stock events in the outbox table of an open transaction.
// The OutboxProcessor relays them after commit.
type OutboxPublisher struct {
	serializer *EventSerializer
}

// NewOutboxPublisher creates a new outbox publisher
func NewOutboxPublisher(serializer *EventSerializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// Stage serializes events and inserts them as PENDING entries through tx
func (p *OutboxPublisher) Stage(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	entries := make([]*shared.OutboxEntry, len(events))
	for i, event := range events {
		payload, err := p.serializer.Serialize(event)
		if err != nil {
			return fmt.Errorf("failed to serialize %s for outbox: %w", event.EventType(), err)
		}
		entries[i] = shared.NewOutboxEntry(event, payload)
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// SaveEvents stages events on the transaction handed over by the persistence layer
func (p *OutboxPublisher) SaveEvents(ctx context.Context, txProvider any, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	tx, ok := txProvider.(*gorm.DB)
	if !ok {
		return fmt.Errorf("outbox needs the open *gorm.DB transaction, got %T", txProvider)
	}
	return p.Stage(ctx, tx, events...)
}

var _ shared.OutboxEventSaver = (*OutboxPublisher)(nil)
