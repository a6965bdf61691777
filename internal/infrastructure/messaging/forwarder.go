package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// StockEventForwarder publishes committed stock events, as drained from the outbox,
// to the stock-events topic. Messages are keyed by stock item so a consumer sees
// each item's events in order.
type StockEventForwarder struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewStockEventForwarder creates a forwarder
func NewStockEventForwarder(writer MessageWriter, logger *zap.Logger) *StockEventForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockEventForwarder{writer: writer, logger: logger}
}

// EventTypes returns the stock event types
func (f *StockEventForwarder) EventTypes() []string {
	return []string{
		inventory.EventTypeStockItemCreated,
		inventory.EventTypeStockItemUpdated,
		inventory.EventTypeStockMovementRecorded,
		inventory.EventTypeStockItemDeleted,
	}
}

// Handle writes the event to Kafka
func (f *StockEventForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", event.EventType(), err)
	}

	headers := append(injectTraceContext(ctx),
		kafka.Header{Key: "event_type", Value: []byte(event.EventType())},
		kafka.Header{Key: "event_id", Value: []byte(event.EventID().String())},
	)
	msg := kafka.Message{
		Key:     []byte(event.AggregateID().String()),
		Value:   payload,
		Headers: headers,
		Time:    event.OccurredAt(),
	}

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to forward %s: %w", event.EventType(), err)
	}
	f.logger.Debug("stock event forwarded",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}

// Close flushes and releases the underlying writer
func (f *StockEventForwarder) Close() error {
	return f.writer.Close()
}
