package messaging

import (
	"context"
	"errors"
	"time"

	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/resys/stockledger/internal/infrastructure/messaging"

// ConsumerConfig controls redelivery of a message whose handlers failed
type ConsumerConfig struct {
	MaxAttempts  int
	RetryBackoff time.Duration
}

// DefaultConsumerConfig returns default configuration
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		MaxAttempts:  5,
		RetryBackoff: 500 * time.Millisecond,
	}
}

// ShipmentEventConsumer reads shipment lifecycle messages and dispatches them to the
// subscribed bridge handlers. The offset is committed after handling, so a crash
// redelivers the message and the idempotent handlers absorb the duplicate.
type ShipmentEventConsumer struct {
	reader    MessageReader
	publisher shared.EventPublisher
	config    ConsumerConfig
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewShipmentEventConsumer creates a consumer
func NewShipmentEventConsumer(reader MessageReader, publisher shared.EventPublisher, config ConsumerConfig, logger *zap.Logger) *ShipmentEventConsumer {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultConsumerConfig().MaxAttempts
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = DefaultConsumerConfig().RetryBackoff
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentEventConsumer{
		reader:    reader,
		publisher: publisher,
		config:    config,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Run consumes until ctx is cancelled or the reader fails
func (c *ShipmentEventConsumer) Run(ctx context.Context) error {
	c.logger.Info("shipment event consumer started")
	defer c.logger.Info("shipment event consumer stopped")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		c.handleMessage(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("failed to commit offset",
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}

// Close releases the underlying reader
func (c *ShipmentEventConsumer) Close() error {
	return c.reader.Close()
}

func (c *ShipmentEventConsumer) handleMessage(ctx context.Context, msg kafka.Message) {
	msgCtx := extractTraceContext(ctx, msg.Headers)
	msgCtx, span := c.tracer.Start(msgCtx, "shipment-lifecycle receive",
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination.name", msg.Topic),
			attribute.Int("messaging.kafka.partition", msg.Partition),
			attribute.Int64("messaging.kafka.offset", msg.Offset),
		),
	)
	defer span.End()

	event, err := DecodeShipmentEvent(msg.Value)
	if err != nil {
		// a malformed message would otherwise block the partition forever
		c.logger.Error("dropping undecodable shipment message",
			zap.String("topic", msg.Topic),
			zap.Int64("offset", msg.Offset),
			zap.ByteString("raw_value", msg.Value),
			zap.Error(err),
		)
		span.RecordError(err)
		return
	}
	span.SetAttributes(
		attribute.String("event.type", event.EventType()),
		attribute.String("event.id", event.EventID().String()),
	)

	for attempt := 1; ; attempt++ {
		err = c.publisher.Publish(msgCtx, event)
		if err == nil {
			return
		}
		if attempt >= c.config.MaxAttempts {
			break
		}
		c.logger.Warn("shipment event handling failed, retrying",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.config.RetryBackoff * time.Duration(attempt)):
		}
	}

	span.RecordError(err)
	c.logger.Error("giving up on shipment event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.Int("attempts", c.config.MaxAttempts),
		zap.Error(err),
	)
}

func extractTraceContext(ctx context.Context, headers []kafka.Header) context.Context {
	carrier := propagation.MapCarrier{}
	for _, h := range headers {
		carrier[h.Key] = string(h.Value)
	}
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

func injectTraceContext(ctx context.Context) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := make([]kafka.Header, 0, len(carrier))
	for k, v := range carrier {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}
