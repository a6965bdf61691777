package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/fulfillment"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func shipmentMessage(t *testing.T, offset int64, eventType string) kafka.Message {
	t.Helper()
	return kafka.Message{
		Topic:  "shipment-lifecycle",
		Offset: offset,
		Value: envelopeBytes(t, ShipmentEnvelope{
			Type:       eventType,
			EventID:    uuid.New(),
			OrderID:    uuid.New(),
			ShipmentID: uuid.New(),
		}),
	}
}

func runConsumer(t *testing.T, consumer *ShipmentEventConsumer) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()
	return cancel, done
}

func TestShipmentEventConsumer_DispatchesAndCommits(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		shipmentMessage(t, 1, fulfillment.EventTypeShipmentCreated),
		shipmentMessage(t, 2, fulfillment.EventTypeShipmentShipped),
	}}
	publisher := &recordingPublisher{}
	consumer := NewShipmentEventConsumer(reader, publisher, ConsumerConfig{}, zap.NewNop())

	cancel, done := runConsumer(t, consumer)
	require.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	events := publisher.published()
	require.Len(t, events, 2)
	assert.Equal(t, fulfillment.EventTypeShipmentCreated, events[0].EventType())
	assert.Equal(t, fulfillment.EventTypeShipmentShipped, events[1].EventType())
	assert.Equal(t, []int64{1, 2}, reader.committedOffsets())
}

func TestShipmentEventConsumer_SkipsUndecodableMessage(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Topic: "shipment-lifecycle", Offset: 7, Value: []byte("not json")},
		shipmentMessage(t, 8, fulfillment.EventTypeShipmentCreated),
	}}
	publisher := &recordingPublisher{}
	consumer := NewShipmentEventConsumer(reader, publisher, ConsumerConfig{}, zap.NewNop())

	cancel, done := runConsumer(t, consumer)
	require.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 2
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	assert.Len(t, publisher.published(), 1)
}

func TestShipmentEventConsumer_RetriesFailedHandling(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		shipmentMessage(t, 3, fulfillment.EventTypeShipmentCreated),
	}}
	publisher := &recordingPublisher{failures: 2, err: errors.New("conflict")}
	consumer := NewShipmentEventConsumer(reader, publisher, ConsumerConfig{
		MaxAttempts:  5,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())

	cancel, done := runConsumer(t, consumer)
	require.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	assert.Len(t, publisher.published(), 3)
}

func TestShipmentEventConsumer_GivesUpAfterMaxAttempts(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		shipmentMessage(t, 4, fulfillment.EventTypeShipmentShipped),
	}}
	publisher := &recordingPublisher{failures: 100, err: errors.New("down")}
	consumer := NewShipmentEventConsumer(reader, publisher, ConsumerConfig{
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	}, zap.NewNop())

	cancel, done := runConsumer(t, consumer)
	require.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	assert.Len(t, publisher.published(), 3)
}

func TestShipmentEventConsumer_PropagatesTraceContext(t *testing.T) {
	previous := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(previous) })

	traceID := "4bf92f3577b34da6a3ce929d0e0e4736"
	msg := shipmentMessage(t, 5, fulfillment.EventTypeShipmentCreated)
	msg.Headers = []kafka.Header{{
		Key:   "traceparent",
		Value: []byte("00-" + traceID + "-00f067aa0ba902b7-01"),
	}}
	reader := &fakeReader{messages: []kafka.Message{msg}}
	publisher := &recordingPublisher{}
	consumer := NewShipmentEventConsumer(reader, publisher, ConsumerConfig{}, zap.NewNop())

	cancel, done := runConsumer(t, consumer)
	require.Eventually(t, func() bool {
		return len(reader.committedOffsets()) == 1
	}, time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	require.Len(t, publisher.ctxs, 1)
	sc := trace.SpanContextFromContext(publisher.ctxs[0])
	assert.Equal(t, traceID, sc.TraceID().String())
}

func TestShipmentEventConsumer_StopsOnCancel(t *testing.T) {
	reader := &fakeReader{}
	consumer := NewShipmentEventConsumer(reader, &recordingPublisher{}, ConsumerConfig{}, nil)

	cancel, done := runConsumer(t, consumer)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
	require.NoError(t, consumer.Close())
	assert.True(t, reader.closed)
}
