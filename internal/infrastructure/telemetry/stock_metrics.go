package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// OutboxStatsProvider reports the outbox backlog
type OutboxStatsProvider interface {
	CountByStatus(ctx context.Context) (map[shared.OutboxStatus]int64, error)
}

// StockMetrics records ledger activity: movements per originator, units moved,
// version conflicts per operation and the outbox backlog per status.
type StockMetrics struct {
	movements    *Counter
	units        *Counter
	conflicts    *Counter
	outboxByStat *Gauge

	logger   *zap.Logger
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStockMetrics creates the stock instruments on meter
func NewStockMetrics(meter metric.Meter, logger *zap.Logger) (*StockMetrics, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	movements, err := NewCounter(meter,
		"stock_movements_total",
		"Number of stock movements appended to the ledger",
		"{movement}",
	)
	if err != nil {
		return nil, err
	}

	units, err := NewCounter(meter,
		"stock_movement_units_total",
		"Absolute quantity moved by stock movements",
		"{unit}",
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := NewCounter(meter,
		"stock_version_conflicts_total",
		"Optimistic concurrency conflicts on stock items",
		"{conflict}",
	)
	if err != nil {
		return nil, err
	}

	outbox, err := NewGauge(meter,
		"stock_outbox_entries",
		"Outbox entries by delivery status",
		"{entry}",
	)
	if err != nil {
		return nil, err
	}

	return &StockMetrics{
		movements:    movements,
		units:        units,
		conflicts:    conflicts,
		outboxByStat: outbox,
		logger:       logger,
		stopCh:       make(chan struct{}),
	}, nil
}

// RecordMovement counts one committed movement
func (m *StockMetrics) RecordMovement(ctx context.Context, originator inventory.Originator, quantity int) {
	attr := AttrOriginator.String(string(originator))
	m.movements.Inc(ctx, attr)
	if quantity < 0 {
		quantity = -quantity
	}
	m.units.Add(ctx, int64(quantity), attr)
}

// RecordConflict counts a version conflict hit by operation
func (m *StockMetrics) RecordConflict(ctx context.Context, operation string) {
	m.conflicts.Inc(ctx, AttrOperation.String(operation))
}

// StartOutboxCollection samples the outbox backlog every interval until Stop
func (m *StockMetrics) StartOutboxCollection(ctx context.Context, provider OutboxStatsProvider, interval time.Duration) {
	if provider == nil || interval <= 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		m.CollectOutbox(ctx, provider)
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.CollectOutbox(ctx, provider)
			}
		}
	}()
}

// CollectOutbox records one backlog sample. Statuses without entries are reported as zero.
func (m *StockMetrics) CollectOutbox(ctx context.Context, provider OutboxStatsProvider) {
	counts, err := provider.CountByStatus(ctx)
	if err != nil {
		m.logger.Warn("Failed to collect outbox backlog", zap.Error(err))
		return
	}

	for _, status := range []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		m.outboxByStat.Record(ctx, counts[status], AttrOutboxStatus.String(string(status)))
	}
}

// Stop ends the backlog collection. Safe to call more than once.
func (m *StockMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
	})
}
