package telemetry

import (
	"context"
	"runtime/pprof"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"Operation":  "reconcile",
		"event-type": "ShipmentShipped",
		"order_id":   "3f0e",
		"empty":      "",
		"route":      strings.Repeat("x", MaxLabelValueLength+10),
		"!!!":        "dropped",
	})

	assert.Equal(t, []string{
		"event_type", "ShipmentShipped",
		"operation", "reconcile",
		"route", strings.Repeat("x", MaxLabelValueLength),
	}, pairs)
	assert.Empty(t, sanitizeLabels(nil))
}

func TestWithProfilingLabels(t *testing.T) {
	var got string
	var ok bool
	WithProfilingLabels(context.Background(), OperationLabels("reconcile", map[string]string{"shipment_id": "x"}), func(ctx context.Context) {
		got, ok = pprof.Label(ctx, ProfilingLabelOperation)
		_, hasShipment := pprof.Label(ctx, "shipment_id")
		assert.False(t, hasShipment)
	})
	assert.True(t, ok)
	assert.Equal(t, "reconcile", got)

	ran := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { ran = true })
	assert.True(t, ran)
}

func TestHTTPRequestLabels(t *testing.T) {
	assert.Equal(t, map[string]string{
		ProfilingLabelRoute:  "/api/v1/stock-items/:id",
		ProfilingLabelMethod: "GET",
	}, HTTPRequestLabels("/api/v1/stock-items/:id", "GET"))
	assert.Empty(t, HTTPRequestLabels("", ""))
}

func TestLevelFilterCore(t *testing.T) {
	inner, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(&levelFilterCore{Core: inner, minLevel: zapcore.WarnLevel}).With(zap.String("svc", "x"))

	log.Info("dropped")
	log.Warn("kept")

	entries := logs.All()
	assert.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "x", entries[0].ContextMap()["svc"])
}

func TestLoggerProvider_DisabledCoreIsNop(t *testing.T) {
	lp, err := NewLoggerProvider(context.Background(), LogsConfig{Enabled: false}, nil)
	assert.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.False(t, lp.ZapCore(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))
	assert.NoError(t, lp.Shutdown(context.Background()))

	var nilProvider *LoggerProvider
	assert.False(t, nilProvider.ZapCore(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}

func TestProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(ProfilerConfig{Enabled: false}, nil)
	assert.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())

	_, err = NewProfiler(ProfilerConfig{Enabled: true}, nil)
	assert.Error(t, err)
}
