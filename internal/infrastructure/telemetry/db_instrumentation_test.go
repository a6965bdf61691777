package telemetry_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sampleRow struct {
	ID   string `gorm:"primaryKey"`
	Name string
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&sampleRow{}))
	return db
}

func TestDBMetrics_RecordsQueriesByOperation(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader, nil)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	db := openSQLite(t)
	ctx := context.Background()

	m, err := telemetry.RegisterDBMetrics(ctx, db, mp, telemetry.DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	require.NotNil(t, m)
	t.Cleanup(m.Stop)

	require.NoError(t, db.WithContext(ctx).Create(&sampleRow{ID: uuid.NewString(), Name: "a"}).Error)
	var rows []sampleRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumFor(t, metrics["db_query_total"], telemetry.AttrDBOperation.String("INSERT")))
	assert.Equal(t, int64(2), sumFor(t, metrics["db_query_total"], telemetry.AttrDBOperation.String("SELECT")))
	assert.Contains(t, metrics, "db_query_duration_seconds")
}

func TestRegisterDBMetrics_Disabled(t *testing.T) {
	db := openSQLite(t)
	mp := telemetry.NewMeterProviderWithReader(sdkmetric.NewManualReader(), nil)

	m, err := telemetry.RegisterDBMetrics(context.Background(), db, mp, telemetry.DBMetricsConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = telemetry.RegisterDBMetrics(context.Background(), db, nil, telemetry.DefaultDBMetricsConfig(), nil)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestRegisterDBTracing_AnnotatesQuerySpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	db := openSQLite(t)
	require.NoError(t, telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: 1, // every query is slow
		DBSystem:        "sqlite",
	}, nil))

	ctx, parent := provider.Tracer("test").Start(context.Background(), "parent")
	require.NoError(t, db.WithContext(ctx).Create(&sampleRow{ID: uuid.NewString(), Name: "b"}).Error)
	parent.End()

	var insert sdktrace.ReadOnlySpan
	for _, s := range recorder.Ended() {
		if s.Name() != "parent" {
			insert = s
		}
	}
	require.NotNil(t, insert, "expected a query span")
	assert.Equal(t, parent.SpanContext().TraceID(), insert.SpanContext().TraceID())
	assert.Contains(t, insert.Attributes(), attribute.String("db.sql.table", "sample_rows"))
	assert.Contains(t, insert.Attributes(), attribute.Bool("db.slow_query", true))

	var events []string
	for _, e := range insert.Events() {
		events = append(events, e.Name)
	}
	assert.Contains(t, events, "slow_query_warning")
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := openSQLite(t)
	assert.NoError(t, telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{Enabled: false}, nil))
}
