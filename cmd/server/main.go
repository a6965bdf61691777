package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	appevent "github.com/resys/stockledger/internal/application/event"
	fulfillmentapp "github.com/resys/stockledger/internal/application/fulfillment"
	inventoryapp "github.com/resys/stockledger/internal/application/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/cache"
	"github.com/resys/stockledger/internal/infrastructure/config"
	"github.com/resys/stockledger/internal/infrastructure/event"
	"github.com/resys/stockledger/internal/infrastructure/logger"
	"github.com/resys/stockledger/internal/infrastructure/messaging"
	"github.com/resys/stockledger/internal/infrastructure/persistence"
	"github.com/resys/stockledger/internal/infrastructure/scheduler"
	"github.com/resys/stockledger/internal/infrastructure/telemetry"
	"github.com/resys/stockledger/internal/interfaces/http/handler"
	"github.com/resys/stockledger/internal/interfaces/http/middleware"
	"github.com/resys/stockledger/internal/interfaces/http/router"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		panic("Failed to read .env: " + err.Error())
	}

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Bootstrap logger for telemetry setup; replaced once the OTLP log bridge exists
	bootLog, err := logger.New(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}, logsProvider.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting stock ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Telemetry.ProfilingEnabled,
		ServerAddress:   cfg.Telemetry.PyroscopeAddress,
		ApplicationName: serviceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() && tracerProvider.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
	)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	dbMetricsCfg := telemetry.DefaultDBMetricsConfig()
	dbMetricsCfg.Enabled = meterProvider.IsEnabled()
	dbMetrics, err := telemetry.RegisterDBMetrics(ctx, db.DB, meterProvider, dbMetricsCfg, log)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}

	// Repositories and services
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)

	txScope := persistence.NewGormTransactionScope(db.DB, event.NewOutboxPublisher(serializer))
	stockItemService := inventoryapp.NewStockItemService(
		txScope,
		persistence.NewGormStockItemRepository(db.DB),
		persistence.NewGormStockMovementRepository(db.DB),
		persistence.NewGormVariantCatalog(db.DB),
		inventoryapp.ServiceConfig{
			RecordInitialMovements: cfg.Inventory.RecordInitialMovements,
			ConflictRetries:        cfg.Inventory.ConflictRetries,
			ConflictBackoff:        cfg.Inventory.ConflictBackoff,
		},
		log,
	)
	stockLocationService := inventoryapp.NewStockLocationService(persistence.NewGormStockLocationRepository(db.DB))
	outboxService := appevent.NewOutboxService(outboxRepo, log)

	meter := meterProvider.Meter("stockledger")
	stockMetrics, err := telemetry.NewStockMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to create stock metrics", zap.Error(err))
	}
	stockItemService.SetMetrics(stockMetrics)
	if meterProvider.IsEnabled() {
		stockMetrics.StartOutboxCollection(ctx, outboxRepo, cfg.Telemetry.MetricsInterval)
	}

	var reconcileTrigger *scheduler.DailyTrigger
	if cfg.Inventory.ReconcileEnabled {
		reconcileTrigger = scheduler.NewDailyTrigger("ledger_reconciliation", scheduler.DailyTriggerConfig{
			Hour:   cfg.Inventory.ReconcileHour,
			Minute: cfg.Inventory.ReconcileMinute,
		}, func(ctx context.Context) error {
			_, err := stockItemService.ReconcileAll(ctx)
			return err
		}, log)
		if err := reconcileTrigger.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation trigger", zap.Error(err))
		}
	}

	// Outbox relay: committed stock events go to the stock-events topic
	outboxBus := event.NewInMemoryEventBus(log)
	var forwarder *messaging.StockEventForwarder
	if cfg.Kafka.Enabled {
		forwarder = messaging.NewStockEventForwarder(messaging.NewStockEventsWriter(cfg.Kafka), log)
		outboxBus.Subscribe(forwarder, forwarder.EventTypes()...)
	}

	var processor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processor = event.NewOutboxProcessor(outboxRepo, outboxBus, serializer, event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   cfg.Event.CleanupEnabled,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
		}, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	// Lifecycle bridge: shipment events drive reservations and shipments
	checks := []handler.HealthCheck{{
		Name:  "database",
		Check: func(context.Context) error { return db.Ping() },
	}}

	var consumer *messaging.ShipmentEventConsumer
	consumerDone := make(chan struct{})
	if cfg.Kafka.Enabled {
		store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.App.Env != "production"),
		).Create(ctx, cfg.Idempotency.Backend)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
			checks = append(checks, handler.HealthCheck{Name: "redis", Check: pinger.Ping})
		}

		shipments := persistence.NewGormShipmentReader(db.DB)
		bridgeHandlers := []shared.EventHandler{
			fulfillmentapp.NewShipmentCreatedHandler(shipments, stockItemService, log),
			fulfillmentapp.NewShipmentItemUpdatedHandler(shipments, stockItemService, log),
			fulfillmentapp.NewShipmentShippedHandler(shipments, stockItemService, log),
		}
		if cfg.Idempotency.Enabled {
			idemCfg := shared.DefaultIdempotencyConfig()
			idemCfg.Enabled = true
			if cfg.Idempotency.TTL > 0 {
				idemCfg.TTL = cfg.Idempotency.TTL
			}
			bridgeHandlers = event.WrapHandlersWithIdempotency(bridgeHandlers, store, log,
				event.WithIdempotencyConfig(idemCfg),
			)
		}

		bridgeBus := event.NewInMemoryEventBus(log)
		for _, h := range bridgeHandlers {
			bridgeBus.Subscribe(h, h.EventTypes()...)
		}

		consumer = messaging.NewShipmentEventConsumer(
			messaging.NewShipmentReader(cfg.Kafka), bridgeBus, messaging.DefaultConsumerConfig(), log,
		)
		go func() {
			defer close(consumerDone)
			if err := consumer.Run(ctx); err != nil {
				log.Error("Shipment event consumer stopped with error", zap.Error(err))
			}
		}()
	} else {
		close(consumerDone)
		log.Warn("Kafka disabled, shipment lifecycle bridge is not running")
	}

	// HTTP
	engineCfg := router.EngineConfig{
		ServiceName:      serviceName,
		TracingEnabled:   tracerProvider.IsEnabled(),
		ProfilingEnabled: profiler.IsEnabled(),
		MaxBodySize:      cfg.HTTP.MaxBodySize,
		TrustedProxies:   cfg.HTTP.TrustedProxies,
		CORS:             middleware.DefaultCORSConfig(),
	}
	if cfg.App.Env == "production" {
		engineCfg.Mode = "release"
	}
	if meterProvider.IsEnabled() {
		engineCfg.Meter = meter
	}
	engine, err := router.NewEngine(engineCfg, router.Handlers{
		StockItems: handler.NewStockItemHandler(stockItemService),
		Locations:  handler.NewStockLocationHandler(stockLocationService),
		Outbox:     handler.NewOutboxHandler(outboxService),
		System:     handler.NewSystemHandler(cfg.App.Name, version, checks...),
	}, log)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serverErr:
		log.Error("Server failed", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop intake before the relay so in-flight bridge writes still reach the outbox
	<-consumerDone
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			log.Error("Error closing shipment consumer", zap.Error(err))
		}
	}
	if reconcileTrigger != nil {
		if err := reconcileTrigger.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping reconciliation trigger", zap.Error(err))
		}
	}
	if processor != nil {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}
	if forwarder != nil {
		if err := forwarder.Close(); err != nil {
			log.Error("Error closing stock event writer", zap.Error(err))
		}
	}

	stockMetrics.Stop()
	if dbMetrics != nil {
		dbMetrics.Stop()
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}

	log.Info("Server exited gracefully")
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		bootLog.Error("Error shutting down log exporter", zap.Error(err))
	}
}
