package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/resys/stockledger/internal/infrastructure/logger"
	"github.com/resys/stockledger/internal/interfaces/http/handler"
	"github.com/resys/stockledger/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig selects the middleware chain of the API
type EngineConfig struct {
	ServiceName      string
	Mode             string
	TracingEnabled   bool
	ProfilingEnabled bool
	MaxBodySize      int64
	TrustedProxies   []string
	CORS             middleware.CORSConfig
	// Meter records HTTP metrics when set
	Meter metric.Meter
}

// Handlers are the endpoint groups served by the engine
type Handlers struct {
	StockItems *handler.StockItemHandler
	Locations  *handler.StockLocationHandler
	Outbox     *handler.OutboxHandler
	System     *handler.SystemHandler
}

// NewEngine builds the gin engine with the middleware chain and every route.
// Probes live outside /api so they skip body limits and tracing noise is kept low.
func NewEngine(cfg EngineConfig, h Handlers, log *zap.Logger) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	chain := []gin.HandlerFunc{
		middleware.RequestID(),
		middleware.Tracing(cfg.ServiceName, cfg.TracingEnabled),
		middleware.SpanDecorator(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.SecureHeaders(),
		middleware.CORS(cfg.CORS),
	}
	if cfg.Meter != nil {
		metricsMW, err := middleware.HTTPMetrics(cfg.Meter)
		if err != nil {
			return nil, err
		}
		chain = append(chain, metricsMW)
	}
	chain = append(chain,
		middleware.Profiling(cfg.ProfilingEnabled),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	engine.Use(chain...)

	NewRouter(engine).Register(
		stockItemRoutes(h.StockItems),
		stockLocationRoutes(h.Locations),
		systemRoutes(h.System, h.Outbox),
	).Setup()

	return engine, nil
}

func stockItemRoutes(h *handler.StockItemHandler) *DomainGroup {
	return NewDomainGroup("/stock-items").
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get).
		PATCH("/:id", h.Update).
		DELETE("/:id", h.Delete).
		POST("/:id/adjust", h.Adjust).
		POST("/:id/reserve", h.Reserve).
		POST("/:id/release", h.Release).
		POST("/:id/ship", h.ConfirmShipment).
		GET("/:id/movements", h.ListMovements).
		GET("/:id/reconciliation", h.Reconcile)
}

func stockLocationRoutes(h *handler.StockLocationHandler) *DomainGroup {
	return NewDomainGroup("/stock-locations").
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.Get)
}

func systemRoutes(system *handler.SystemHandler, outbox *handler.OutboxHandler) *DomainGroup {
	return NewDomainGroup("/system").
		GET("/info", system.Info).
		GET("/outbox/stats", outbox.Stats).
		GET("/outbox/dead", outbox.ListDead).
		POST("/outbox/dead/retry", outbox.RetryAll).
		GET("/outbox/:id", outbox.Get).
		POST("/outbox/:id/retry", outbox.Retry)
}
