package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	appevent "github.com/resys/stockledger/internal/application/event"
	inventoryapp "github.com/resys/stockledger/internal/application/inventory"
	infraevent "github.com/resys/stockledger/internal/infrastructure/event"
	"github.com/resys/stockledger/internal/infrastructure/persistence"
	"github.com/resys/stockledger/internal/infrastructure/persistence/models"
	"github.com/resys/stockledger/internal/interfaces/http/dto"
	"github.com/resys/stockledger/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	engine *gin.Engine
	db     *gorm.DB
}

// envelope mirrors dto.Response with a raw data payload
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.StockLocationModel{},
		&models.StockItemModel{},
		&models.StockMovementModel{},
		&models.ProductVariantModel{},
		&models.OutboxEntryModel{},
	))

	serializer := infraevent.NewEventSerializer()
	infraevent.RegisterAllEvents(serializer)

	items := inventoryapp.NewStockItemService(
		persistence.NewGormTransactionScope(db, infraevent.NewOutboxPublisher(serializer)),
		persistence.NewGormStockItemRepository(db),
		persistence.NewGormStockMovementRepository(db),
		nil,
		inventoryapp.DefaultServiceConfig(),
		zap.NewNop(),
	)
	locations := inventoryapp.NewStockLocationService(persistence.NewGormStockLocationRepository(db))
	outbox := appevent.NewOutboxService(infraevent.NewGormOutboxRepository(db), zap.NewNop())

	require.NoError(t, middleware.SetupValidator())

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")

	ih := NewStockItemHandler(items)
	api.POST("/stock-items", ih.Create)
	api.GET("/stock-items", ih.List)
	api.GET("/stock-items/:id", ih.Get)
	api.PATCH("/stock-items/:id", ih.Update)
	api.DELETE("/stock-items/:id", ih.Delete)
	api.POST("/stock-items/:id/adjust", ih.Adjust)
	api.POST("/stock-items/:id/reserve", ih.Reserve)
	api.POST("/stock-items/:id/release", ih.Release)
	api.POST("/stock-items/:id/ship", ih.ConfirmShipment)
	api.GET("/stock-items/:id/movements", ih.ListMovements)
	api.GET("/stock-items/:id/reconciliation", ih.Reconcile)

	lh := NewStockLocationHandler(locations)
	api.POST("/stock-locations", lh.Create)
	api.GET("/stock-locations", lh.List)
	api.GET("/stock-locations/:id", lh.Get)

	oh := NewOutboxHandler(outbox)
	api.GET("/system/outbox/stats", oh.Stats)
	api.GET("/system/outbox/dead", oh.ListDead)
	api.POST("/system/outbox/dead/retry", oh.RetryAll)
	api.GET("/system/outbox/:id", oh.Get)
	api.POST("/system/outbox/:id/retry", oh.Retry)

	return &testServer{engine: r, db: db}
}

func (s *testServer) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func (s *testServer) createLocation(t *testing.T, code string) inventoryapp.StockLocationResponse {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/stock-locations", map[string]any{"code": code, "name": "Warehouse " + code})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[inventoryapp.StockLocationResponse](t, env.Data)
}

func (s *testServer) createItem(t *testing.T, body map[string]any) inventoryapp.StockItemResponse {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/stock-items", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[inventoryapp.StockItemResponse](t, env.Data)
}

func decodeBody(w *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(w.Body.Bytes(), v)
}
