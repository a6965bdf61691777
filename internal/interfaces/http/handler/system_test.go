package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/resys/stockledger/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemEngine(h *SystemHandler) *gin.Engine {
	r := gin.New()
	r.GET("/health", h.Health)
	r.GET("/ready", h.Ready)
	r.GET("/system/info", h.Info)
	return r
}

func serve(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSystemHandler_Health(t *testing.T) {
	r := systemEngine(NewSystemHandler("stockledger", "1.2.3"))

	w := serve(r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestSystemHandler_Ready(t *testing.T) {
	ok := HealthCheck{Name: "database", Check: func(context.Context) error { return nil }}
	down := HealthCheck{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all checks pass", func(t *testing.T) {
		w := serve(systemEngine(NewSystemHandler("stockledger", "1.2.3", ok)), "/ready")
		require.Equal(t, http.StatusOK, w.Code)

		var env envelope
		require.NoError(t, decodeBody(w, &env))
		resp := decode[ReadinessResponse](t, env.Data)
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
	})

	t.Run("failing check", func(t *testing.T) {
		w := serve(systemEngine(NewSystemHandler("stockledger", "1.2.3", ok, down)), "/ready")
		require.Equal(t, http.StatusServiceUnavailable, w.Code)

		var env envelope
		require.NoError(t, decodeBody(w, &env))
		assert.Equal(t, dto.ErrCodeServiceUnavailable, env.Error.Code)
		resp := decode[ReadinessResponse](t, env.Data)
		assert.Equal(t, "unavailable", resp.Status)
		assert.Equal(t, "ok", resp.Checks["database"])
		assert.Equal(t, "connection refused", resp.Checks["redis"])
	})
}

func TestSystemHandler_Info(t *testing.T) {
	w := serve(systemEngine(NewSystemHandler("stockledger", "1.2.3")), "/system/info")
	require.Equal(t, http.StatusOK, w.Code)

	var env envelope
	require.NoError(t, decodeBody(w, &env))
	info := decode[SystemInfoResponse](t, env.Data)
	assert.Equal(t, "stockledger", info.Name)
	assert.Equal(t, "1.2.3", info.Version)
	assert.NotEmpty(t, info.GoVersion)
}
