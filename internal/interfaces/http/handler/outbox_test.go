package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	appevent "github.com/resys/stockledger/internal/application/event"
	"github.com/resys/stockledger/internal/domain/shared"
	infraevent "github.com/resys/stockledger/internal/infrastructure/event"
	"github.com/resys/stockledger/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// killPending exhausts the retries of every pending outbox entry
func (s *testServer) killPending(t *testing.T) []uuid.UUID {
	t.Helper()
	ctx := context.Background()
	repo := infraevent.NewGormOutboxRepository(s.db)

	entries, err := repo.FindPending(ctx, 100)
	require.NoError(t, err)
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		for !e.IsDead() {
			e.MarkFailed("broker unreachable")
		}
		require.NoError(t, repo.Update(ctx, e))
		ids = append(ids, e.ID)
	}
	return ids
}

func TestOutboxHandler_Stats(t *testing.T) {
	s := newTestServer(t)
	loc := s.createLocation(t, "WH-1")
	s.createItem(t, map[string]any{"variant_id": uuid.New(), "stock_location_id": loc.ID, "sku": "A", "quantity_on_hand": 3})

	w, env := s.do(t, http.MethodGet, "/api/v1/system/outbox/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[appevent.OutboxStatsDTO](t, env.Data)
	assert.Positive(t, stats.Pending)
	assert.Equal(t, stats.Pending, stats.Total)
	assert.Zero(t, stats.Dead)
}

func TestOutboxHandler_DeadLetters(t *testing.T) {
	s := newTestServer(t)
	loc := s.createLocation(t, "WH-1")
	s.createItem(t, map[string]any{"variant_id": uuid.New(), "stock_location_id": loc.ID, "sku": "A", "quantity_on_hand": 3})
	dead := s.killPending(t)
	require.NotEmpty(t, dead)

	w, env := s.do(t, http.MethodGet, "/api/v1/system/outbox/dead?page_size=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(len(dead)), env.Meta.Total)
	listed := decode[[]appevent.OutboxEntryDTO](t, env.Data)
	require.Len(t, listed, 1)
	assert.Equal(t, string(shared.OutboxStatusDead), listed[0].Status)
	assert.Equal(t, "broker unreachable", listed[0].LastError)

	w, env = s.do(t, http.MethodGet, "/api/v1/system/outbox/"+dead[0].String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dead[0], decode[appevent.OutboxEntryDTO](t, env.Data).ID)

	w, env = s.do(t, http.MethodPost, "/api/v1/system/outbox/"+dead[0].String()+"/retry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	retried := decode[appevent.OutboxEntryDTO](t, env.Data)
	assert.Equal(t, string(shared.OutboxStatusPending), retried.Status)
	assert.Zero(t, retried.RetryCount)

	// a pending entry is not a dead letter
	w, env = s.do(t, http.MethodPost, "/api/v1/system/outbox/"+dead[0].String()+"/retry", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidInput, env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/system/outbox/dead/retry", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[appevent.RetryAllResult](t, env.Data)
	assert.Equal(t, int64(len(dead)-1), result.Retried)
	assert.Zero(t, result.Skipped)

	w, env = s.do(t, http.MethodGet, "/api/v1/system/outbox/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, decode[appevent.OutboxStatsDTO](t, env.Data).Dead)
}

func TestOutboxHandler_GetMissing(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/system/outbox/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, env.Error.Code)
}
