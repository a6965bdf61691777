// Package event exposes operator actions on the transactional outbox.
package event

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/shared"
	"go.uber.org/zap"
)

// OutboxService lists, inspects and revives outbox entries
type OutboxService struct {
	repo   shared.OutboxRepository
	logger *zap.Logger
}

// NewOutboxService creates a new outbox service
func NewOutboxService(repo shared.OutboxRepository, logger *zap.Logger) *OutboxService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxService{
		repo:   repo,
		logger: logger.Named("outbox_service"),
	}
}

// OutboxEntryDTO represents an outbox entry in API responses
type OutboxEntryDTO struct {
	ID            uuid.UUID  `json:"id"`
	EventID       uuid.UUID  `json:"event_id"`
	EventType     string     `json:"event_type"`
	AggregateID   uuid.UUID  `json:"aggregate_id"`
	AggregateType string     `json:"aggregate_type"`
	Status        string     `json:"status"`
	RetryCount    int        `json:"retry_count"`
	MaxRetries    int        `json:"max_retries"`
	LastError     string     `json:"last_error,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// OutboxFilter represents pagination for dead letter listings
type OutboxFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// OutboxStatsDTO counts entries per status
type OutboxStatsDTO struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Sent       int64 `json:"sent"`
	Failed     int64 `json:"failed"`
	Dead       int64 `json:"dead"`
	Total      int64 `json:"total"`
}

// RetryAllResult reports a bulk dead letter retry
type RetryAllResult struct {
	Retried int64 `json:"retried"`
	Skipped int64 `json:"skipped"`
}

const retryAllPageSize = 100

// ListDead returns dead letter entries, newest first, with the total count.
func (s *OutboxService) ListDead(ctx context.Context, filter OutboxFilter) ([]OutboxEntryDTO, int64, shared.Filter, error) {
	page := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalize()

	entries, total, err := s.repo.FindDead(ctx, page.Page, page.PageSize)
	if err != nil {
		return nil, 0, page, fmt.Errorf("find dead outbox entries: %w", err)
	}

	dtos := make([]OutboxEntryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = toOutboxEntryDTO(entry)
	}
	return dtos, total, page, nil
}

// GetEntry returns a single entry
func (s *OutboxService) GetEntry(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryDead moves one dead entry back to PENDING with a fresh retry budget.
func (s *OutboxService) RetryDead(ctx context.Context, id uuid.UUID) (*OutboxEntryDTO, error) {
	entry, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := entry.ResetForRetry(); err != nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, err.Error())
	}
	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, fmt.Errorf("update outbox entry %s: %w", id, err)
	}

	s.logger.Info("Dead letter entry reset for retry",
		zap.String("id", id.String()),
		zap.String("event_type", entry.EventType),
	)

	dto := toOutboxEntryDTO(entry)
	return &dto, nil
}

// RetryAllDead resets every dead entry. The dead set is snapshotted first so that
// entries leaving DEAD do not shift the pages being walked.
func (s *OutboxService) RetryAllDead(ctx context.Context) (*RetryAllResult, error) {
	var dead []*shared.OutboxEntry
	for page := 1; ; page++ {
		entries, _, err := s.repo.FindDead(ctx, page, retryAllPageSize)
		if err != nil {
			return nil, fmt.Errorf("find dead outbox entries: %w", err)
		}
		dead = append(dead, entries...)
		if len(entries) < retryAllPageSize {
			break
		}
	}

	result := &RetryAllResult{}
	for _, entry := range dead {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := entry.ResetForRetry(); err != nil {
			result.Skipped++
			continue
		}
		if err := s.repo.Update(ctx, entry); err != nil {
			s.logger.Warn("Failed to reset dead letter entry",
				zap.String("id", entry.ID.String()),
				zap.Error(err),
			)
			result.Skipped++
			continue
		}
		result.Retried++
	}

	s.logger.Info("Retried dead letter entries",
		zap.Int64("retried", result.Retried),
		zap.Int64("skipped", result.Skipped),
	)
	return result, nil
}

// GetStats returns entry counts by status
func (s *OutboxService) GetStats(ctx context.Context) (*OutboxStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count outbox entries: %w", err)
	}

	stats := &OutboxStatsDTO{
		Pending:    counts[shared.OutboxStatusPending],
		Processing: counts[shared.OutboxStatusProcessing],
		Sent:       counts[shared.OutboxStatusSent],
		Failed:     counts[shared.OutboxStatusFailed],
		Dead:       counts[shared.OutboxStatusDead],
	}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}

func (s *OutboxService) find(ctx context.Context, id uuid.UUID) (*shared.OutboxEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Outbox entry not found")
		}
		return nil, fmt.Errorf("find outbox entry %s: %w", id, err)
	}
	if entry == nil {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Outbox entry not found")
	}
	return entry, nil
}

func toOutboxEntryDTO(entry *shared.OutboxEntry) OutboxEntryDTO {
	return OutboxEntryDTO{
		ID:            entry.ID,
		EventID:       entry.EventID,
		EventType:     entry.EventType,
		AggregateID:   entry.AggregateID,
		AggregateType: entry.AggregateType,
		Status:        string(entry.Status),
		RetryCount:    entry.RetryCount,
		MaxRetries:    entry.MaxRetries,
		LastError:     entry.LastError,
		NextRetryAt:   entry.NextRetryAt,
		ProcessedAt:   entry.ProcessedAt,
		CreatedAt:     entry.CreatedAt,
		UpdatedAt:     entry.UpdatedAt,
	}
}
