package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
)

// StockLocationService manages the stock location registry
type StockLocationService struct {
	repo inventory.StockLocationRepository
}

// NewStockLocationService creates a new StockLocationService
func NewStockLocationService(repo inventory.StockLocationRepository) *StockLocationService {
	return &StockLocationService{repo: repo}
}

// Create registers a new stock location
func (s *StockLocationService) Create(ctx context.Context, req CreateStockLocationRequest) (*StockLocationResponse, error) {
	location, err := inventory.NewStockLocation(req.Code, req.Name)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByCode(ctx, location.Code)
	if err != nil {
		return nil, fmt.Errorf("failed to check location code: %w", err)
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, fmt.Sprintf("Stock location with code %q already exists", location.Code))
	}

	if err := s.repo.Create(ctx, location); err != nil {
		return nil, err
	}
	resp := ToStockLocationResponse(location)
	return &resp, nil
}

// Get retrieves a stock location by ID
func (s *StockLocationService) Get(ctx context.Context, id uuid.UUID) (*StockLocationResponse, error) {
	location, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStockLocationResponse(location)
	return &resp, nil
}

// List returns a page of stock locations
func (s *StockLocationService) List(ctx context.Context, filter shared.Filter) ([]StockLocationResponse, int64, error) {
	filter = filter.Normalize()
	if filter.OrderBy != "code" && filter.OrderBy != "name" {
		filter.OrderBy = "created_at"
	}
	locations, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]StockLocationResponse, len(locations))
	for i := range locations {
		out[i] = ToStockLocationResponse(&locations[i])
	}
	return out, total, nil
}
