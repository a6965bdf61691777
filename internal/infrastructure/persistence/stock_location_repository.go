package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/resys/stockledger/internal/domain/inventory"
	"github.com/resys/stockledger/internal/domain/shared"
	"github.com/resys/stockledger/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockLocationRepository implements StockLocationRepository using GORM
type GormStockLocationRepository struct {
	db *gorm.DB
}

// NewGormStockLocationRepository creates a new GormStockLocationRepository
func NewGormStockLocationRepository(db *gorm.DB) *GormStockLocationRepository {
	return &GormStockLocationRepository{db: db}
}

// FindByID finds a stock location by ID
func (r *GormStockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockLocation, error) {
	var model models.StockLocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, shared.CodeStockLocationNotFound, fmt.Sprintf("stock location %s not found", id))
	}
	return model.ToDomain(), nil
}

// FindByCode finds a stock location by its code
func (r *GormStockLocationRepository) FindByCode(ctx context.Context, code string) (*inventory.StockLocation, error) {
	var model models.StockLocationModel
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.WithContext(ctx).First(&model, "code = ?", code).Error; err != nil {
		return nil, notFound(err, shared.CodeStockLocationNotFound, fmt.Sprintf("stock location %s not found", code))
	}
	return model.ToDomain(), nil
}

// List returns a page of stock locations and the total count
func (r *GormStockLocationRepository) List(ctx context.Context, filter shared.Filter) ([]inventory.StockLocation, int64, error) {
	filter = filter.Normalize()
	query := r.db.WithContext(ctx).Model(&models.StockLocationModel{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		query = query.Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockLocationModel
	err := query.
		Order(orderClause(filter.OrderBy, filter.OrderDir, StockLocationSortFields, "created_at")).
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	locations := make([]inventory.StockLocation, len(rows))
	for i := range rows {
		locations[i] = *rows[i].ToDomain()
	}
	return locations, total, nil
}

// Create inserts a new stock location
func (r *GormStockLocationRepository) Create(ctx context.Context, location *inventory.StockLocation) error {
	err := r.db.WithContext(ctx).Create(models.StockLocationModelFromDomain(location)).Error
	return duplicate(err, shared.CodeAlreadyExists, fmt.Sprintf("stock location %s already exists", location.Code))
}

// Exists checks whether a stock location exists
func (r *GormStockLocationRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockLocationModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsByCode checks whether a location code is taken
func (r *GormStockLocationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.WithContext(ctx).Model(&models.StockLocationModel{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ inventory.StockLocationRepository = (*GormStockLocationRepository)(nil)
