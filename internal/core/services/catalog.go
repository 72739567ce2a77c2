// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// CatalogService handles the product catalog business logic.
type CatalogService struct {
	repo   ports.InventoryRepository
	logger *slog.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo ports.InventoryRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		repo:   repo,
		logger: logger.With(slog.String("service", "catalog")),
	}
}

// SaveItem validates and persists a new catalog item.
func (s *CatalogService) SaveItem(ctx context.Context, item *domain.InventoryItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	item.PrepareForStorage()

	if err := s.repo.Save(ctx, item); err != nil {
		return fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.InfoContext(ctx, "saved catalog item",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))
	return nil
}

// UpdateItem updates an existing catalog item.
func (s *CatalogService) UpdateItem(ctx context.Context, id uuid.UUID, item *domain.InventoryItem) error {
	item.ID = id
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}

	s.logger.InfoContext(ctx, "updated catalog item",
		slog.String("item_id", id.String()))
	return nil
}

// GetByID retrieves a catalog item by id.
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get catalog item: %w", err)
	}
	if item == nil {
		return nil, fmt.Errorf("catalog item not found: %s", id)
	}
	return item, nil
}

// List retrieves catalog items with filtering and pagination.
func (s *CatalogService) List(ctx context.Context, params ports.ListParams) ([]*domain.InventoryItem, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 {
		params.PageSize = 50
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list catalog items: %w", err)
	}
	return items, total, nil
}

// AdjustStock applies a manual stock correction.
func (s *CatalogService) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check catalog item: %w", err)
	}
	if item == nil {
		return fmt.Errorf("catalog item not found: %s", id)
	}
	if item.Stock+delta < 0 {
		return domain.NewValidationError("stock", "adjustment would make stock negative")
	}

	if err := s.repo.AdjustStock(ctx, id, delta); err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	s.logger.InfoContext(ctx, "adjusted stock",
		slog.String("item_id", id.String()),
		slog.Int("delta", delta))
	return nil
}

// DeleteItem removes a catalog item.
func (s *CatalogService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check item existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("catalog item not found: %s", id)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted catalog item",
		slog.String("item_id", id.String()))
	return nil
}
