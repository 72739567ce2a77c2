// internal/core/services/documents.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// DocumentService handles read and delete access to finalized sales and
// purchases. Creation always goes through the order-entry flow.
type DocumentService struct {
	repo   ports.DocumentRepository
	logger *slog.Logger
}

// NewDocumentService creates a new document service
func NewDocumentService(repo ports.DocumentRepository, logger *slog.Logger) *DocumentService {
	return &DocumentService{
		repo:   repo,
		logger: logger.With(slog.String("service", "documents")),
	}
}

// GetByID retrieves a document with its line items.
func (s *DocumentService) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return doc, nil
}

// ListResult represents a paginated document listing
type ListResult struct {
	Documents  []*domain.Document `json:"documents"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalCount int64              `json:"total_count"`
	TotalPages int                `json:"total_pages"`
}

// List retrieves documents matching the filter, paginated.
func (s *DocumentService) List(ctx context.Context, filter ports.DocumentFilter) (*ListResult, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}

	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	totalPages := int(total) / filter.PageSize
	if int(total)%filter.PageSize > 0 {
		totalPages++
	}

	return &ListResult{
		Documents:  docs,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// Delete removes a document. Inventory is deliberately left untouched:
// deleting a historical record does not restock items.
func (s *DocumentService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.logger.InfoContext(ctx, "deleted document",
		slog.String("document_id", id.String()))
	return nil
}
