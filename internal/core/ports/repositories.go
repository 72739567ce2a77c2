// internal/core/ports/repositories.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
)

// CounterpartyRepository is the persistence port for customers and providers.
type CounterpartyRepository interface {
	FindByRUT(ctx context.Context, rut string) (*domain.Counterparty, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Counterparty, error)
	Upsert(ctx context.Context, cp *domain.Counterparty) error
	List(ctx context.Context, params ListParams) ([]*domain.Counterparty, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DocumentFilter narrows document listings.
type DocumentFilter struct {
	Kind         domain.DocumentKind
	Counterparty string
	DateFrom     *time.Time
	DateTo       *time.Time
	Search       string
	Page         int
	PageSize     int
}

// DocumentRepository is the persistence port for sales and purchases.
type DocumentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)
	List(ctx context.Context, filter DocumentFilter) ([]*domain.Document, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, kind domain.DocumentKind) (int64, error)
}

// InventoryRepository is the persistence port for the product catalog.
type InventoryRepository interface {
	Save(ctx context.Context, item *domain.InventoryItem) error
	Update(ctx context.Context, item *domain.InventoryItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error)
	FindByName(ctx context.Context, name string) (*domain.InventoryItem, error)
	List(ctx context.Context, params ListParams) ([]*domain.InventoryItem, int64, error)
	AdjustStock(ctx context.Context, id uuid.UUID, delta int) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// DocumentFinalizer persists the outcome of a confirmed order-entry flow:
// counterparty upsert, document header, line rows and the dependent
// inventory stock mutations, all inside one transaction. On error nothing
// is visible.
type DocumentFinalizer interface {
	FinalizeDocument(ctx context.Context, cp *domain.Counterparty, doc *domain.Document) error
}

// ListParams holds pagination and filtering for simple listings
type ListParams struct {
	Search    string
	Category  string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}
