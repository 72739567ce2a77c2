// internal/adapters/db/inventory_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// inventoryRepository implements ports.InventoryRepository
type inventoryRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *Database, logger *slog.Logger) ports.InventoryRepository {
	return &inventoryRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "inventory")),
	}
}

// Save creates a new catalog item
func (r *inventoryRepository) Save(ctx context.Context, item *domain.InventoryItem) error {
	item.PrepareForStorage()

	query := `
		INSERT INTO inventory_items (
			id, name, stock, unit_cost, sell_price, category, image_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		item.ID, item.Name, item.Stock, item.UnitCost, item.SellPrice,
		item.Category, nullIfEmpty(item.ImageURL), item.CreatedAt, item.UpdatedAt,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to save inventory item: %w", err)
	}

	r.logger.DebugContext(ctx, "inventory item saved",
		slog.String("id", item.ID.String()),
		slog.String("name", item.Name))

	return nil
}

// Update updates an existing catalog item
func (r *inventoryRepository) Update(ctx context.Context, item *domain.InventoryItem) error {
	item.PrepareForStorage()

	query := `
		UPDATE inventory_items SET
			name = $2, stock = $3, unit_cost = $4, sell_price = $5,
			category = $6, image_url = $7, updated_at = $8
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		item.ID, item.Name, item.Stock, item.UnitCost, item.SellPrice,
		item.Category, nullIfEmpty(item.ImageURL), item.UpdatedAt,
	).Scan(&item.UpdatedAt)

	if err != nil {
		if err == pgx.ErrNoRows {
			return fmt.Errorf("inventory item not found: %s", item.ID)
		}
		return fmt.Errorf("failed to update inventory item: %w", err)
	}

	r.logger.DebugContext(ctx, "inventory item updated",
		slog.String("id", item.ID.String()))

	return nil
}

// FindByID retrieves a catalog item by ID
func (r *inventoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.InventoryItem, error) {
	query := selectInventoryColumns + ` WHERE id = $1 AND deleted_at IS NULL`

	item, err := scanInventoryRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find inventory item: %w", err)
	}

	return item, nil
}

// FindByName retrieves a catalog item by its exact name. Finalized
// documents are matched against inventory this way.
func (r *inventoryRepository) FindByName(ctx context.Context, name string) (*domain.InventoryItem, error) {
	query := selectInventoryColumns + ` WHERE name = $1 AND deleted_at IS NULL`

	item, err := scanInventoryRow(r.db.QueryRow(ctx, query, name))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find inventory item by name: %w", err)
	}

	return item, nil
}

// List retrieves catalog items with filtering and pagination
func (r *inventoryRepository) List(ctx context.Context, params ports.ListParams) ([]*domain.InventoryItem, int64, error) {
	qb := squirrel.Select(
		"id", "name", "stock", "unit_cost", "sell_price",
		"category", "image_url", "created_at", "updated_at",
	).From("inventory_items").
		Where("deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)

	if params.Search != "" {
		qb = qb.Where("name ILIKE ?", "%"+params.Search+"%")
	}
	if params.Category != "" {
		qb = qb.Where(squirrel.Eq{"category": params.Category})
	}

	countQb := squirrel.Select("COUNT(*)").From("inventory_items").
		Where("deleted_at IS NULL").
		PlaceholderFormat(squirrel.Dollar)
	if params.Search != "" {
		countQb = countQb.Where("name ILIKE ?", "%"+params.Search+"%")
	}
	if params.Category != "" {
		countQb = countQb.Where(squirrel.Eq{"category": params.Category})
	}

	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count inventory items: %w", err)
	}

	orderBy := "name ASC"
	if params.SortBy != "" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}

		switch params.SortBy {
		case "stock":
			orderBy = fmt.Sprintf("stock %s", direction)
		case "price":
			orderBy = fmt.Sprintf("sell_price %s", direction)
		case "updated":
			orderBy = fmt.Sprintf("updated_at %s", direction)
		default:
			orderBy = fmt.Sprintf("name %s", direction)
		}
	}
	qb = qb.OrderBy(orderBy)

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	qb = qb.Limit(uint64(pageSize)).Offset(uint64((page - 1) * pageSize))

	sqlQuery, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query inventory items: %w", err)
	}

	items, err := ScanMany(rows, scanInventoryRows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan inventory items: %w", err)
	}

	return items, totalCount, nil
}

// AdjustStock applies a signed delta to the stock of one item. The check
// constraint on the table refuses drops below zero.
func (r *inventoryRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int) error {
	query := `
		UPDATE inventory_items
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item not found: %s", id)
	}

	r.logger.DebugContext(ctx, "stock adjusted",
		slog.String("id", id.String()),
		slog.Int("delta", delta))

	return nil
}

// Delete marks an item as deleted
func (r *inventoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE inventory_items SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("inventory item not found: %s", id)
	}

	r.logger.InfoContext(ctx, "inventory item deleted",
		slog.String("id", id.String()))

	return nil
}

// Exists checks if a catalog item exists
func (r *inventoryRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM inventory_items WHERE id = $1 AND deleted_at IS NULL)`

	var exists bool
	err := r.db.QueryRow(ctx, query, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return exists, nil
}

const selectInventoryColumns = `
	SELECT
		id, name, stock, unit_cost, sell_price,
		category, image_url, created_at, updated_at
	FROM inventory_items`

func scanInventoryRow(row pgx.Row) (*domain.InventoryItem, error) {
	item := &domain.InventoryItem{}
	var imageURL sql.NullString

	err := row.Scan(
		&item.ID, &item.Name, &item.Stock, &item.UnitCost, &item.SellPrice,
		&item.Category, &imageURL, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.ImageURL = imageURL.String
	return item, nil
}

func scanInventoryRows(rows pgx.Rows) (*domain.InventoryItem, error) {
	return scanInventoryRow(rows)
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
