// internal/adapters/db/finalizer.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// documentFinalizer implements ports.DocumentFinalizer. All writes of a
// confirmed order run inside one transaction: correlative assignment,
// counterparty upsert, document header, line rows and the inventory
// stock mutations. On error nothing is visible.
type documentFinalizer struct {
	db     *Database
	logger *slog.Logger
}

// NewDocumentFinalizer creates the transactional finalizer
func NewDocumentFinalizer(db *Database, logger *slog.Logger) ports.DocumentFinalizer {
	return &documentFinalizer{
		db:     db,
		logger: logger.With(slog.String("component", "finalizer")),
	}
}

// FinalizeDocument persists a confirmed sale or purchase atomically.
func (f *documentFinalizer) FinalizeDocument(ctx context.Context, cp *domain.Counterparty, doc *domain.Document) error {
	if err := cp.Validate(); err != nil {
		return err
	}

	doc.CounterpartyRUT = cp.RUT
	doc.Counterparty = cp.DisplayName()
	doc.PrepareForStorage()

	if err := doc.Validate(); err != nil {
		return err
	}

	err := f.db.Transaction(ctx, func(tx pgx.Tx) error {
		if doc.OrderNumber == "" {
			num, err := nextOrderNumberTx(ctx, tx)
			if err != nil {
				return err
			}
			doc.OrderNumber = num
		}

		if err := UpsertCounterpartyTx(ctx, tx, cp); err != nil {
			return err
		}
		doc.CounterpartyID = cp.ID

		if err := InsertDocumentTx(ctx, tx, doc); err != nil {
			return err
		}

		return f.applyInventory(ctx, tx, doc)
	})
	if err != nil {
		return fmt.Errorf("failed to finalize document: %w", err)
	}

	f.logger.InfoContext(ctx, "document finalized",
		slog.String("id", doc.ID.String()),
		slog.String("kind", string(doc.Kind)),
		slog.String("order_number", doc.OrderNumber),
		slog.String("total", doc.Total.String()))

	return nil
}

// applyInventory mutates the catalog for each line: sales consume stock,
// purchases add stock and refresh the net unit cost. Purchase lines for
// unknown products create the catalog entry.
func (f *documentFinalizer) applyInventory(ctx context.Context, tx pgx.Tx, doc *domain.Document) error {
	for _, line := range doc.Items {
		item, err := findItemByNameTx(ctx, tx, line.Name)
		if err != nil {
			return err
		}

		if item == nil {
			if doc.Kind == domain.KindSale {
				// Sales of uncataloged items are allowed; there is no
				// stock to consume.
				continue
			}

			cost := purchaseNetCost(line)
			newItem := &domain.InventoryItem{
				Name:      line.Name,
				Stock:     line.Quantity,
				UnitCost:  cost,
				SellPrice: domain.GrossUp(cost),
				Category:  domain.CategoryOther,
			}
			newItem.PrepareForStorage()

			if err := insertItemTx(ctx, tx, newItem); err != nil {
				return err
			}
			continue
		}

		delta := doc.StockDelta(line.Quantity)
		if doc.Kind == domain.KindPurchase {
			cost := purchaseNetCost(line)
			if err := adjustStockAndCostTx(ctx, tx, item.ID, delta, cost); err != nil {
				return err
			}
			continue
		}

		if err := adjustStockTx(ctx, tx, item.ID, delta); err != nil {
			return err
		}
	}

	return nil
}

// purchaseNetCost is the net unit cost carried by a purchase line. Lines
// without an explicit cost fall back to the IVA decomposition of the
// gross unit price.
func purchaseNetCost(line domain.LineItem) decimal.Decimal {
	if line.UnitCost != nil {
		return *line.UnitCost
	}
	return domain.DecomposeGross(line.UnitPrice).Net
}

// nextOrderNumberTx advances the document correlative and formats it as
// "COT-xxxx". The sequence makes the number unique across concurrent
// finalizations; the width grows past four digits instead of wrapping.
func nextOrderNumberTx(ctx context.Context, tx pgx.Tx) (string, error) {
	var n int64
	if err := tx.QueryRow(ctx, `SELECT nextval('document_correlative')`).Scan(&n); err != nil {
		return "", fmt.Errorf("failed to advance document correlative: %w", err)
	}
	return fmt.Sprintf("COT-%04d", n), nil
}

func findItemByNameTx(ctx context.Context, tx pgx.Tx, name string) (*domain.InventoryItem, error) {
	query := selectInventoryColumns + ` WHERE name = $1 AND deleted_at IS NULL FOR UPDATE`

	item, err := scanInventoryRow(tx.QueryRow(ctx, query, name))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find inventory item by name: %w", err)
	}

	return item, nil
}

func insertItemTx(ctx context.Context, tx pgx.Tx, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			id, name, stock, unit_cost, sell_price, category, image_url,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := tx.Exec(ctx, query,
		item.ID, item.Name, item.Stock, item.UnitCost, item.SellPrice,
		item.Category, nullIfEmpty(item.ImageURL), item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	return nil
}

func adjustStockTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int) error {
	query := `
		UPDATE inventory_items
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	if _, err := tx.Exec(ctx, query, id, delta); err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	return nil
}

func adjustStockAndCostTx(ctx context.Context, tx pgx.Tx, id uuid.UUID, delta int, cost decimal.Decimal) error {
	query := `
		UPDATE inventory_items
		SET stock = stock + $2, unit_cost = $3, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	if _, err := tx.Exec(ctx, query, id, delta, cost); err != nil {
		return fmt.Errorf("failed to adjust stock and cost: %w", err)
	}

	return nil
}
