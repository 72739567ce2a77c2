// internal/adapters/db/document_repository.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// documentRepository implements ports.DocumentRepository
type documentRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *Database, logger *slog.Logger) ports.DocumentRepository {
	return &documentRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "document")),
	}
}

const selectDocumentColumns = `
	SELECT
		d.id, d.kind, d.order_number, d.counterparty_id, d.counterparty_rut,
		d.counterparty_name, d.doc_type, d.doc_number, d.payment_method,
		d.date, d.status, d.total, d.created_at, d.updated_at
	FROM documents d`

// FindByID retrieves a document with its line items
func (r *documentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := selectDocumentColumns + ` WHERE d.id = $1`

	doc, err := scanDocumentRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}

	if err := r.loadItems(ctx, doc); err != nil {
		return nil, err
	}

	return doc, nil
}

func (r *documentRepository) loadItems(ctx context.Context, doc *domain.Document) error {
	query := `
		SELECT id, name, quantity, unit_price, unit_cost
		FROM document_items
		WHERE document_id = $1
		ORDER BY position ASC`

	rows, err := r.db.Query(ctx, query, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to query document items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.LineItem
		var unitCost *decimal.Decimal
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.UnitPrice, &unitCost); err != nil {
			return fmt.Errorf("failed to scan document item: %w", err)
		}
		item.UnitCost = unitCost
		doc.Items = append(doc.Items, item)
	}

	return rows.Err()
}

// List retrieves documents matching the filter, newest first
func (r *documentRepository) List(ctx context.Context, filter ports.DocumentFilter) ([]*domain.Document, int64, error) {
	qb := squirrel.Select(
		"d.id", "d.kind", "d.order_number", "d.counterparty_id", "d.counterparty_rut",
		"d.counterparty_name", "d.doc_type", "d.doc_number", "d.payment_method",
		"d.date", "d.status", "d.total", "d.created_at", "d.updated_at",
	).From("documents d").
		PlaceholderFormat(squirrel.Dollar)

	countQb := squirrel.Select("COUNT(*)").From("documents d").
		PlaceholderFormat(squirrel.Dollar)

	conds := documentConditions(filter)
	for _, c := range conds {
		qb = qb.Where(c)
		countQb = countQb.Where(c)
	}

	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count documents: %w", err)
	}

	qb = qb.OrderBy("d.date DESC", "d.created_at DESC")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
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
		return nil, 0, fmt.Errorf("failed to query documents: %w", err)
	}

	docs, err := ScanMany(rows, scanDocumentRows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan documents: %w", err)
	}

	for _, doc := range docs {
		if err := r.loadItems(ctx, doc); err != nil {
			return nil, 0, err
		}
	}

	return docs, totalCount, nil
}

func documentConditions(filter ports.DocumentFilter) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer

	if filter.Kind != "" {
		conds = append(conds, squirrel.Eq{"d.kind": filter.Kind})
	}
	if filter.Counterparty != "" {
		like := "%" + filter.Counterparty + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"d.counterparty_name": like},
			squirrel.ILike{"d.counterparty_rut": like},
		})
	}
	if filter.DateFrom != nil {
		conds = append(conds, squirrel.GtOrEq{"d.date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		conds = append(conds, squirrel.Lt{"d.date": *filter.DateTo})
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		conds = append(conds, squirrel.Or{
			squirrel.ILike{"d.order_number": like},
			squirrel.ILike{"d.counterparty_name": like},
		})
	}

	return conds
}

// Delete removes a document and its line items. Finalized stock
// mutations are deliberately left in place.
func (r *documentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.Transaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM document_items WHERE document_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete document items: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("document not found: %s", id)
		}

		r.logger.InfoContext(ctx, "document deleted",
			slog.String("id", id.String()))
		return nil
	})
}

// Count returns how many documents of the given kind exist
func (r *documentRepository) Count(ctx context.Context, kind domain.DocumentKind) (int64, error) {
	query := `SELECT COUNT(*) FROM documents WHERE kind = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, kind).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return count, nil
}

// InsertDocumentTx inserts the document header and its line rows on an
// open transaction. Used by the document finalizer.
func InsertDocumentTx(ctx context.Context, tx pgx.Tx, doc *domain.Document) error {
	headerSQL := `
		INSERT INTO documents (
			id, kind, order_number, counterparty_id, counterparty_rut,
			counterparty_name, doc_type, doc_number, payment_method,
			date, status, total, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := tx.Exec(ctx, headerSQL,
		doc.ID, doc.Kind, doc.OrderNumber, doc.CounterpartyID, doc.CounterpartyRUT,
		doc.Counterparty, nullIfEmpty(string(doc.DocType)), nullIfEmpty(doc.DocNumber),
		nullIfEmpty(string(doc.PaymentMethod)),
		doc.Date, doc.Status, doc.Total, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	itemSQL := `
		INSERT INTO document_items (
			id, document_id, position, name, quantity, unit_price, unit_cost
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	batch := &pgx.Batch{}
	for i, item := range doc.Items {
		batch.Queue(itemSQL,
			item.ID, doc.ID, i, item.Name, item.Quantity, item.UnitPrice, item.UnitCost)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range doc.Items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert document item: %w", err)
		}
	}

	return nil
}

func scanDocumentRow(row pgx.Row) (*domain.Document, error) {
	doc := &domain.Document{}
	var docType, docNumber, paymentMethod sql.NullString

	err := row.Scan(
		&doc.ID, &doc.Kind, &doc.OrderNumber, &doc.CounterpartyID, &doc.CounterpartyRUT,
		&doc.Counterparty, &docType, &docNumber, &paymentMethod,
		&doc.Date, &doc.Status, &doc.Total, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.DocType = domain.FiscalDocType(docType.String)
	doc.DocNumber = docNumber.String
	doc.PaymentMethod = domain.PaymentMethod(paymentMethod.String)

	return doc, nil
}

func scanDocumentRows(rows pgx.Rows) (*domain.Document, error) {
	return scanDocumentRow(rows)
}
