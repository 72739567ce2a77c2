// internal/adapters/db/counterparty_repository.go
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

// counterpartyRepository implements ports.CounterpartyRepository
type counterpartyRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewCounterpartyRepository creates a new counterparty repository
func NewCounterpartyRepository(db *Database, logger *slog.Logger) ports.CounterpartyRepository {
	return &counterpartyRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "counterparty")),
	}
}

const selectCounterpartyColumns = `
	SELECT
		id, rut, is_company, first_name, last_name, business_name, business_giro,
		email, phone, address, commune, region, shipping_method, branch_name,
		created_at, updated_at
	FROM counterparties`

// FindByRUT retrieves a counterparty by its normalized RUT
func (r *counterpartyRepository) FindByRUT(ctx context.Context, rut string) (*domain.Counterparty, error) {
	query := selectCounterpartyColumns + ` WHERE rut = $1`

	cp, err := scanCounterpartyRow(r.db.QueryRow(ctx, query, domain.FormatRUT(rut)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find counterparty by rut: %w", err)
	}

	return cp, nil
}

// FindByID retrieves a counterparty by ID
func (r *counterpartyRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Counterparty, error) {
	query := selectCounterpartyColumns + ` WHERE id = $1`

	cp, err := scanCounterpartyRow(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find counterparty: %w", err)
	}

	return cp, nil
}

// Upsert inserts the counterparty or refreshes the stored profile when the
// RUT is already known. Later documents win: the profile always reflects
// the most recent finalization.
func (r *counterpartyRepository) Upsert(ctx context.Context, cp *domain.Counterparty) error {
	cp.PrepareForStorage()

	query := upsertCounterpartySQL

	err := r.db.QueryRow(ctx, query,
		cp.ID, cp.RUT, cp.IsCompany,
		nullIfEmpty(cp.FirstName), nullIfEmpty(cp.LastName),
		nullIfEmpty(cp.BusinessName), nullIfEmpty(cp.BusinessGiro),
		nullIfEmpty(cp.Email), nullIfEmpty(cp.Phone), nullIfEmpty(cp.Address),
		nullIfEmpty(cp.Commune), nullIfEmpty(cp.Region),
		cp.Shipping, nullIfEmpty(cp.BranchName),
		cp.CreatedAt, cp.UpdatedAt,
	).Scan(&cp.ID, &cp.CreatedAt, &cp.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert counterparty: %w", err)
	}

	r.logger.DebugContext(ctx, "counterparty upserted",
		slog.String("id", cp.ID.String()),
		slog.String("rut", cp.RUT))

	return nil
}

const upsertCounterpartySQL = `
	INSERT INTO counterparties (
		id, rut, is_company, first_name, last_name, business_name, business_giro,
		email, phone, address, commune, region, shipping_method, branch_name,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (rut) DO UPDATE SET
		is_company = EXCLUDED.is_company,
		first_name = EXCLUDED.first_name,
		last_name = EXCLUDED.last_name,
		business_name = EXCLUDED.business_name,
		business_giro = EXCLUDED.business_giro,
		email = EXCLUDED.email,
		phone = EXCLUDED.phone,
		address = EXCLUDED.address,
		commune = EXCLUDED.commune,
		region = EXCLUDED.region,
		shipping_method = EXCLUDED.shipping_method,
		branch_name = EXCLUDED.branch_name,
		updated_at = EXCLUDED.updated_at
	RETURNING id, created_at, updated_at`

// UpsertCounterpartyTx runs the same upsert on an open transaction. Used
// by the document finalizer.
func UpsertCounterpartyTx(ctx context.Context, tx pgx.Tx, cp *domain.Counterparty) error {
	cp.PrepareForStorage()

	err := tx.QueryRow(ctx, upsertCounterpartySQL,
		cp.ID, cp.RUT, cp.IsCompany,
		nullIfEmpty(cp.FirstName), nullIfEmpty(cp.LastName),
		nullIfEmpty(cp.BusinessName), nullIfEmpty(cp.BusinessGiro),
		nullIfEmpty(cp.Email), nullIfEmpty(cp.Phone), nullIfEmpty(cp.Address),
		nullIfEmpty(cp.Commune), nullIfEmpty(cp.Region),
		cp.Shipping, nullIfEmpty(cp.BranchName),
		cp.CreatedAt, cp.UpdatedAt,
	).Scan(&cp.ID, &cp.CreatedAt, &cp.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert counterparty: %w", err)
	}

	return nil
}

// List retrieves counterparties with filtering and pagination
func (r *counterpartyRepository) List(ctx context.Context, params ports.ListParams) ([]*domain.Counterparty, int64, error) {
	qb := squirrel.Select(
		"id", "rut", "is_company", "first_name", "last_name", "business_name", "business_giro",
		"email", "phone", "address", "commune", "region", "shipping_method", "branch_name",
		"created_at", "updated_at",
	).From("counterparties").
		PlaceholderFormat(squirrel.Dollar)

	countQb := squirrel.Select("COUNT(*)").From("counterparties").
		PlaceholderFormat(squirrel.Dollar)

	if params.Search != "" {
		like := "%" + params.Search + "%"
		search := squirrel.Or{
			squirrel.ILike{"rut": like},
			squirrel.ILike{"first_name": like},
			squirrel.ILike{"last_name": like},
			squirrel.ILike{"business_name": like},
		}
		qb = qb.Where(search)
		countQb = countQb.Where(search)
	}

	countSQL, countArgs, err := countQb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count counterparties: %w", err)
	}

	orderBy := "updated_at DESC"
	if params.SortBy == "name" {
		orderBy = "COALESCE(business_name, last_name) ASC"
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
		return nil, 0, fmt.Errorf("failed to query counterparties: %w", err)
	}

	cps, err := ScanMany(rows, scanCounterpartyRows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan counterparties: %w", err)
	}

	return cps, totalCount, nil
}

// Delete removes a counterparty. Documents keep their denormalized copy
// of the name and RUT, so history is unaffected.
func (r *counterpartyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM counterparties WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete counterparty: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("counterparty not found: %s", id)
	}

	r.logger.InfoContext(ctx, "counterparty deleted",
		slog.String("id", id.String()))

	return nil
}

func scanCounterpartyRow(row pgx.Row) (*domain.Counterparty, error) {
	cp := &domain.Counterparty{}
	var firstName, lastName, businessName, businessGiro sql.NullString
	var email, phone, address, commune, region, branchName sql.NullString

	err := row.Scan(
		&cp.ID, &cp.RUT, &cp.IsCompany,
		&firstName, &lastName, &businessName, &businessGiro,
		&email, &phone, &address, &commune, &region,
		&cp.Shipping, &branchName,
		&cp.CreatedAt, &cp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cp.FirstName = firstName.String
	cp.LastName = lastName.String
	cp.BusinessName = businessName.String
	cp.BusinessGiro = businessGiro.String
	cp.Email = email.String
	cp.Phone = phone.String
	cp.Address = address.String
	cp.Commune = commune.String
	cp.Region = region.String
	cp.BranchName = branchName.String

	return cp, nil
}

func scanCounterpartyRows(rows pgx.Rows) (*domain.Counterparty, error) {
	return scanCounterpartyRow(rows)
}
