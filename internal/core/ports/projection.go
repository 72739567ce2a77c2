// internal/core/ports/projection.go
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SalesPoint is one month of sales history handed to the projection backend.
type SalesPoint struct {
	Date  time.Time       `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// ProjectionPoint is one row of a sales projection. Actual is nil for
// future periods.
type ProjectionPoint struct {
	Label     string           `json:"label"`
	Actual    *decimal.Decimal `json:"actual,omitempty"`
	Projected decimal.Decimal  `json:"projected"`
}

// BusinessSnapshot is the serialized state handed to the analysis backend.
type BusinessSnapshot struct {
	Sales     []SalesPoint    `json:"sales"`
	Purchases []SalesPoint    `json:"purchases"`
	Inventory []InventoryLine `json:"inventory"`
}

// InventoryLine is a condensed catalog row for analysis prompts.
type InventoryLine struct {
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	SellPrice decimal.Decimal `json:"sell_price"`
}

// ProjectionService is the AI collaborator. It is never authoritative:
// callers fall back to a deterministic projection on any error and treat
// failures as non-fatal.
type ProjectionService interface {
	// ProjectSales returns a projection over the requested number of
	// future months, including recent actuals for context.
	ProjectSales(ctx context.Context, history []SalesPoint, months int) ([]ProjectionPoint, error)

	// AnalyzeBusiness returns a free-form strategy narrative for the
	// given snapshot.
	AnalyzeBusiness(ctx context.Context, snapshot BusinessSnapshot) (string, error)
}
