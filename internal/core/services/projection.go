// internal/core/services/projection.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// Cycling growth factors for the deterministic fallback projection.
var fallbackGrowth = []decimal.Decimal{
	decimal.NewFromFloat(1.10),
	decimal.NewFromFloat(1.20),
	decimal.NewFromFloat(1.15),
}

// Projector wraps the AI projection backend with a deterministic local
// fallback. The AI is never authoritative: any backend failure degrades
// to the fallback and is logged, never propagated to the caller.
type Projector struct {
	ai     ports.ProjectionService
	logger *slog.Logger
}

// NewProjector creates a projector on top of the given AI backend, which
// may be nil to run purely deterministic.
func NewProjector(ai ports.ProjectionService, logger *slog.Logger) *Projector {
	return &Projector{
		ai:     ai,
		logger: logger.With(slog.String("service", "projector")),
	}
}

// ProjectSales returns a months-long sales projection. It consults the AI
// backend first and falls back to fixed-growth extrapolation on failure.
func (p *Projector) ProjectSales(ctx context.Context, history []ports.SalesPoint, months int) []ports.ProjectionPoint {
	if months < 1 {
		months = 1
	}

	if p.ai != nil {
		points, err := p.ai.ProjectSales(ctx, history, months)
		if err == nil && len(points) > 0 {
			return points
		}
		if err != nil {
			p.logger.WarnContext(ctx, "AI projection failed, using deterministic fallback",
				slog.String("error", err.Error()))
		}
	}

	return FallbackProjection(history, months)
}

// FallbackProjection extrapolates the last known monthly total by fixed
// growth percentages per period. It echoes up to three trailing actuals
// for chart context, mirroring what the AI backend returns.
func FallbackProjection(history []ports.SalesPoint, months int) []ports.ProjectionPoint {
	base := decimal.Zero
	if n := len(history); n > 0 {
		base = history[n-1].Total
	}

	points := make([]ports.ProjectionPoint, 0, months+3)

	tail := history
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	for _, h := range tail {
		actual := h.Total
		points = append(points, ports.ProjectionPoint{
			Label:     h.Date.UTC().Format("Jan 2006"),
			Actual:    &actual,
			Projected: h.Total,
		})
	}

	for i := 0; i < months; i++ {
		base = base.Mul(fallbackGrowth[i%len(fallbackGrowth)]).Round(0)
		points = append(points, ports.ProjectionPoint{
			Label:     fmt.Sprintf("MES+%d", i+1),
			Projected: base,
		})
	}
	return points
}

// AnalyzeBusiness returns a strategy narrative for the snapshot. On AI
// failure it degrades to a deterministic plain-text summary.
func (p *Projector) AnalyzeBusiness(ctx context.Context, snapshot ports.BusinessSnapshot) string {
	if p.ai != nil {
		report, err := p.ai.AnalyzeBusiness(ctx, snapshot)
		if err == nil && report != "" {
			return report
		}
		if err != nil {
			p.logger.WarnContext(ctx, "AI analysis failed, using deterministic summary",
				slog.String("error", err.Error()))
		}
	}
	return deterministicSummary(snapshot)
}

func deterministicSummary(snapshot ports.BusinessSnapshot) string {
	salesTotal := decimal.Zero
	for _, s := range snapshot.Sales {
		salesTotal = salesTotal.Add(s.Total)
	}
	purchasesTotal := decimal.Zero
	for _, pu := range snapshot.Purchases {
		purchasesTotal = purchasesTotal.Add(pu.Total)
	}
	profit, margin := ProfitAndMargin(salesTotal, purchasesTotal)

	var lowStock []string
	for _, item := range snapshot.Inventory {
		if item.Stock <= 2 {
			lowStock = append(lowStock, item.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Resumen operacional (generado localmente):\n")
	fmt.Fprintf(&b, "- Ventas acumuladas: $%s\n", salesTotal.StringFixed(0))
	fmt.Fprintf(&b, "- Compras acumuladas: $%s\n", purchasesTotal.StringFixed(0))
	fmt.Fprintf(&b, "- Utilidad: $%s (margen %s%%)\n", profit.StringFixed(0), margin.StringFixed(1))
	if len(lowStock) > 0 {
		fmt.Fprintf(&b, "- Productos con stock crítico: %s\n", strings.Join(lowStock, ", "))
	} else {
		fmt.Fprintf(&b, "- Sin productos con stock crítico\n")
	}
	return b.String()
}
