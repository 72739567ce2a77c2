// internal/handlers/dashboard.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	redis_a "github.com/fungusmycelium/gestion-be/internal/adapters/redis_adapter"
	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
)

// DashboardHandler serves the aggregated business stats and the sales
// projection.
type DashboardHandler struct {
	documents ports.DocumentRepository
	inventory ports.InventoryRepository
	projector *services.Projector
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler.
func NewDashboardHandler(
	documents ports.DocumentRepository,
	inventory ports.InventoryRepository,
	projector *services.Projector,
	cache ports.CacheRepository,
	logger *slog.Logger,
) *DashboardHandler {
	return &DashboardHandler{
		documents: documents,
		inventory: inventory,
		projector: projector,
		cache:     cache,
		logger:    logger.With(slog.String("handler", "dashboard")),
	}
}

// DashboardData is the cached dashboard response.
type DashboardData struct {
	Month         string                 `json:"month"`
	Sales         services.ReportTotals  `json:"sales"`
	Purchases     services.ReportTotals  `json:"purchases"`
	Profit        decimal.Decimal        `json:"profit"`
	MarginPercent decimal.Decimal        `json:"margin_percent"`
	SalesToday    decimal.Decimal        `json:"sales_today"`
	VAT           services.VATSummary    `json:"vat"`
	TopItem       *services.TopItem      `json:"top_item,omitempty"`
	Inventory     DashboardInventoryData `json:"inventory"`
	Timestamp     time.Time              `json:"timestamp"`
}

// DashboardInventoryData summarizes the catalog position.
type DashboardInventoryData struct {
	ItemCount       int             `json:"item_count"`
	Valuation       decimal.Decimal `json:"valuation"`
	PotentialProfit decimal.Decimal `json:"potential_profit"`
	LowStock        []string        `json:"low_stock,omitempty"`
}

// GetDashboard handles GET /api/v1/dashboard.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixDashboard, "main")
	var dashboard DashboardData

	err := h.cache.GetOrSet(ctx, cacheKey, &dashboard, func() (interface{}, error) {
		return h.loadDashboardData(ctx)
	}, 5*time.Minute)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load dashboard",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to load dashboard")
		return
	}

	respondJSON(w, http.StatusOK, dashboard)
}

// ProjectionResponse is the projection endpoint payload.
type ProjectionResponse struct {
	Months int                     `json:"months"`
	Points []ports.ProjectionPoint `json:"points"`
}

// GetProjection handles GET /api/v1/dashboard/projection?period=N.
func (h *DashboardHandler) GetProjection(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	months := 3
	if period := r.URL.Query().Get("period"); period != "" {
		if p, err := strconv.Atoi(period); err == nil && p > 0 && p <= 12 {
			months = p
		}
	}

	cacheKey := redis_a.BuildKey(redis_a.PrefixProjection, strconv.Itoa(months))
	var projection ProjectionResponse

	err := h.cache.GetOrSet(ctx, cacheKey, &projection, func() (interface{}, error) {
		sales, err := h.loadDocuments(ctx, domain.KindSale)
		if err != nil {
			return nil, err
		}
		history := monthlySalesHistory(sales, 12)
		return &ProjectionResponse{
			Months: months,
			Points: h.projector.ProjectSales(ctx, history, months),
		}, nil
	}, 15*time.Minute)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build projection",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to build projection")
		return
	}

	respondJSON(w, http.StatusOK, projection)
}

func (h *DashboardHandler) loadDashboardData(ctx context.Context) (*DashboardData, error) {
	sales, err := h.loadDocuments(ctx, domain.KindSale)
	if err != nil {
		return nil, err
	}
	purchases, err := h.loadDocuments(ctx, domain.KindPurchase)
	if err != nil {
		return nil, err
	}

	items, _, err := h.inventory.List(ctx, ports.ListParams{Page: 1, PageSize: 1000})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	year, month := now.Year(), now.Month()

	salesAgg := services.MonthlyAggregate(sales, year, month)
	purchasesAgg := services.MonthlyAggregate(purchases, year, month)
	profit, margin := services.ProfitAndMargin(salesAgg.Gross, purchasesAgg.Gross)

	dashboard := &DashboardData{
		Month:         now.Format("2006-01"),
		Sales:         salesAgg,
		Purchases:     purchasesAgg,
		Profit:        profit,
		MarginPercent: margin,
		SalesToday:    services.DailyTotal(sales, now),
		VAT:           services.VATPosition(sales, purchases, year, month),
		Inventory: DashboardInventoryData{
			ItemCount:       len(items),
			Valuation:       services.InventoryValuation(items),
			PotentialProfit: services.PotentialProfit(items),
			LowStock:        lowStockNames(items),
		},
		Timestamp: now,
	}

	if top, ok := services.TopSellingItem(sales); ok {
		dashboard.TopItem = &top
	}

	return dashboard, nil
}

func (h *DashboardHandler) loadDocuments(ctx context.Context, kind domain.DocumentKind) ([]*domain.Document, error) {
	docs, _, err := h.documents.List(ctx, ports.DocumentFilter{
		Kind:     kind,
		Page:     1,
		PageSize: 1000,
	})
	return docs, err
}

// monthlySalesHistory buckets documents into calendar months and returns
// the last n months in ascending order.
func monthlySalesHistory(docs []*domain.Document, n int) []ports.SalesPoint {
	totals := make(map[time.Time]decimal.Decimal)
	for _, doc := range docs {
		u := doc.Date.UTC()
		key := time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
		totals[key] = totals[key].Add(doc.Total)
	}

	months := make([]time.Time, 0, len(totals))
	for m := range totals {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	if len(months) > n {
		months = months[len(months)-n:]
	}

	history := make([]ports.SalesPoint, 0, len(months))
	for _, m := range months {
		history = append(history, ports.SalesPoint{Date: m, Total: totals[m]})
	}
	return history
}

func lowStockNames(items []*domain.InventoryItem) []string {
	var names []string
	for _, item := range items {
		if item.Stock <= 2 {
			names = append(names, item.Name)
		}
	}
	return names
}
