// internal/handlers/analysis.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	redis_a "github.com/fungusmycelium/gestion-be/internal/adapters/redis_adapter"
	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
)

// AnalysisHandler serves the business strategy narrative. The projector
// degrades to a deterministic summary when no AI backend is available, so
// the endpoint always answers.
type AnalysisHandler struct {
	documents ports.DocumentRepository
	inventory ports.InventoryRepository
	projector *services.Projector
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(
	documents ports.DocumentRepository,
	inventory ports.InventoryRepository,
	projector *services.Projector,
	cache ports.CacheRepository,
	logger *slog.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		documents: documents,
		inventory: inventory,
		projector: projector,
		cache:     cache,
		logger:    logger.With(slog.String("handler", "analysis")),
	}
}

// AnalysisResponse carries the narrative and its generation time.
type AnalysisResponse struct {
	Analysis    string    `json:"analysis"`
	GeneratedAt time.Time `json:"generated_at"`
}

// GetAnalysis handles GET /api/v1/analysis.
func (h *AnalysisHandler) GetAnalysis(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cacheKey := redis_a.BuildKey(redis_a.PrefixAnalysis, "business")
	var response AnalysisResponse

	err := h.cache.GetOrSet(ctx, cacheKey, &response, func() (interface{}, error) {
		snapshot, err := h.buildSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		return &AnalysisResponse{
			Analysis:    h.projector.AnalyzeBusiness(ctx, *snapshot),
			GeneratedAt: time.Now().UTC(),
		}, nil
	}, 30*time.Minute)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build analysis",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to build analysis")
		return
	}

	respondJSON(w, http.StatusOK, response)
}

func (h *AnalysisHandler) buildSnapshot(ctx context.Context) (*ports.BusinessSnapshot, error) {
	sales, _, err := h.documents.List(ctx, ports.DocumentFilter{
		Kind: domain.KindSale, Page: 1, PageSize: 1000,
	})
	if err != nil {
		return nil, err
	}

	purchases, _, err := h.documents.List(ctx, ports.DocumentFilter{
		Kind: domain.KindPurchase, Page: 1, PageSize: 1000,
	})
	if err != nil {
		return nil, err
	}

	items, _, err := h.inventory.List(ctx, ports.ListParams{Page: 1, PageSize: 1000})
	if err != nil {
		return nil, err
	}

	snapshot := &ports.BusinessSnapshot{
		Sales:     monthlySalesHistory(sales, 12),
		Purchases: monthlySalesHistory(purchases, 12),
		Inventory: make([]ports.InventoryLine, 0, len(items)),
	}
	for _, item := range items {
		snapshot.Inventory = append(snapshot.Inventory, ports.InventoryLine{
			Name:      item.Name,
			Stock:     item.Stock,
			UnitCost:  item.UnitCost,
			SellPrice: item.SellPrice,
		})
	}

	return snapshot, nil
}
