// internal/handlers/inventory.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
)

// InventoryHandler serves the product catalog.
type InventoryHandler struct {
	catalog *services.CatalogService
	logger  *slog.Logger
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(catalog *services.CatalogService, logger *slog.Logger) *InventoryHandler {
	return &InventoryHandler{
		catalog: catalog,
		logger:  logger.With(slog.String("handler", "inventory")),
	}
}

// InventoryItemRequest is the create/update payload for a catalog item.
type InventoryItemRequest struct {
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Category  string          `json:"category,omitempty"`
	ImageURL  string          `json:"image_url,omitempty"`
}

func (r *InventoryItemRequest) toDomain() *domain.InventoryItem {
	item := &domain.InventoryItem{
		Name:      r.Name,
		Stock:     r.Stock,
		UnitCost:  r.UnitCost,
		SellPrice: r.SellPrice,
		Category:  domain.ItemCategory(r.Category),
		ImageURL:  r.ImageURL,
	}
	if item.Category == "" {
		item.Category = domain.CategoryOther
	}
	return item
}

// List handles GET /api/v1/inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := h.parseListParams(r)

	items, total, err := h.catalog.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list inventory items",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to list inventory items")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":     items,
		"total":     total,
		"page":      params.Page,
		"page_size": params.PageSize,
	})
}

// Get handles GET /api/v1/inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	item, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		respondError(w, http.StatusNotFound, "Inventory item not found")
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// Create handles POST /api/v1/inventory.
func (h *InventoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req InventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item := req.toDomain()
	if err := h.catalog.SaveItem(ctx, item); err != nil {
		h.respondSaveError(w, r, err, "Failed to create inventory item")
		return
	}

	h.logger.InfoContext(ctx, "inventory item created",
		slog.String("item_id", item.ID.String()),
		slog.String("name", item.Name))

	respondJSON(w, http.StatusCreated, item)
}

// Update handles PUT /api/v1/inventory/{id}.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	var req InventoryItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item := req.toDomain()
	if err := h.catalog.UpdateItem(ctx, id, item); err != nil {
		h.respondSaveError(w, r, err, "Failed to update inventory item")
		return
	}

	updated, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Inventory item updated successfully"})
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// AdjustStock handles POST /api/v1/inventory/{id}/adjust. The delta is
// signed; a drop below zero is refused.
func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.catalog.AdjustStock(ctx, id, req.Delta); err != nil {
		h.logger.WarnContext(ctx, "stock adjustment refused",
			slog.String("item_id", idStr),
			slog.Int("delta", req.Delta),
			slog.String("error", err.Error()))
		respondError(w, http.StatusConflict, "Stock adjustment refused")
		return
	}

	item, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		respondJSON(w, http.StatusOK, map[string]string{"message": "Stock adjusted"})
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// Delete handles DELETE /api/v1/inventory/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid inventory ID format")
		return
	}

	if err := h.catalog.DeleteItem(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete inventory item",
			slog.String("item_id", idStr),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to delete inventory item")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Inventory item deleted successfully",
		"item_id": idStr,
	})
}

func (h *InventoryHandler) respondSaveError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": vErr.Message,
			"field": vErr.Field,
		})
		return
	}

	h.logger.ErrorContext(r.Context(), "inventory write failed",
		slog.String("error", err.Error()))
	respondError(w, http.StatusInternalServerError, fallback)
}

func (h *InventoryHandler) parseListParams(r *http.Request) ports.ListParams {
	params := ports.ListParams{
		Page:      1,
		PageSize:  50,
		SortBy:    "name",
		SortOrder: "asc",
	}

	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			params.Page = p
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 && l <= 100 {
			params.PageSize = l
		}
	}

	params.Search = q.Get("search")
	params.Category = q.Get("category")

	if sortBy := q.Get("sort"); sortBy != "" {
		params.SortBy = sortBy
	}
	if order := q.Get("order"); order == "asc" || order == "desc" {
		params.SortOrder = order
	}

	return params
}
