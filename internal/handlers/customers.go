// internal/handlers/customers.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// CustomerHandler serves the counterparty directory: the customers of
// sales and the providers of purchases.
type CustomerHandler struct {
	repo   ports.CounterpartyRepository
	logger *slog.Logger
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(repo ports.CounterpartyRepository, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		repo:   repo,
		logger: logger.With(slog.String("handler", "customers")),
	}
}

// List handles GET /api/v1/customers.
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	params := ports.ListParams{Page: 1, PageSize: 50}
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

	customers, total, err := h.repo.List(ctx, params)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list counterparties",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to list customers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"customers": customers,
		"total":     total,
		"page":      params.Page,
		"page_size": params.PageSize,
	})
}

// Get handles GET /api/v1/customers/{id}. The id path value accepts
// either a UUID or a RUT.
func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	var cp *domain.Counterparty
	var err error
	if id, parseErr := uuid.Parse(idStr); parseErr == nil {
		cp, err = h.repo.FindByID(ctx, id)
	} else {
		cp, err = h.repo.FindByRUT(ctx, idStr)
	}

	if err != nil {
		respondError(w, http.StatusNotFound, "Customer not found")
		return
	}

	respondJSON(w, http.StatusOK, cp)
}

// Upsert handles POST and PUT /api/v1/customers. Profiles are keyed by
// RUT; posting an existing RUT refreshes the stored profile.
func (h *CustomerHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload CounterpartyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cp := payload.toDomain()
	if err := cp.Validate(); err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error": vErr.Message,
				"field": vErr.Field,
			})
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.repo.Upsert(ctx, &cp); err != nil {
		h.logger.ErrorContext(ctx, "failed to upsert counterparty",
			slog.String("rut", cp.RUT),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to save customer")
		return
	}

	h.logger.InfoContext(ctx, "counterparty saved",
		slog.String("rut", cp.RUT),
		slog.String("name", cp.DisplayName()))

	respondJSON(w, http.StatusOK, cp)
}

// Delete handles DELETE /api/v1/customers/{id}. Finalized documents keep
// their denormalized name and RUT.
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid customer ID format")
		return
	}

	if err := h.repo.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete counterparty",
			slog.String("customer_id", idStr),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to delete customer")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message":     "Customer deleted successfully",
		"customer_id": idStr,
	})
}

// ValidateRUT handles GET /api/v1/customers/validate-rut?rut=…. It never
// fails: the response carries validity and the canonical format.
func (h *CustomerHandler) ValidateRUT(w http.ResponseWriter, r *http.Request) {
	rut := r.URL.Query().Get("rut")
	if rut == "" {
		respondError(w, http.StatusBadRequest, "rut query parameter is required")
		return
	}

	valid := domain.ValidateRUT(rut)
	response := map[string]interface{}{
		"rut":   rut,
		"valid": valid,
	}
	if valid {
		response["formatted"] = domain.FormatRUT(rut)
	}

	respondJSON(w, http.StatusOK, response)
}
