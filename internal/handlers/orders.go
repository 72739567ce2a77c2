// internal/handlers/orders.go
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	redis_a "github.com/fungusmycelium/gestion-be/internal/adapters/redis_adapter"
	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
)

// OrderHandler serves one document flow (sales or purchases). The POST
// endpoint drives the full order-entry wizard server-side: party gate,
// item gate, review, confirm.
type OrderHandler struct {
	kind      domain.DocumentKind
	documents *services.DocumentService
	finalizer ports.DocumentFinalizer
	cache     ports.CacheRepository
	logger    *slog.Logger
}

// NewOrderHandler creates a handler for the given document kind.
func NewOrderHandler(
	kind domain.DocumentKind,
	documents *services.DocumentService,
	finalizer ports.DocumentFinalizer,
	cache ports.CacheRepository,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		kind:      kind,
		documents: documents,
		finalizer: finalizer,
		cache:     cache,
		logger:    logger.With(slog.String("handler", "orders"), slog.String("kind", string(kind))),
	}
}

// CreateOrderRequest is the full wizard payload of a new sale or purchase.
type CreateOrderRequest struct {
	Counterparty CounterpartyPayload `json:"counterparty"`
	DocType      string              `json:"doc_type,omitempty"`
	DocNumber    string              `json:"doc_number,omitempty"`
	Payment      string              `json:"payment_method,omitempty"`
	Items        []OrderItemPayload  `json:"items"`
}

// CounterpartyPayload carries the party step fields.
type CounterpartyPayload struct {
	RUT          string `json:"rut"`
	IsCompany    bool   `json:"is_company"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	BusinessName string `json:"business_name,omitempty"`
	BusinessGiro string `json:"business_giro,omitempty"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Commune      string `json:"commune,omitempty"`
	Region       string `json:"region"`
	Shipping     string `json:"shipping_method,omitempty"`
	BranchName   string `json:"branch_name,omitempty"`
}

// OrderItemPayload carries one line of the items step. Prices are gross;
// unit_cost is the net acquisition cost on purchase lines.
type OrderItemPayload struct {
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

func (p CounterpartyPayload) toDomain() domain.Counterparty {
	return domain.Counterparty{
		RUT:          p.RUT,
		IsCompany:    p.IsCompany,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		BusinessName: p.BusinessName,
		BusinessGiro: p.BusinessGiro,
		Email:        p.Email,
		Phone:        p.Phone,
		Address:      p.Address,
		Commune:      p.Commune,
		Region:       p.Region,
		Shipping:     domain.ShippingMethod(p.Shipping),
		BranchName:   p.BranchName,
	}
}

// Create handles POST /api/v1/{sales|purchases}. The request carries the
// whole draft; the wizard guards run in order and the first failing gate
// rejects the request without persisting anything.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	wizard := services.NewOrderEntry(h.kind, h.finalizer, h.logger)
	wizard.SetParty(req.Counterparty.toDomain())
	wizard.SetFiscalInfo(
		domain.FiscalDocType(req.DocType),
		req.DocNumber,
		domain.PaymentMethod(req.Payment),
	)

	// Party gate.
	if err := wizard.Next(); err != nil {
		h.respondGuardFailure(w, wizard, err)
		return
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.LineItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			UnitCost:  item.UnitCost,
		})
	}
	wizard.SetItems(items)

	// Item gate.
	if err := wizard.Next(); err != nil {
		h.respondGuardFailure(w, wizard, err)
		return
	}

	doc, err := wizard.Confirm(ctx)
	if err != nil {
		var vErr *domain.ValidationError
		if errors.As(err, &vErr) {
			h.respondGuardFailure(w, wizard, err)
			return
		}
		h.logger.ErrorContext(ctx, "failed to finalize order",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to finalize order")
		return
	}

	redis_a.InvalidateDocumentCaches(ctx, h.cache, h.logger)

	respondJSON(w, http.StatusCreated, doc)
}

func (h *OrderHandler) respondGuardFailure(w http.ResponseWriter, wizard *services.OrderEntry, err error) {
	var vErr *domain.ValidationError
	field := ""
	if errors.As(err, &vErr) {
		field = vErr.Field
	}
	respondJSON(w, http.StatusBadRequest, map[string]string{
		"error": err.Error(),
		"field": field,
		"step":  wizard.Step().String(),
	})
}

// List handles GET /api/v1/{sales|purchases}.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := h.parseFilter(r)

	cacheKey := redis_a.BuildKey(redis_a.PrefixDocuments, string(h.kind), filterCacheKey(filter))
	var result services.ListResult

	err := h.cache.GetOrSet(ctx, cacheKey, &result, func() (interface{}, error) {
		return h.documents.List(ctx, filter)
	}, 2*time.Minute)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list documents",
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Get handles GET /api/v1/{sales|purchases}/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetByID(ctx, id)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to get document",
			slog.String("document_id", idStr),
			slog.String("error", err.Error()))
		respondError(w, http.StatusNotFound, "Document not found")
		return
	}

	if doc.Kind != h.kind {
		respondError(w, http.StatusNotFound, "Document not found")
		return
	}

	respondJSON(w, http.StatusOK, doc)
}

// Delete handles DELETE /api/v1/{sales|purchases}/{id}.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idStr := r.PathValue("id")

	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid document ID format")
		return
	}

	doc, err := h.documents.GetByID(ctx, id)
	if err != nil || doc.Kind != h.kind {
		respondError(w, http.StatusNotFound, "Document not found")
		return
	}

	if err := h.documents.Delete(ctx, id); err != nil {
		h.logger.ErrorContext(ctx, "failed to delete document",
			slog.String("document_id", idStr),
			slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}

	redis_a.InvalidateDocumentCaches(ctx, h.cache, h.logger)

	respondJSON(w, http.StatusOK, map[string]string{
		"message":     "Document deleted successfully",
		"document_id": idStr,
	})
}

func (h *OrderHandler) parseFilter(r *http.Request) ports.DocumentFilter {
	filter := ports.DocumentFilter{
		Kind:     h.kind,
		Page:     1,
		PageSize: 50,
	}

	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		if p, err := strconv.Atoi(page); err == nil && p > 0 {
			filter.Page = p
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil && l > 0 {
			if l > 100 {
				l = 100
			}
			filter.PageSize = l
		}
	}

	filter.Counterparty = q.Get("counterparty")
	filter.Search = q.Get("search")

	if from := q.Get("date_from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			filter.DateFrom = &t
		}
	}
	if to := q.Get("date_to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			// Exclusive upper bound: include the whole named day.
			end := t.AddDate(0, 0, 1)
			filter.DateTo = &end
		}
	}

	return filter
}

func filterCacheKey(f ports.DocumentFilter) string {
	key := "p" + strconv.Itoa(f.Page) + "s" + strconv.Itoa(f.PageSize)
	if f.Counterparty != "" {
		key += "_cp_" + f.Counterparty
	}
	if f.Search != "" {
		key += "_q_" + f.Search
	}
	if f.DateFrom != nil {
		key += "_from_" + f.DateFrom.Format("20060102")
	}
	if f.DateTo != nil {
		key += "_to_" + f.DateTo.Format("20060102")
	}
	return key
}
