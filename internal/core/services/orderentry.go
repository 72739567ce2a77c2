// internal/core/services/orderentry.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
)

// WizardStep identifies the current step of an order-entry flow.
type WizardStep int

const (
	StepParty WizardStep = iota + 1
	StepItems
	StepReview
)

func (s WizardStep) String() string {
	switch s {
	case StepParty:
		return "party"
	case StepItems:
		return "items"
	case StepReview:
		return "review"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// OrderEntry drives the linear three-step flow that creates a sale or a
// purchase: counterparty data, line items, review and confirm. Forward
// transitions are guarded; Back is unconditional and preserves entered
// state; Cancel discards the draft without side effects. Nothing is
// persisted until Confirm, which hands the whole draft to the
// DocumentFinalizer in one transactional unit of work.
type OrderEntry struct {
	kind      domain.DocumentKind
	step      WizardStep
	done      bool
	party     domain.Counterparty
	items     []domain.LineItem
	docType   domain.FiscalDocType
	docNumber string
	payment   domain.PaymentMethod
	orderNum  string
	finalizer ports.DocumentFinalizer
	logger    *slog.Logger
}

// NewOrderEntry starts a draft of the given kind at the party step.
func NewOrderEntry(kind domain.DocumentKind, finalizer ports.DocumentFinalizer, logger *slog.Logger) *OrderEntry {
	return &OrderEntry{
		kind:      kind,
		step:      StepParty,
		finalizer: finalizer,
		logger:    logger.With(slog.String("service", "order_entry"), slog.String("kind", string(kind))),
	}
}

// Step returns the current wizard step.
func (w *OrderEntry) Step() WizardStep { return w.step }

// Done reports whether the flow reached its terminal confirmed state.
func (w *OrderEntry) Done() bool { return w.done }

// OrderNumber is the correlative the finalizer assigned to the draft.
// Empty until Confirm succeeds.
func (w *OrderEntry) OrderNumber() string { return w.orderNum }

// SetParty replaces the draft counterparty.
func (w *OrderEntry) SetParty(cp domain.Counterparty) { w.party = cp }

// Party returns the current draft counterparty.
func (w *OrderEntry) Party() domain.Counterparty { return w.party }

// SetFiscalInfo records the fiscal document metadata of a purchase.
func (w *OrderEntry) SetFiscalInfo(docType domain.FiscalDocType, docNumber string, payment domain.PaymentMethod) {
	w.docType = docType
	w.docNumber = docNumber
	w.payment = payment
}

// AddItem appends a draft line.
func (w *OrderEntry) AddItem(item domain.LineItem) {
	w.items = append(w.items, item)
}

// SetItems replaces all draft lines.
func (w *OrderEntry) SetItems(items []domain.LineItem) {
	w.items = items
}

// RemoveItem drops the line at index i; out-of-range indexes are ignored.
func (w *OrderEntry) RemoveItem(i int) {
	if i < 0 || i >= len(w.items) {
		return
	}
	w.items = append(w.items[:i], w.items[i+1:]...)
}

// Items returns the current draft lines.
func (w *OrderEntry) Items() []domain.LineItem { return w.items }

// Total is the running gross total of the draft.
func (w *OrderEntry) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range w.items {
		total = total.Add(item.Extended())
	}
	return total
}

// Next advances one step if the current step's guard passes. On guard
// failure the wizard stays where it is and the ValidationError describes
// the offending field.
func (w *OrderEntry) Next() error {
	switch w.step {
	case StepParty:
		if err := w.validateParty(); err != nil {
			return err
		}
		w.step = StepItems
	case StepItems:
		if err := w.validateItems(); err != nil {
			return err
		}
		w.step = StepReview
	case StepReview:
		return domain.NewValidationError("step", "already at review; call Confirm")
	}
	return nil
}

// Back moves one step backwards without touching entered state. At the
// first step it is a no-op.
func (w *OrderEntry) Back() {
	if w.step > StepParty {
		w.step--
	}
}

// Cancel abandons the draft: all accumulated state is discarded and no
// persistence side effect occurs.
func (w *OrderEntry) Cancel() {
	w.party = domain.Counterparty{}
	w.items = nil
	w.docType = ""
	w.docNumber = ""
	w.payment = ""
	w.step = StepParty
	w.done = false
}

func (w *OrderEntry) validateParty() error {
	if err := w.party.Validate(); err != nil {
		return err
	}
	if w.kind == domain.KindPurchase && w.docNumber == "" {
		return domain.NewValidationError("doc_number", "fiscal document number is required")
	}
	return nil
}

func (w *OrderEntry) validateItems() error {
	if len(w.items) == 0 {
		return domain.NewValidationError("items", "at least one line item is required")
	}
	for i := range w.items {
		if err := w.items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// Confirm finalizes the draft from the review step: it assembles the
// document and hands it together with the counterparty to the finalizer,
// which persists everything or nothing. On error the wizard remains at
// review so the user can retry; on success it reaches its terminal state.
func (w *OrderEntry) Confirm(ctx context.Context) (*domain.Document, error) {
	if w.done {
		return nil, domain.NewValidationError("step", "order already confirmed")
	}
	if w.step != StepReview {
		return nil, domain.NewValidationError("step", "confirm is only valid at the review step")
	}

	// Re-run the guards: direct setters may have invalidated the draft
	// after the steps were passed.
	if err := w.validateParty(); err != nil {
		return nil, err
	}
	if err := w.validateItems(); err != nil {
		return nil, err
	}

	cp := w.party
	cp.PrepareForStorage()

	doc := &domain.Document{
		Kind:            w.kind,
		CounterpartyID:  cp.ID,
		CounterpartyRUT: cp.RUT,
		Counterparty:    cp.DisplayName(),
		DocType:         w.docType,
		DocNumber:       w.docNumber,
		PaymentMethod:   w.payment,
		Items:           w.items,
	}
	doc.PrepareForStorage()

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	if err := w.finalizer.FinalizeDocument(ctx, &cp, doc); err != nil {
		w.logger.ErrorContext(ctx, "failed to finalize document",
			slog.String("document_id", doc.ID.String()),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to finalize document: %w", err)
	}

	w.orderNum = doc.OrderNumber
	w.done = true
	w.logger.InfoContext(ctx, "document finalized",
		slog.String("order_number", w.orderNum),
		slog.String("document_id", doc.ID.String()),
		slog.String("total", doc.Total.String()),
		slog.Int("items", len(doc.Items)))

	return doc, nil
}
