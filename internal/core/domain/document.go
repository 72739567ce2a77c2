// internal/core/domain/document.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentKind distinguishes the two commercial document flows.
type DocumentKind string

const (
	KindSale     DocumentKind = "sale"
	KindPurchase DocumentKind = "purchase"
)

// DocumentStatus represents the lifecycle status of a document
type DocumentStatus string

const (
	StatusCompleted DocumentStatus = "completed"
	StatusPending   DocumentStatus = "pending"
	StatusCancelled DocumentStatus = "cancelled"
)

// FiscalDocType is the Chilean fiscal document class on purchases.
type FiscalDocType string

const (
	DocTypeFactura FiscalDocType = "factura"
	DocTypeBoleta  FiscalDocType = "boleta"
)

// PaymentMethod represents how a purchase was paid
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "efectivo"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentCard     PaymentMethod = "tarjeta"
)

// LineItem is one row of a sale or purchase document. Prices are gross
// (IVA inclusive); UnitCost is the net acquisition cost on purchases.
type LineItem struct {
	ID        uuid.UUID        `json:"id"`
	Name      string           `json:"name"`
	Quantity  int              `json:"quantity"`
	UnitPrice decimal.Decimal  `json:"unit_price"`
	UnitCost  *decimal.Decimal `json:"unit_cost,omitempty"`
}

// Extended returns quantity times unit price, exactly.
func (l LineItem) Extended() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Validate checks the line against the order-entry item gate.
func (l *LineItem) Validate() error {
	if l.Name == "" {
		return NewValidationError("name", "item name is required")
	}
	if l.Quantity <= 0 {
		return NewValidationError("quantity", "quantity must be positive")
	}
	if !l.UnitPrice.IsPositive() {
		return NewValidationError("unit_price", "unit price must be positive")
	}
	return nil
}

// Document is a finalized sale or purchase: a header plus an ordered list
// of line items. Total always equals the exact sum of extended line prices.
type Document struct {
	ID              uuid.UUID      `json:"id"`
	Kind            DocumentKind   `json:"kind"`
	OrderNumber     string         `json:"order_number"`
	CounterpartyID  uuid.UUID      `json:"counterparty_id"`
	CounterpartyRUT string         `json:"counterparty_rut"`
	Counterparty    string         `json:"counterparty_name"`
	DocType         FiscalDocType  `json:"doc_type,omitempty"`
	DocNumber       string         `json:"doc_number,omitempty"`
	PaymentMethod   PaymentMethod  `json:"payment_method,omitempty"`
	Date            time.Time      `json:"date"`
	Status          DocumentStatus `json:"status"`
	Items           []LineItem     `json:"items"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TotalGross sums the extended prices of all items.
func (d *Document) TotalGross() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.Items {
		total = total.Add(item.Extended())
	}
	return total
}

// Breakdown decomposes the document total into net and IVA portions.
func (d *Document) Breakdown() TaxBreakdown {
	return DecomposeGross(d.Total)
}

// Validate performs domain validation on the document.
func (d *Document) Validate() error {
	if d.Kind != KindSale && d.Kind != KindPurchase {
		return fmt.Errorf("unknown document kind: %q", d.Kind)
	}
	if d.CounterpartyRUT == "" {
		return NewValidationError("counterparty_rut", "counterparty RUT is required")
	}
	if len(d.Items) == 0 {
		return NewValidationError("items", "at least one line item is required")
	}
	for i := range d.Items {
		if err := d.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	if !d.Total.Equal(d.TotalGross()) {
		return fmt.Errorf("document total %s does not match line items total %s",
			d.Total, d.TotalGross())
	}
	return nil
}

// PrepareForStorage fills ids, timestamps and the derived total before the
// document is persisted.
func (d *Document) PrepareForStorage() {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	for i := range d.Items {
		if d.Items[i].ID == uuid.Nil {
			d.Items[i].ID = uuid.New()
		}
	}

	d.Total = d.TotalGross()
	d.CounterpartyRUT = FormatRUT(d.CounterpartyRUT)

	now := time.Now().UTC()
	if d.Date.IsZero() {
		d.Date = now
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	if d.Status == "" {
		d.Status = StatusCompleted
	}
}

// StockDelta returns the signed inventory mutation a finalized document
// applies for the given quantity: sales consume stock, purchases add it.
func (d *Document) StockDelta(quantity int) int {
	if d.Kind == KindSale {
		return -quantity
	}
	return quantity
}
