// internal/core/services/reporting.go
package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
)

// Reporting aggregates are pure functions over document collections: the
// surrounding layer refetches and replaces its lists on every change
// notification, so the same input must always yield the same output with
// no state carried between calls. All calendar comparisons are UTC.

// ReportTotals is a gross/net/tax aggregate over a set of documents.
type ReportTotals struct {
	Gross decimal.Decimal `json:"gross"`
	Net   decimal.Decimal `json:"net"`
	Tax   decimal.Decimal `json:"tax"`
	Count int             `json:"count"`
}

// inMonth reports whether the document date falls in the given UTC
// calendar month.
func inMonth(d time.Time, year int, month time.Month) bool {
	u := d.UTC()
	return u.Year() == year && u.Month() == month
}

// MonthlyAggregate sums the documents of one calendar month and decomposes
// the aggregate gross, not each document, into net and tax.
func MonthlyAggregate(docs []*domain.Document, year int, month time.Month) ReportTotals {
	gross := decimal.Zero
	count := 0
	for _, doc := range docs {
		if !inMonth(doc.Date, year, month) {
			continue
		}
		gross = gross.Add(doc.Total)
		count++
	}

	bd := domain.DecomposeGross(gross)
	return ReportTotals{Gross: gross, Net: bd.Net, Tax: bd.Tax, Count: count}
}

// DailyTotal sums the gross of documents dated on the given UTC day.
func DailyTotal(docs []*domain.Document, day time.Time) decimal.Decimal {
	y, m, d := day.UTC().Date()
	total := decimal.Zero
	for _, doc := range docs {
		dy, dm, dd := doc.Date.UTC().Date()
		if dy == y && dm == m && dd == d {
			total = total.Add(doc.Total)
		}
	}
	return total
}

// ProfitAndMargin returns sales minus purchases and the margin as a
// percentage of sales (zero when there are no sales).
func ProfitAndMargin(salesGross, purchasesGross decimal.Decimal) (profit, marginPercent decimal.Decimal) {
	profit = salesGross.Sub(purchasesGross)
	if !salesGross.IsPositive() {
		return profit, decimal.Zero
	}
	marginPercent = profit.Div(salesGross).Mul(decimal.NewFromInt(100))
	return profit, marginPercent
}

// TopItem is the best selling product over a document set.
type TopItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// TopSellingItem groups line items by exact name and returns the name with
// the largest quantity sum. Ties resolve to the name encountered first in
// document order, which keeps the result deterministic for a given slice.
// The second return is false when there are no line items at all.
func TopSellingItem(docs []*domain.Document) (TopItem, bool) {
	totals := make(map[string]int)
	var order []string

	for _, doc := range docs {
		for _, item := range doc.Items {
			if _, seen := totals[item.Name]; !seen {
				order = append(order, item.Name)
			}
			totals[item.Name] += item.Quantity
		}
	}

	if len(order) == 0 {
		return TopItem{}, false
	}

	top := TopItem{Name: order[0], Quantity: totals[order[0]]}
	for _, name := range order[1:] {
		if totals[name] > top.Quantity {
			top = TopItem{Name: name, Quantity: totals[name]}
		}
	}
	return top, true
}

// VATSummary is the monthly IVA position: tax collected on sales (débito)
// minus tax paid on purchases (crédito). A positive net position is IVA
// owed to the tax authority.
type VATSummary struct {
	SalesTax    decimal.Decimal `json:"sales_tax"`
	PurchaseTax decimal.Decimal `json:"purchase_tax"`
	NetPosition decimal.Decimal `json:"net_position"`
}

// VATPosition computes the month's IVA summary from sales and purchases.
func VATPosition(sales, purchases []*domain.Document, year int, month time.Month) VATSummary {
	salesTax := MonthlyAggregate(sales, year, month).Tax
	purchaseTax := MonthlyAggregate(purchases, year, month).Tax
	return VATSummary{
		SalesTax:    salesTax,
		PurchaseTax: purchaseTax,
		NetPosition: salesTax.Sub(purchaseTax),
	}
}

// InventoryValuation is the gross sell value of all stock on hand.
func InventoryValuation(items []*domain.InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.StockValue())
	}
	return total
}

// PotentialProfit sums per-unit profit times stock across the catalog.
func PotentialProfit(items []*domain.InventoryItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.UnitProfit().Mul(decimal.NewFromInt(int64(item.Stock))))
	}
	return total
}
