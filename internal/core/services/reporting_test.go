package services_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
)

func doc(kind domain.DocumentKind, date time.Time, items ...domain.LineItem) *domain.Document {
	d := &domain.Document{
		Kind:            kind,
		CounterpartyRUT: "12345678-5",
		Date:            date,
		Items:           items,
	}
	d.Total = d.TotalGross()
	return d
}

func line(name string, qty int, price int64) domain.LineItem {
	return domain.LineItem{Name: name, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}
}

func TestMonthlyAggregate(t *testing.T) {
	july := time.Date(2025, 7, 10, 15, 0, 0, 0, time.UTC)
	august := time.Date(2025, 8, 2, 9, 0, 0, 0, time.UTC)

	docs := []*domain.Document{
		doc(domain.KindSale, july, line("A", 2, 10000), line("B", 1, 5000)), // 25000
		doc(domain.KindSale, july.AddDate(0, 0, 5), line("A", 1, 11900)),    // 11900
		doc(domain.KindSale, august, line("A", 3, 10000)),                   // other month
	}

	got := services.MonthlyAggregate(docs, 2025, time.July)

	assert.Equal(t, 2, got.Count)
	assert.True(t, got.Gross.Equal(decimal.NewFromInt(36900)), "gross: %s", got.Gross)
	// Decomposition applies to the aggregate, not per document:
	// round(36900/1.19) = 31008
	assert.True(t, got.Net.Equal(decimal.NewFromInt(31008)), "net: %s", got.Net)
	assert.True(t, got.Tax.Equal(decimal.NewFromInt(5892)), "tax: %s", got.Tax)
	assert.True(t, got.Net.Add(got.Tax).Equal(got.Gross))
}

func TestMonthlyAggregate_UTCBoundary(t *testing.T) {
	// 2025-07-31 23:30 in Santiago winter time (UTC-4) is already August in UTC.
	santiago := time.FixedZone("CLT", -4*3600)
	boundary := time.Date(2025, 7, 31, 23, 30, 0, 0, santiago)

	docs := []*domain.Document{doc(domain.KindSale, boundary, line("A", 1, 1000))}

	assert.Equal(t, 0, services.MonthlyAggregate(docs, 2025, time.July).Count)
	assert.Equal(t, 1, services.MonthlyAggregate(docs, 2025, time.August).Count)
}

func TestDailyTotal(t *testing.T) {
	day := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)
	docs := []*domain.Document{
		doc(domain.KindSale, day.Add(9*time.Hour), line("A", 1, 4000)),
		doc(domain.KindSale, day.Add(20*time.Hour), line("A", 1, 6000)),
		doc(domain.KindSale, day.AddDate(0, 0, 1), line("A", 1, 99999)),
	}

	got := services.DailyTotal(docs, day)
	assert.True(t, got.Equal(decimal.NewFromInt(10000)), "got %s", got)
}

func TestProfitAndMargin(t *testing.T) {
	profit, margin := services.ProfitAndMargin(decimal.NewFromInt(100000), decimal.NewFromInt(60000))
	assert.True(t, profit.Equal(decimal.NewFromInt(40000)))
	assert.True(t, margin.Equal(decimal.NewFromInt(40)), "margin: %s", margin)
}

func TestProfitAndMargin_NoSales(t *testing.T) {
	profit, margin := services.ProfitAndMargin(decimal.Zero, decimal.NewFromInt(5000))
	assert.True(t, profit.Equal(decimal.NewFromInt(-5000)))
	assert.True(t, margin.IsZero())
}

func TestTopSellingItem(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	docs := []*domain.Document{
		doc(domain.KindSale, base, line("A", 3, 1000), line("B", 4, 1000)),
		doc(domain.KindSale, base, line("A", 5, 1000)),
	}

	top, ok := services.TopSellingItem(docs)
	require.True(t, ok)
	assert.Equal(t, "A", top.Name)
	assert.Equal(t, 8, top.Quantity)
}

func TestTopSellingItem_TieBreaksToFirstEncountered(t *testing.T) {
	base := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	docs := []*domain.Document{
		doc(domain.KindSale, base, line("B", 4, 1000)),
		doc(domain.KindSale, base, line("A", 4, 1000)),
	}

	top, ok := services.TopSellingItem(docs)
	require.True(t, ok)
	assert.Equal(t, "B", top.Name)
}

func TestTopSellingItem_Empty(t *testing.T) {
	_, ok := services.TopSellingItem(nil)
	assert.False(t, ok)
}

func TestVATPosition(t *testing.T) {
	july := time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC)
	sales := []*domain.Document{doc(domain.KindSale, july, line("A", 1, 119000))}
	purchases := []*domain.Document{doc(domain.KindPurchase, july, line("X", 1, 59500))}

	got := services.VATPosition(sales, purchases, 2025, time.July)

	assert.True(t, got.SalesTax.Equal(decimal.NewFromInt(19000)), "sales tax: %s", got.SalesTax)
	assert.True(t, got.PurchaseTax.Equal(decimal.NewFromInt(9500)), "purchase tax: %s", got.PurchaseTax)
	assert.True(t, got.NetPosition.Equal(decimal.NewFromInt(9500)))
}

func TestInventoryValuation(t *testing.T) {
	items := []*domain.InventoryItem{
		{Name: "A", Stock: 2, SellPrice: decimal.NewFromInt(10000)},
		{Name: "B", Stock: 5, SellPrice: decimal.NewFromInt(3000)},
	}
	got := services.InventoryValuation(items)
	assert.True(t, got.Equal(decimal.NewFromInt(35000)), "got %s", got)
}

func TestPotentialProfit(t *testing.T) {
	items := []*domain.InventoryItem{
		{Name: "A", Stock: 2, UnitCost: decimal.NewFromInt(1000), SellPrice: decimal.NewFromInt(2000)},
	}
	// per unit: 2000 - 1190 = 810; stock 2 -> 1620
	got := services.PotentialProfit(items)
	assert.True(t, got.Equal(decimal.NewFromInt(1620)), "got %s", got)
}
