// internal/workers/invoice_processor_test.go
package workers

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/test/helpers"
	"github.com/fungusmycelium/gestion-be/test/mocks"
)

func TestParseCLP(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain_amount_with_sign", "$ 12.500", "12500"},
		{"thousands_without_sign", "1.250.000", "1250000"},
		{"comma_fraction", "$ 1.500,50", "1500.5"},
		{"garbage_returns_zero", "abc", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseCLP(tt.input)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)),
				"parseCLP(%q) = %s, want %s", tt.input, got, tt.expected)
		})
	}
}

func TestParseInvoiceLines(t *testing.T) {
	lines := []string{
		"FACTURA ELECTRONICA N° 4512",
		"Proveedor Insumos del Sur SpA",
		"CANT DETALLE PRECIO TOTAL",
		"3 Sustrato estéril 5kg $ 4.500 $ 13.500",
		"1 Autoclave 18L $ 89.990",
		"Bolsas unicorn T4",
		"100 unidades $ 25.000",
		"NETO $ 128.490",
		"IVA 19% $ 24.413",
		"TOTAL $ 152.903",
	}

	parsed := parseInvoiceLines(lines)
	require.Len(t, parsed, 3)

	assert.Equal(t, "Sustrato estéril 5kg", parsed[0].description)
	assert.Equal(t, 3, parsed[0].quantity)
	assert.True(t, parsed[0].unitCost.Equal(decimal.NewFromInt(4500)))

	assert.Equal(t, "Autoclave 18L", parsed[1].description)
	assert.Equal(t, 1, parsed[1].quantity)
	assert.True(t, parsed[1].unitCost.Equal(decimal.NewFromInt(89990)))

	// Wrapped description: the buffered line joins the row that carries
	// the amounts, and a single amount with quantity > 1 is the total.
	assert.Equal(t, "Bolsas unicorn T4 unidades", parsed[2].description)
	assert.Equal(t, 100, parsed[2].quantity)
	assert.True(t, parsed[2].unitCost.Equal(decimal.NewFromInt(250)),
		"unit cost %s", parsed[2].unitCost)
}

func TestParseInvoiceLines_StopsAtFooter(t *testing.T) {
	lines := []string{
		"CANT DETALLE PRECIO",
		"2 Frascos de vidrio 1L $ 3.000 $ 6.000",
		"SUBTOTAL $ 6.000",
		"5 Esto no es un item $ 1.000",
	}

	parsed := parseInvoiceLines(lines)
	require.Len(t, parsed, 1)
	assert.Equal(t, "Frascos de vidrio 1L", parsed[0].description)
}

func TestCategorizeItem(t *testing.T) {
	tests := []struct {
		description string
		expected    domain.ItemCategory
	}{
		{"Sustrato estéril 5kg", domain.CategorySubstrate},
		{"Cultivo líquido ostra", domain.CategoryCultures},
		{"Kit de inoculación", domain.CategoryKits},
		{"Autoclave 18L", domain.CategoryEquipment},
		{"Bolsas unicorn T4", domain.CategorySupplies},
		{"Etiquetas adhesivas", domain.CategoryOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, categorizeItem(tt.description), tt.description)
	}
}

func TestInvoiceProcessor_IntakeLine(t *testing.T) {
	t.Run("restocks_existing_item_and_overwrites_cost", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		inventory := mocks.NewMockInventoryRepository(ctrl)
		db := mocks.NewMockDatabase(ctrl)
		p := NewInvoiceProcessor(inventory, db, helpers.TestLogger())

		existing := &domain.InventoryItem{
			Name:      "Sustrato estéril 5kg",
			Stock:     4,
			UnitCost:  decimal.NewFromInt(4000),
			SellPrice: decimal.NewFromInt(5950),
		}
		existing.PrepareForStorage()

		inventory.EXPECT().
			FindByName(gomock.Any(), "Sustrato estéril 5kg").
			Return(existing, nil)
		inventory.EXPECT().
			Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, item *domain.InventoryItem) error {
				assert.True(t, item.UnitCost.Equal(decimal.NewFromInt(4500)))
				// Sell price does not move on intake
				assert.True(t, item.SellPrice.Equal(decimal.NewFromInt(5950)))
				return nil
			})
		inventory.EXPECT().
			AdjustStock(gomock.Any(), existing.ID, 3).
			Return(nil)

		created, err := p.intakeLine(context.Background(), invoiceLine{
			description: "Sustrato estéril 5kg",
			quantity:    3,
			unitCost:    decimal.NewFromInt(4500),
		})
		require.NoError(t, err)
		assert.False(t, created)
	})

	t.Run("creates_missing_item_priced_at_default_margin", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		inventory := mocks.NewMockInventoryRepository(ctrl)
		db := mocks.NewMockDatabase(ctrl)
		p := NewInvoiceProcessor(inventory, db, helpers.TestLogger())

		inventory.EXPECT().
			FindByName(gomock.Any(), "Autoclave 18L").
			Return(nil, nil)
		inventory.EXPECT().
			Save(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, item *domain.InventoryItem) error {
				assert.Equal(t, 1, item.Stock)
				assert.Equal(t, domain.CategoryEquipment, item.Category)
				assert.True(t, item.SellPrice.Equal(domain.GrossUp(item.UnitCost)))
				return nil
			})

		created, err := p.intakeLine(context.Background(), invoiceLine{
			description: "Autoclave 18L",
			quantity:    1,
			unitCost:    decimal.NewFromInt(89990),
		})
		require.NoError(t, err)
		assert.True(t, created)
	})
}
