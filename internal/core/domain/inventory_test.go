package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
)

func TestInventoryItem_Validate(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.InventoryItem
		wantError bool
		errorMsg  string
	}{
		{
			name: "valid_item",
			item: &domain.InventoryItem{
				Name:      "Sustrato 5kg",
				Stock:     12,
				UnitCost:  decimal.NewFromInt(4000),
				SellPrice: decimal.NewFromInt(9990),
				Category:  domain.CategorySubstrate,
			},
		},
		{
			name:      "missing_name",
			item:      &domain.InventoryItem{Stock: 1},
			wantError: true,
			errorMsg:  "item name is required",
		},
		{
			name:      "negative_stock",
			item:      &domain.InventoryItem{Name: "Kit", Stock: -1},
			wantError: true,
			errorMsg:  "stock cannot be negative",
		},
		{
			name: "negative_cost",
			item: &domain.InventoryItem{
				Name:     "Kit",
				UnitCost: decimal.NewFromInt(-1),
			},
			wantError: true,
			errorMsg:  "unit cost cannot be negative",
		},
		{
			name: "negative_sell_price",
			item: &domain.InventoryItem{
				Name:      "Kit",
				SellPrice: decimal.NewFromInt(-1),
			},
			wantError: true,
			errorMsg:  "sell price cannot be negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInventoryItem_Validate_DefaultsCategory(t *testing.T) {
	item := &domain.InventoryItem{Name: "Algo"}
	require.NoError(t, item.Validate())
	assert.Equal(t, domain.CategoryOther, item.Category)
}

func TestInventoryItem_UnitProfit(t *testing.T) {
	item := &domain.InventoryItem{
		Name:      "Kit cultivo",
		UnitCost:  decimal.NewFromInt(8000),
		SellPrice: decimal.NewFromInt(15000),
	}
	// 15000 - 8000*1.19
	assert.True(t, item.UnitProfit().Equal(decimal.NewFromInt(5480)),
		"got %s", item.UnitProfit())
}

func TestInventoryItem_StockValue(t *testing.T) {
	item := &domain.InventoryItem{
		Name:      "Sustrato",
		Stock:     4,
		SellPrice: decimal.NewFromInt(9990),
	}
	assert.True(t, item.StockValue().Equal(decimal.NewFromInt(39960)))
}
