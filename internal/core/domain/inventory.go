// internal/core/domain/inventory.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemCategory represents product categories in the catalog
type ItemCategory string

// Category constants
const (
	CategorySupplies  ItemCategory = "insumos"
	CategorySubstrate ItemCategory = "sustratos"
	CategoryCultures  ItemCategory = "cultivos"
	CategoryKits      ItemCategory = "kits"
	CategoryEquipment ItemCategory = "equipamiento"
	CategoryOther     ItemCategory = "otros"
)

// InventoryItem is a catalog product. Name is the matching key used when
// documents are finalized against inventory. UnitCost is net; SellPrice
// is gross (IVA inclusive).
type InventoryItem struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Stock     int             `json:"stock"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Category  ItemCategory    `json:"category"`
	ImageURL  string          `json:"image_url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at,omitempty"`
}

// Validate performs domain validation on the inventory item
func (i *InventoryItem) Validate() error {
	if i.Name == "" {
		return NewValidationError("name", "item name is required")
	}
	if i.Stock < 0 {
		return NewValidationError("stock", "stock cannot be negative")
	}
	if i.UnitCost.IsNegative() {
		return NewValidationError("unit_cost", "unit cost cannot be negative")
	}
	if i.SellPrice.IsNegative() {
		return NewValidationError("sell_price", "sell price cannot be negative")
	}
	if i.Category == "" {
		i.Category = CategoryOther
	}
	return nil
}

// UnitProfit is the margin on one unit at current prices.
func (i *InventoryItem) UnitProfit() decimal.Decimal {
	return PerUnitProfit(i.SellPrice, i.UnitCost)
}

// StockValue is the gross sell value of the stock on hand.
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.SellPrice.Mul(decimal.NewFromInt(int64(i.Stock)))
}

// PrepareForStorage prepares the item for database storage
func (i *InventoryItem) PrepareForStorage() {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}

	now := time.Now().UTC()
	if i.CreatedAt.IsZero() {
		i.CreatedAt = now
	}
	i.UpdatedAt = now

	if i.Category == "" {
		i.Category = CategoryOther
	}
}
