// internal/core/domain/tax.go
package domain

import "github.com/shopspring/decimal"

// Chilean IVA. All stored unit prices are gross (tax inclusive); net and
// tax amounts are always derived, never stored.
var (
	// VATRate is the fixed value-added-tax rate (19%).
	VATRate = decimal.NewFromFloat(0.19)

	// vatDivisorNum/vatDivisorDen express the 1.19 gross divisor as an
	// exact ratio so decomposition never touches floating point.
	vatDivisorNum = decimal.NewFromInt(100)
	vatDivisorDen = decimal.NewFromInt(119)
)

// TaxBreakdown is the result of decomposing a gross amount.
type TaxBreakdown struct {
	Net decimal.Decimal `json:"net"`
	Tax decimal.Decimal `json:"tax"`
}

// DecomposeGross splits a tax-inclusive amount into net and tax portions.
// Net is gross/1.19 rounded half-away to the nearest peso; tax is the
// remainder, so Net+Tax always equals the input exactly.
func DecomposeGross(gross decimal.Decimal) TaxBreakdown {
	net := gross.Mul(vatDivisorNum).DivRound(vatDivisorDen, 0)
	return TaxBreakdown{
		Net: net,
		Tax: gross.Sub(net),
	}
}

// GrossUp converts a net amount to its tax-inclusive equivalent.
func GrossUp(net decimal.Decimal) decimal.Decimal {
	return net.Add(net.Mul(VATRate))
}

// PerUnitProfit is the margin on one unit: the gross sell price minus the
// grossed-up net acquisition cost.
func PerUnitProfit(sellPriceGross, costNet decimal.Decimal) decimal.Decimal {
	return sellPriceGross.Sub(GrossUp(costNet))
}
