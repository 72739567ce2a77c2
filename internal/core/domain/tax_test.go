package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
)

func TestDecomposeGross(t *testing.T) {
	tests := []struct {
		name    string
		gross   int64
		wantNet int64
		wantTax int64
	}{
		{name: "zero", gross: 0, wantNet: 0, wantTax: 0},
		{name: "one_peso", gross: 1, wantNet: 1, wantTax: 0},
		{name: "spec_fixture_25000", gross: 25000, wantNet: 21008, wantTax: 3992},
		{name: "round_number", gross: 11900, wantNet: 10000, wantTax: 1900},
		{name: "not_multiple_of_119", gross: 9990, wantNet: 8395, wantTax: 1595},
		{name: "large", gross: 123456789, wantNet: 103745201, wantTax: 19711588},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := domain.DecomposeGross(decimal.NewFromInt(tt.gross))
			assert.True(t, bd.Net.Equal(decimal.NewFromInt(tt.wantNet)),
				"net: want %d, got %s", tt.wantNet, bd.Net)
			assert.True(t, bd.Tax.Equal(decimal.NewFromInt(tt.wantTax)),
				"tax: want %d, got %s", tt.wantTax, bd.Tax)
		})
	}
}

// Net plus tax must reconstruct the gross amount exactly, for every input.
func TestDecomposeGross_RoundTrip(t *testing.T) {
	// Prime stride keeps the sweep cheap while still hitting every
	// residue class mod 119.
	for gross := int64(0); gross <= 10_000_000; gross += 7919 {
		g := decimal.NewFromInt(gross)
		bd := domain.DecomposeGross(g)
		assert.True(t, bd.Net.Add(bd.Tax).Equal(g),
			"net+tax != gross for %d (net=%s tax=%s)", gross, bd.Net, bd.Tax)
	}
}

func TestGrossUp(t *testing.T) {
	got := domain.GrossUp(decimal.NewFromInt(1000))
	assert.True(t, got.Equal(decimal.NewFromInt(1190)), "got %s", got)
}

func TestPerUnitProfit(t *testing.T) {
	tests := []struct {
		name      string
		sellGross int64
		costNet   int64
		want      int64
	}{
		{name: "typical_margin", sellGross: 15000, costNet: 8000, want: 5480},
		{name: "sold_at_grossed_cost", sellGross: 1190, costNet: 1000, want: 0},
		{name: "negative_margin", sellGross: 1000, costNet: 1000, want: -190},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.PerUnitProfit(decimal.NewFromInt(tt.sellGross), decimal.NewFromInt(tt.costNet))
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s", got)
		})
	}
}
