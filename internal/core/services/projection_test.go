package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
	"github.com/fungusmycelium/gestion-be/test/helpers"
	"github.com/fungusmycelium/gestion-be/test/mocks"
)

func salesHistory() []ports.SalesPoint {
	return []ports.SalesPoint{
		{Date: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(80000)},
		{Date: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(90000)},
		{Date: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), Total: decimal.NewFromInt(100000)},
	}
}

func TestProjector_UsesAIResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mocks.NewMockProjectionService(ctrl)

	want := []ports.ProjectionPoint{{Label: "Aug 2025", Projected: decimal.NewFromInt(123000)}}
	ai.EXPECT().
		ProjectSales(gomock.Any(), gomock.Any(), 3).
		Return(want, nil)

	p := services.NewProjector(ai, helpers.TestLogger())
	got := p.ProjectSales(context.Background(), salesHistory(), 3)
	assert.Equal(t, want, got)
}

func TestProjector_FallsBackOnAIError(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mocks.NewMockProjectionService(ctrl)
	ai.EXPECT().
		ProjectSales(gomock.Any(), gomock.Any(), 2).
		Return(nil, errors.New("quota exceeded"))

	p := services.NewProjector(ai, helpers.TestLogger())
	got := p.ProjectSales(context.Background(), salesHistory(), 2)

	// 3 trailing actuals + 2 projected periods
	require.Len(t, got, 5)
	assert.Equal(t, "MES+1", got[3].Label)
	assert.True(t, got[3].Projected.Equal(decimal.NewFromInt(110000)), "got %s", got[3].Projected)
	assert.True(t, got[4].Projected.Equal(decimal.NewFromInt(132000)), "got %s", got[4].Projected)
}

func TestProjector_NilBackendIsDeterministic(t *testing.T) {
	p := services.NewProjector(nil, helpers.TestLogger())
	got := p.ProjectSales(context.Background(), salesHistory(), 1)

	require.Len(t, got, 4)
	require.NotNil(t, got[0].Actual)
	assert.True(t, got[0].Actual.Equal(decimal.NewFromInt(80000)))
	assert.True(t, got[3].Projected.Equal(decimal.NewFromInt(110000)))
}

func TestFallbackProjection_EmptyHistory(t *testing.T) {
	got := services.FallbackProjection(nil, 3)
	require.Len(t, got, 3)
	for _, pt := range got {
		assert.Nil(t, pt.Actual)
		assert.True(t, pt.Projected.IsZero())
	}
}

func TestProjector_AnalyzeBusinessFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mocks.NewMockProjectionService(ctrl)
	ai.EXPECT().
		AnalyzeBusiness(gomock.Any(), gomock.Any()).
		Return("", errors.New("timeout"))

	snapshot := ports.BusinessSnapshot{
		Sales:     salesHistory(),
		Purchases: []ports.SalesPoint{{Date: time.Now(), Total: decimal.NewFromInt(150000)}},
		Inventory: []ports.InventoryLine{
			{Name: "Kit cultivo", Stock: 1, SellPrice: decimal.NewFromInt(15000)},
			{Name: "Sustrato", Stock: 20, SellPrice: decimal.NewFromInt(9990)},
		},
	}

	p := services.NewProjector(ai, helpers.TestLogger())
	report := p.AnalyzeBusiness(context.Background(), snapshot)

	assert.Contains(t, report, "Ventas acumuladas: $270000")
	assert.Contains(t, report, "Compras acumuladas: $150000")
	assert.Contains(t, report, "Kit cultivo")
	assert.NotContains(t, report, "Sustrato,")
}

func TestProjector_AnalyzeBusinessUsesAIResult(t *testing.T) {
	ctrl := gomock.NewController(t)
	ai := mocks.NewMockProjectionService(ctrl)
	ai.EXPECT().
		AnalyzeBusiness(gomock.Any(), gomock.Any()).
		Return("## Estrategia\ntodo bien", nil)

	p := services.NewProjector(ai, helpers.TestLogger())
	report := p.AnalyzeBusiness(context.Background(), ports.BusinessSnapshot{})
	assert.Equal(t, "## Estrategia\ntodo bien", report)
}
