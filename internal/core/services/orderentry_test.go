package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
	"github.com/fungusmycelium/gestion-be/test/helpers"
	"github.com/fungusmycelium/gestion-be/test/mocks"
)

func validParty() domain.Counterparty {
	return domain.Counterparty{
		RUT:       "12345678-5",
		FirstName: "Carla",
		LastName:  "Muñoz",
		Email:     "carla@example.cl",
		Phone:     "+56911112222",
		Address:   "Los Aromos 55",
		Commune:   "Ñuñoa",
		Region:    "Metropolitana de Santiago",
	}
}

func advanceToReview(t *testing.T, w *services.OrderEntry) {
	t.Helper()
	w.SetParty(validParty())
	require.NoError(t, w.Next())
	w.AddItem(domain.LineItem{Name: "Kit cultivo", Quantity: 2, UnitPrice: decimal.NewFromInt(10000)})
	w.AddItem(domain.LineItem{Name: "Sustrato 5kg", Quantity: 1, UnitPrice: decimal.NewFromInt(5000)})
	require.NoError(t, w.Next())
	require.Equal(t, services.StepReview, w.Step())
}

func TestOrderEntry_PartyGuard(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.Counterparty)
		errorMsg string
	}{
		{
			name:     "empty_email_refused",
			mutate:   func(c *domain.Counterparty) { c.Email = "" },
			errorMsg: "email is required",
		},
		{
			name:     "invalid_rut_refused",
			mutate:   func(c *domain.Counterparty) { c.RUT = "12345678-0" },
			errorMsg: "RUT check digit is invalid",
		},
		{
			name:     "missing_region_refused",
			mutate:   func(c *domain.Counterparty) { c.Region = "" },
			errorMsg: "region is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := services.NewOrderEntry(domain.KindSale, nil, helpers.TestLogger())

			party := validParty()
			tt.mutate(&party)
			w.SetParty(party)

			err := w.Next()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
			assert.Equal(t, services.StepParty, w.Step(), "guard failure must not advance")

			var verr *domain.ValidationError
			assert.ErrorAs(t, err, &verr)

			// Correcting the field unblocks the transition.
			w.SetParty(validParty())
			assert.NoError(t, w.Next())
			assert.Equal(t, services.StepItems, w.Step())
		})
	}
}

func TestOrderEntry_ItemsGuard(t *testing.T) {
	w := services.NewOrderEntry(domain.KindSale, nil, helpers.TestLogger())
	w.SetParty(validParty())
	require.NoError(t, w.Next())

	err := w.Next()
	require.Error(t, err, "no items yet")
	assert.Contains(t, err.Error(), "at least one line item")

	w.AddItem(domain.LineItem{Name: "Kit", Quantity: 0, UnitPrice: decimal.NewFromInt(1000)})
	err = w.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quantity must be positive")
	assert.Equal(t, services.StepItems, w.Step())

	w.SetItems([]domain.LineItem{{Name: "Kit", Quantity: 1, UnitPrice: decimal.NewFromInt(1000)}})
	assert.NoError(t, w.Next())
	assert.Equal(t, services.StepReview, w.Step())
}

func TestOrderEntry_PurchaseRequiresDocNumber(t *testing.T) {
	w := services.NewOrderEntry(domain.KindPurchase, nil, helpers.TestLogger())
	w.SetParty(validParty())

	err := w.Next()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fiscal document number is required")

	w.SetFiscalInfo(domain.DocTypeFactura, "F-1042", domain.PaymentTransfer)
	assert.NoError(t, w.Next())
}

func TestOrderEntry_BackPreservesState(t *testing.T) {
	w := services.NewOrderEntry(domain.KindSale, nil, helpers.TestLogger())
	advanceToReview(t, w)

	w.Back()
	assert.Equal(t, services.StepItems, w.Step())
	w.Back()
	assert.Equal(t, services.StepParty, w.Step())
	w.Back()
	assert.Equal(t, services.StepParty, w.Step(), "back at first step is a no-op")

	assert.Equal(t, "Carla", w.Party().FirstName)
	assert.Len(t, w.Items(), 2)
	assert.True(t, w.Total().Equal(decimal.NewFromInt(25000)))
}

func TestOrderEntry_CancelDiscardsDraft(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizer := mocks.NewMockDocumentFinalizer(ctrl)
	// Cancel must not touch persistence at all: no expectations set.

	w := services.NewOrderEntry(domain.KindSale, finalizer, helpers.TestLogger())
	advanceToReview(t, w)

	w.Cancel()
	assert.Equal(t, services.StepParty, w.Step())
	assert.Empty(t, w.Items())
	assert.Empty(t, w.Party().RUT)
}

func TestOrderEntry_Confirm(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizer := mocks.NewMockDocumentFinalizer(ctrl)

	var saved *domain.Document
	finalizer.EXPECT().
		FinalizeDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cp *domain.Counterparty, doc *domain.Document) error {
			saved = doc
			assert.Equal(t, "12345678-5", cp.RUT)
			assert.Equal(t, "Carla Muñoz", doc.Counterparty)
			doc.OrderNumber = "COT-1000"
			return nil
		})

	w := services.NewOrderEntry(domain.KindSale, finalizer, helpers.TestLogger())
	advanceToReview(t, w)
	assert.Empty(t, w.OrderNumber(), "correlative is assigned at finalization, not before")

	doc, err := w.Confirm(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.True(t, w.Done())
	assert.Equal(t, "COT-1000", w.OrderNumber())
	assert.Equal(t, w.OrderNumber(), doc.OrderNumber)
	assert.True(t, doc.Total.Equal(decimal.NewFromInt(25000)), "total: %s", doc.Total)
	assert.Equal(t, domain.KindSale, doc.Kind)

	// Terminal state: a second confirm is refused.
	_, err = w.Confirm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already confirmed")
}

func TestOrderEntry_CorrelativesNeverCollide(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizer := mocks.NewMockDocumentFinalizer(ctrl)

	// The finalizer hands out sequence-backed numbers; drafts carry none
	// of their own, so two concurrent drafts cannot claim the same one.
	next := 1000
	finalizer.EXPECT().
		FinalizeDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, cp *domain.Counterparty, doc *domain.Document) error {
			assert.Empty(t, doc.OrderNumber, "draft must not pre-assign a correlative")
			doc.OrderNumber = fmt.Sprintf("COT-%04d", next)
			next++
			return nil
		}).
		Times(2)

	seen := make(map[string]bool)
	for i := 0; i < 2; i++ {
		w := services.NewOrderEntry(domain.KindSale, finalizer, helpers.TestLogger())
		advanceToReview(t, w)

		doc, err := w.Confirm(context.Background())
		require.NoError(t, err)
		require.NotEmpty(t, doc.OrderNumber)
		assert.False(t, seen[doc.OrderNumber], "correlative %s assigned twice", doc.OrderNumber)
		seen[doc.OrderNumber] = true
	}
}

func TestOrderEntry_ConfirmRefusedBeforeReview(t *testing.T) {
	w := services.NewOrderEntry(domain.KindSale, nil, helpers.TestLogger())
	_, err := w.Confirm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only valid at the review step")
}

func TestOrderEntry_ConfirmSurfacesFinalizerError(t *testing.T) {
	ctrl := gomock.NewController(t)
	finalizer := mocks.NewMockDocumentFinalizer(ctrl)
	finalizer.EXPECT().
		FinalizeDocument(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("connection reset"))

	w := services.NewOrderEntry(domain.KindSale, finalizer, helpers.TestLogger())
	advanceToReview(t, w)

	_, err := w.Confirm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")

	// The draft survives so the user can retry.
	assert.False(t, w.Done())
	assert.Equal(t, services.StepReview, w.Step())
	assert.Len(t, w.Items(), 2)
}
