// internal/handlers/orders_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
	"github.com/fungusmycelium/gestion-be/internal/handlers"
	"github.com/fungusmycelium/gestion-be/test/helpers"
	"github.com/fungusmycelium/gestion-be/test/mocks"
)

func validCreateRequest() handlers.CreateOrderRequest {
	return handlers.CreateOrderRequest{
		Counterparty: handlers.CounterpartyPayload{
			RUT:       "12345678-5",
			FirstName: "María",
			LastName:  "González",
			Email:     "maria.gonzalez@example.cl",
			Phone:     "+56911112222",
			Address:   "Av. Providencia 1234",
			Region:    "Región Metropolitana",
		},
		Items: []handlers.OrderItemPayload{
			{
				Name:      "Kit de cultivo ostra rosada",
				Quantity:  2,
				UnitPrice: decimal.NewFromInt(15000),
			},
		},
	}
}

func TestOrderHandler_Create(t *testing.T) {
	tests := []struct {
		name           string
		mutate         func(*handlers.CreateOrderRequest)
		setupMocks     func(*mocks.MockDocumentFinalizer, *mocks.MockCacheRepository)
		expectedStatus int
		validateBody   func(*testing.T, []byte)
	}{
		{
			name:   "finalizes_a_complete_draft",
			mutate: func(req *handlers.CreateOrderRequest) {},
			setupMocks: func(f *mocks.MockDocumentFinalizer, c *mocks.MockCacheRepository) {
				f.EXPECT().
					FinalizeDocument(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, cp *domain.Counterparty, doc *domain.Document) error {
						assert.Equal(t, "12345678-5", cp.RUT)
						assert.Equal(t, domain.KindSale, doc.Kind)
						assert.True(t, doc.Total.Equal(decimal.NewFromInt(30000)))
						doc.OrderNumber = "COT-1042"
						return nil
					})
				// Dashboard, projection, analysis and document caches drop
				c.EXPECT().
					DeletePattern(gomock.Any(), gomock.Any()).
					Times(4).
					Return(nil)
			},
			expectedStatus: http.StatusCreated,
			validateBody: func(t *testing.T, body []byte) {
				var doc domain.Document
				require.NoError(t, json.Unmarshal(body, &doc))
				assert.Equal(t, "COT-1042", doc.OrderNumber)
				assert.Len(t, doc.Items, 1)
			},
		},
		{
			name: "party_gate_rejects_invalid_rut",
			mutate: func(req *handlers.CreateOrderRequest) {
				req.Counterparty.RUT = "12345678-0"
			},
			setupMocks:     func(f *mocks.MockDocumentFinalizer, c *mocks.MockCacheRepository) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "rut", resp["field"])
				assert.Equal(t, "party", resp["step"])
			},
		},
		{
			name: "item_gate_rejects_empty_cart",
			mutate: func(req *handlers.CreateOrderRequest) {
				req.Items = nil
			},
			setupMocks:     func(f *mocks.MockDocumentFinalizer, c *mocks.MockCacheRepository) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "items", resp["field"])
				assert.Equal(t, "items", resp["step"])
			},
		},
		{
			name: "item_gate_rejects_nonpositive_price",
			mutate: func(req *handlers.CreateOrderRequest) {
				req.Items[0].UnitPrice = decimal.Zero
			},
			setupMocks:     func(f *mocks.MockDocumentFinalizer, c *mocks.MockCacheRepository) {},
			expectedStatus: http.StatusBadRequest,
			validateBody: func(t *testing.T, body []byte) {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "unit_price", resp["field"])
			},
		},
		{
			name:   "persistence_failure_maps_to_500",
			mutate: func(req *handlers.CreateOrderRequest) {},
			setupMocks: func(f *mocks.MockDocumentFinalizer, c *mocks.MockCacheRepository) {
				f.EXPECT().
					FinalizeDocument(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(errors.New("connection refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			validateBody: func(t *testing.T, body []byte) {
				var resp map[string]string
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Equal(t, "Failed to finalize order", resp["error"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			finalizer := mocks.NewMockDocumentFinalizer(ctrl)
			cache := mocks.NewMockCacheRepository(ctrl)
			repo := mocks.NewMockDocumentRepository(ctrl)
			logger := helpers.TestLogger()

			handler := handlers.NewOrderHandler(
				domain.KindSale,
				services.NewDocumentService(repo, logger),
				finalizer,
				cache,
				logger,
			)
			tt.setupMocks(finalizer, cache)

			reqBody := validCreateRequest()
			tt.mutate(&reqBody)
			body, err := json.Marshal(reqBody)
			require.NoError(t, err)

			req := httptest.NewRequest("POST", "/api/v1/sales", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.Create(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			tt.validateBody(t, w.Body.Bytes())
		})
	}
}

func TestOrderHandler_Get_KindMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockDocumentRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	finalizer := mocks.NewMockDocumentFinalizer(ctrl)
	logger := helpers.TestLogger()

	// A sale fetched through the purchases flow does not exist there.
	doc := helpers.CreateTestDocument()
	repo.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)

	handler := handlers.NewOrderHandler(
		domain.KindPurchase,
		services.NewDocumentService(repo, logger),
		finalizer,
		cache,
		logger,
	)

	req := httptest.NewRequest("GET", "/api/v1/purchases/"+doc.ID.String(), nil)
	req.SetPathValue("id", doc.ID.String())
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOrderHandler_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockDocumentRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	finalizer := mocks.NewMockDocumentFinalizer(ctrl)
	logger := helpers.TestLogger()

	doc := helpers.CreateTestDocument()
	repo.EXPECT().FindByID(gomock.Any(), doc.ID).Return(doc, nil)
	repo.EXPECT().Delete(gomock.Any(), doc.ID).Return(nil)
	cache.EXPECT().DeletePattern(gomock.Any(), gomock.Any()).Times(4).Return(nil)

	handler := handlers.NewOrderHandler(
		domain.KindSale,
		services.NewDocumentService(repo, logger),
		finalizer,
		cache,
		logger,
	)

	req := httptest.NewRequest("DELETE", "/api/v1/sales/"+doc.ID.String(), nil)
	req.SetPathValue("id", doc.ID.String())
	w := httptest.NewRecorder()

	handler.Delete(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestOrderHandler_Get_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockDocumentRepository(ctrl)
	cache := mocks.NewMockCacheRepository(ctrl)
	finalizer := mocks.NewMockDocumentFinalizer(ctrl)
	logger := helpers.TestLogger()

	handler := handlers.NewOrderHandler(
		domain.KindSale,
		services.NewDocumentService(repo, logger),
		finalizer,
		cache,
		logger,
	)

	req := httptest.NewRequest("GET", "/api/v1/sales/not-a-uuid", nil)
	req.SetPathValue("id", "not-a-uuid")
	w := httptest.NewRecorder()

	handler.Get(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
