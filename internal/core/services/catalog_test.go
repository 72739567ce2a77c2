package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
	"github.com/fungusmycelium/gestion-be/test/helpers"
	"github.com/fungusmycelium/gestion-be/test/mocks"
)

func TestCatalogService_SaveItem(t *testing.T) {
	tests := []struct {
		name      string
		item      *domain.InventoryItem
		setupMock func(*mocks.MockInventoryRepository)
		wantErr   string
	}{
		{
			name: "saves_valid_item_and_assigns_id",
			item: &domain.InventoryItem{
				Name:      "Sustrato estéril 5kg",
				Stock:     12,
				UnitCost:  decimal.NewFromInt(4500),
				SellPrice: decimal.NewFromInt(5950),
				Category:  domain.CategorySubstrate,
			},
			setupMock: func(repo *mocks.MockInventoryRepository) {
				repo.EXPECT().Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.InventoryItem) error {
						assert.NotEqual(t, uuid.Nil, item.ID)
						assert.False(t, item.UpdatedAt.IsZero())
						return nil
					})
			},
		},
		{
			name: "empty_category_defaults_to_other",
			item: &domain.InventoryItem{
				Name:      "Etiquetas adhesivas",
				Stock:     100,
				SellPrice: decimal.NewFromInt(500),
			},
			setupMock: func(repo *mocks.MockInventoryRepository) {
				repo.EXPECT().Save(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, item *domain.InventoryItem) error {
						assert.Equal(t, domain.CategoryOther, item.Category)
						return nil
					})
			},
		},
		{
			name:      "nameless_item_refused",
			item:      &domain.InventoryItem{Stock: 5},
			setupMock: func(repo *mocks.MockInventoryRepository) {},
			wantErr:   "item name is required",
		},
		{
			name: "negative_stock_refused",
			item: &domain.InventoryItem{Name: "Guantes nitrilo", Stock: -1},
			setupMock: func(repo *mocks.MockInventoryRepository) {},
			wantErr:   "stock cannot be negative",
		},
		{
			name: "repository_failure_is_wrapped",
			item: &domain.InventoryItem{Name: "Frascos 500ml", Stock: 3},
			setupMock: func(repo *mocks.MockInventoryRepository) {
				repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("duplicate key"))
			},
			wantErr: "failed to save item",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockInventoryRepository(ctrl)
			tt.setupMock(repo)

			svc := services.NewCatalogService(repo, helpers.TestLogger())
			err := svc.SaveItem(context.Background(), tt.item)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCatalogService_UpdateItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockInventoryRepository(ctrl)
	id := uuid.New()
	item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) { i.ID = uuid.Nil })

	repo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, updated *domain.InventoryItem) error {
			// The path parameter wins over whatever id the body carries.
			assert.Equal(t, id, updated.ID)
			return nil
		})

	svc := services.NewCatalogService(repo, helpers.TestLogger())
	require.NoError(t, svc.UpdateItem(context.Background(), id, item))
}

func TestCatalogService_AdjustStock(t *testing.T) {
	tests := []struct {
		name      string
		delta     int
		setupMock func(*mocks.MockInventoryRepository, uuid.UUID)
		wantErr   string
	}{
		{
			name:  "restock_applies_delta",
			delta: 5,
			setupMock: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) { i.ID = id })
				repo.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
				repo.EXPECT().AdjustStock(gomock.Any(), id, 5).Return(nil)
			},
		},
		{
			name:  "correction_down_to_zero_is_allowed",
			delta: -10,
			setupMock: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) { i.ID = id })
				repo.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
				repo.EXPECT().AdjustStock(gomock.Any(), id, -10).Return(nil)
			},
		},
		{
			name:  "overdraw_refused",
			delta: -11,
			setupMock: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				item := helpers.CreateTestInventoryItem(func(i *domain.InventoryItem) { i.ID = id })
				repo.EXPECT().FindByID(gomock.Any(), id).Return(item, nil)
			},
			wantErr: "adjustment would make stock negative",
		},
		{
			name:  "unknown_item_refused",
			delta: 1,
			setupMock: func(repo *mocks.MockInventoryRepository, id uuid.UUID) {
				repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)
			},
			wantErr: "catalog item not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockInventoryRepository(ctrl)
			id := uuid.New()
			tt.setupMock(repo, id)

			svc := services.NewCatalogService(repo, helpers.TestLogger())
			err := svc.AdjustStock(context.Background(), id, tt.delta)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				if tt.wantErr == "adjustment would make stock negative" {
					var verr *domain.ValidationError
					assert.ErrorAs(t, err, &verr)
					assert.Equal(t, "stock", verr.Field)
				}
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCatalogService_List_DefaultsPageSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockInventoryRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.ListParams) ([]*domain.InventoryItem, int64, error) {
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 50, params.PageSize)
			return []*domain.InventoryItem{helpers.CreateTestInventoryItem()}, 1, nil
		})

	svc := services.NewCatalogService(repo, helpers.TestLogger())
	items, total, err := svc.List(context.Background(), ports.ListParams{})

	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(1), total)
}

func TestCatalogService_DeleteItem(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockInventoryRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().Exists(gomock.Any(), id).Return(true, nil)
	repo.EXPECT().Delete(gomock.Any(), id).Return(nil)

	svc := services.NewCatalogService(repo, helpers.TestLogger())
	require.NoError(t, svc.DeleteItem(context.Background(), id))
}

func TestCatalogService_DeleteItem_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockInventoryRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().Exists(gomock.Any(), id).Return(false, nil)

	svc := services.NewCatalogService(repo, helpers.TestLogger())
	err := svc.DeleteItem(context.Background(), id)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog item not found")
}
