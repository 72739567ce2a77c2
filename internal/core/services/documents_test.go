package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/fungusmycelium/gestion-be/internal/core/domain"
	"github.com/fungusmycelium/gestion-be/internal/core/ports"
	"github.com/fungusmycelium/gestion-be/internal/core/services"
	"github.com/fungusmycelium/gestion-be/test/helpers"
	"github.com/fungusmycelium/gestion-be/test/mocks"
)

func TestDocumentService_GetByID(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(*mocks.MockDocumentRepository, uuid.UUID)
		wantErr   string
	}{
		{
			name: "returns_document_with_items",
			setupMock: func(repo *mocks.MockDocumentRepository, id uuid.UUID) {
				doc := helpers.CreateTestDocument(func(d *domain.Document) { d.ID = id })
				repo.EXPECT().FindByID(gomock.Any(), id).Return(doc, nil)
			},
		},
		{
			name: "missing_document_is_an_error",
			setupMock: func(repo *mocks.MockDocumentRepository, id uuid.UUID) {
				repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, nil)
			},
			wantErr: "document not found",
		},
		{
			name: "repository_failure_is_wrapped",
			setupMock: func(repo *mocks.MockDocumentRepository, id uuid.UUID) {
				repo.EXPECT().FindByID(gomock.Any(), id).Return(nil, errors.New("connection reset"))
			},
			wantErr: "failed to get document",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := mocks.NewMockDocumentRepository(ctrl)
			id := uuid.New()
			tt.setupMock(repo, id)

			svc := services.NewDocumentService(repo, helpers.TestLogger())
			doc, err := svc.GetByID(context.Background(), id)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, doc)
			assert.Equal(t, id, doc.ID)
			assert.Equal(t, "COT-0042", doc.OrderNumber)
		})
	}
}

func TestDocumentService_List_Pagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockDocumentRepository(ctrl)
	docs := helpers.CreateTestDocuments(3)

	// Zero page and page size are normalized before hitting the repository.
	repo.EXPECT().List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, filter ports.DocumentFilter) ([]*domain.Document, int64, error) {
			assert.Equal(t, 1, filter.Page)
			assert.Equal(t, 20, filter.PageSize)
			return docs, 43, nil
		})

	svc := services.NewDocumentService(repo, helpers.TestLogger())
	result, err := svc.List(context.Background(), ports.DocumentFilter{Kind: domain.KindSale})

	require.NoError(t, err)
	assert.Len(t, result.Documents, 3)
	assert.Equal(t, int64(43), result.TotalCount)
	// 43 rows at 20 per page round up to 3 pages.
	assert.Equal(t, 3, result.TotalPages)
	assert.Equal(t, 1, result.Page)
}

func TestDocumentService_List_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockDocumentRepository(ctrl)
	repo.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, int64(0), errors.New("timeout"))

	svc := services.NewDocumentService(repo, helpers.TestLogger())
	_, err := svc.List(context.Background(), ports.DocumentFilter{Page: 2, PageSize: 10})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list documents")
}

func TestDocumentService_Delete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockDocumentRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().Delete(gomock.Any(), id).Return(nil)

	svc := services.NewDocumentService(repo, helpers.TestLogger())
	require.NoError(t, svc.Delete(context.Background(), id))
}

func TestDocumentService_Delete_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockDocumentRepository(ctrl)
	id := uuid.New()
	repo.EXPECT().Delete(gomock.Any(), id).Return(errors.New("foreign key violation"))

	svc := services.NewDocumentService(repo, helpers.TestLogger())
	err := svc.Delete(context.Background(), id)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete document")
}
