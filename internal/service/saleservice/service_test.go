package saleservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bentahub/internal/domain"
	"bentahub/internal/pkg/logger"
	"bentahub/internal/service/saleservice"
)

// MockSaleRepository é uma implementação mock da interface SaleRepository.
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindAll(ctx context.Context, ownerID string) ([]domain.Sale, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Sale), args.Error(1)
}

// TestListSales_Passthrough verifica a listagem em ordem de data decrescente
// (a ordenação vem do repositório; o serviço não reordena).
func TestListSales_Passthrough(t *testing.T) {
	mockRepo := new(MockSaleRepository)
	svc := saleservice.NewService(mockRepo, logger.NewLogger("error"))

	ownerID := uuid.New().String()
	newer := domain.Sale{ID: uuid.New().String(), SaleDate: time.Now()}
	older := domain.Sale{ID: uuid.New().String(), SaleDate: time.Now().Add(-time.Hour)}
	mockRepo.On("FindAll", mock.Anything, ownerID).Return([]domain.Sale{newer, older}, nil).Once()

	sales, err := svc.ListSales(context.Background(), ownerID)

	assert.NoError(t, err)
	assert.Len(t, sales, 2)
	assert.Equal(t, newer.ID, sales[0].ID)
	mockRepo.AssertExpectations(t)
}

// TestSummary_Aggregation verifica receita total, contagens e produto mais vendido.
func TestSummary_Aggregation(t *testing.T) {
	mockRepo := new(MockSaleRepository)
	svc := saleservice.NewService(mockRepo, logger.NewLogger("error"))

	ownerID := uuid.New().String()
	cafeID := uuid.New().String()
	arrozID := uuid.New().String()

	sales := []domain.Sale{
		{
			ID: uuid.New().String(), TotalAmount: 30.00,
			Items: []domain.SaleItem{{ProductID: cafeID, Name: "Café 500g", Quantity: 3, Price: 10.00}},
		},
		{
			ID: uuid.New().String(), TotalAmount: 61.00,
			Items: []domain.SaleItem{
				{ProductID: arrozID, Name: "Arroz 5kg", Quantity: 2, Price: 25.50},
				{ProductID: cafeID, Name: "Café 500g", Quantity: 1, Price: 10.00},
			},
		},
	}
	mockRepo.On("FindAll", mock.Anything, ownerID).Return(sales, nil).Once()

	summary, err := svc.Summary(context.Background(), ownerID)

	assert.NoError(t, err)
	assert.Equal(t, 91.00, summary.TotalRevenue)
	assert.Equal(t, 2, summary.SaleCount)
	assert.Equal(t, 6, summary.ItemCount)
	assert.Equal(t, "Café 500g", summary.TopProductName)
	assert.Equal(t, 4, summary.TopProductQty)
}

// TestSummary_EmptyLedger verifica o resumo de uma conta sem vendas.
func TestSummary_EmptyLedger(t *testing.T) {
	mockRepo := new(MockSaleRepository)
	svc := saleservice.NewService(mockRepo, logger.NewLogger("error"))

	ownerID := uuid.New().String()
	mockRepo.On("FindAll", mock.Anything, ownerID).Return([]domain.Sale{}, nil).Once()

	summary, err := svc.Summary(context.Background(), ownerID)

	assert.NoError(t, err)
	assert.Zero(t, summary.TotalRevenue)
	assert.Zero(t, summary.SaleCount)
	assert.Empty(t, summary.TopProductName)
}
