package checkoutservice_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"bentahub/internal/domain"
	apperror "bentahub/internal/errors"
	"bentahub/internal/pkg/logger"
	"bentahub/internal/service/checkoutservice"
)

// MockProductRepository é uma implementação mock da interface ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, ownerID, id string) (domain.Product, error) {
	args := m.Called(ctx, ownerID, id)
	return args.Get(0).(domain.Product), args.Error(1)
}

func (m *MockProductRepository) ApplyDelta(ctx context.Context, ownerID, id string, delta int) (domain.Product, error) {
	args := m.Called(ctx, ownerID, id, delta)
	return args.Get(0).(domain.Product), args.Error(1)
}

// MockSaleRepository é uma implementação mock da interface SaleRepository.
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) Append(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	args := m.Called(ctx, sale)
	if args.Error(1) != nil {
		return domain.Sale{}, args.Error(1)
	}
	// Devolve a própria venda recebida, como o repositório real faz.
	return sale, nil
}

// stubReceipts devolve números de recibo pré-definidos, em sequência.
type stubReceipts struct {
	numbers []string
	calls   int
}

func (s *stubReceipts) Generate(now time.Time) string {
	n := s.numbers[s.calls%len(s.numbers)]
	s.calls++
	return n
}

func newService(products *MockProductRepository, sales *MockSaleRepository, receipts checkoutservice.ReceiptGenerator) *checkoutservice.Service {
	return checkoutservice.NewService(products, sales, receipts, logger.NewLogger("error"))
}

// TestProcessSale_Success testa o cenário base: P1 com 5 em estoque a 10.00,
// carrinho pede 3 → venda com total 30.00 e estoque decrementado para 2.
func TestProcessSale_Success(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0042"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productID := uuid.New().String()

	p1 := domain.Product{ID: productID, Name: "Café 500g", Price: 10.00, Quantity: 5, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productID).Return(p1, nil).Once()

	decremented := p1
	decremented.Quantity = 2
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, -3).Return(decremented, nil).Once()

	mockSales.On("Append", mock.Anything, mock.AnythingOfType("domain.Sale")).Return(domain.Sale{}, nil).Once()

	sale, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productID, Quantity: 3},
	})

	assert.NoError(t, err)
	assert.Equal(t, 30.00, sale.TotalAmount)
	assert.Equal(t, "RCP-2503-0042", sale.ReceiptNumber)
	assert.Equal(t, ownerID, sale.UserID)
	assert.NotZero(t, sale.SaleDate)
	assert.Len(t, sale.Items, 1)
	assert.Equal(t, "Café 500g", sale.Items[0].Name)
	assert.Equal(t, 3, sale.Items[0].Quantity)
	assert.Equal(t, 10.00, sale.Items[0].Price)
	mockProducts.AssertExpectations(t)
	mockSales.AssertExpectations(t)
}

// TestProcessSale_SnapshotIgnoresClientValues verifica que nome, preço e
// total enviados pelo cliente são ignorados em favor do registro do Produto.
func TestProcessSale_SnapshotIgnoresClientValues(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productID := uuid.New().String()

	p := domain.Product{ID: productID, Name: "Arroz 5kg", Price: 25.50, Quantity: 10, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productID).Return(p, nil).Once()
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, -2).Return(p, nil).Once()
	mockSales.On("Append", mock.Anything, mock.AnythingOfType("domain.Sale")).Return(domain.Sale{}, nil).Once()

	// Cliente tenta vender por 0.01 com outro nome
	sale, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productID, Quantity: 2, Name: "Barato", Price: 0.01},
	})

	assert.NoError(t, err)
	assert.Equal(t, 51.00, sale.TotalAmount)
	assert.Equal(t, "Arroz 5kg", sale.Items[0].Name)
	assert.Equal(t, 25.50, sale.Items[0].Price)
}

// TestProcessSale_Fail_InsufficientStock testa o segundo cenário: P1 com 2 em
// estoque, pedido de 3 → InsufficientStock e nenhuma venda criada.
func TestProcessSale_Fail_InsufficientStock(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productID := uuid.New().String()

	p1 := domain.Product{ID: productID, Name: "Café 500g", Price: 10.00, Quantity: 2, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productID).Return(p1, nil).Once()
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, -3).
		Return(domain.Product{}, apperror.NewInsufficientStockError(productID, "Produto Café 500g tem 2 em estoque, pedido de 3.")).Once()

	_, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productID, Quantity: 3},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	mockSales.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	mockProducts.AssertExpectations(t)
}

// TestProcessSale_RollbackOnLaterItemFailure verifica a compensação: o
// decremento já aplicado ao primeiro item é desfeito quando o segundo falha.
func TestProcessSale_RollbackOnLaterItemFailure(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productA := uuid.New().String()
	productB := uuid.New().String()

	pa := domain.Product{ID: productA, Name: "A", Price: 5.00, Quantity: 10, UserID: ownerID}
	pb := domain.Product{ID: productB, Name: "B", Price: 7.00, Quantity: 1, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productA).Return(pa, nil).Once()
	mockProducts.On("FindByID", mock.Anything, ownerID, productB).Return(pb, nil).Once()

	// Decremento de A passa, de B falha
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productA, -2).Return(pa, nil).Once()
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productB, -4).
		Return(domain.Product{}, apperror.NewInsufficientStockError(productB, "Produto B tem 1 em estoque, pedido de 4.")).Once()

	// Compensação esperada: incremento de A com a mesma quantidade
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productA, 2).Return(pa, nil).Once()

	_, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productA, Quantity: 2},
		{ProductID: productB, Quantity: 4},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	mockSales.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	mockProducts.AssertExpectations(t)
}

// TestProcessSale_Fail_ProductNotFound testa o terceiro cenário: um produto
// inexistente no carrinho impede QUALQUER mutação, inclusive dos itens que
// passariam sozinhos.
func TestProcessSale_Fail_ProductNotFound(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	existing := uuid.New().String()
	missing := uuid.New().String()

	p := domain.Product{ID: existing, Name: "A", Price: 5.00, Quantity: 10, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, existing).Return(p, nil).Once()
	mockProducts.On("FindByID", mock.Anything, ownerID, missing).
		Return(domain.Product{}, apperror.NewNotFoundError("Produto não existe.")).Once()

	_, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: existing, Quantity: 1},
		{ProductID: missing, Quantity: 1},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
	assert.Contains(t, err.Error(), missing)
	// Nenhum decremento pode ter acontecido
	mockProducts.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockSales.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
}

// TestProcessSale_DuplicateLinesAggregate verifica que duas linhas do mesmo
// produto são validadas pela SOMA: 3 + 3 contra estoque 5 falha, mesmo que
// cada linha individual passasse.
func TestProcessSale_DuplicateLinesAggregate(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productID := uuid.New().String()

	p := domain.Product{ID: productID, Name: "Café 500g", Price: 10.00, Quantity: 5, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productID).Return(p, nil).Once()
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, -6).
		Return(domain.Product{}, apperror.NewInsufficientStockError(productID, "Produto Café 500g tem 5 em estoque, pedido de 6.")).Once()

	_, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productID, Quantity: 3},
		{ProductID: productID, Quantity: 3},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	// Uma única resolução e um único decremento agregado
	mockProducts.AssertNumberOfCalls(t, "FindByID", 1)
	mockProducts.AssertNumberOfCalls(t, "ApplyDelta", 1)
}

// TestProcessSale_DuplicateLinesMerged verifica que no sucesso as linhas
// duplicadas viram UMA linha com a quantidade somada.
func TestProcessSale_DuplicateLinesMerged(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productID := uuid.New().String()

	p := domain.Product{ID: productID, Name: "Feijão 1kg", Price: 8.00, Quantity: 10, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productID).Return(p, nil).Once()
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, -3).Return(p, nil).Once()
	mockSales.On("Append", mock.Anything, mock.AnythingOfType("domain.Sale")).Return(domain.Sale{}, nil).Once()

	sale, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productID, Quantity: 1},
		{ProductID: productID, Quantity: 2},
	})

	assert.NoError(t, err)
	assert.Len(t, sale.Items, 1)
	assert.Equal(t, 3, sale.Items[0].Quantity)
	assert.Equal(t, 24.00, sale.TotalAmount)
}

// TestProcessSale_Fail_Validation cobre as rejeições ANTES de qualquer acesso
// ao banco: carrinho vazio, quantidade não positiva e id malformado.
func TestProcessSale_Fail_Validation(t *testing.T) {
	cases := []struct {
		name  string
		items []domain.CartItem
	}{
		{"carrinho vazio", []domain.CartItem{}},
		{"quantidade zero", []domain.CartItem{{ProductID: uuid.New().String(), Quantity: 0}}},
		{"quantidade negativa", []domain.CartItem{{ProductID: uuid.New().String(), Quantity: -2}}},
		{"id malformado", []domain.CartItem{{ProductID: "nao-e-uuid", Quantity: 1}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockProducts := new(MockProductRepository)
			mockSales := new(MockSaleRepository)
			receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
			svc := newService(mockProducts, mockSales, receipts)

			_, err := svc.ProcessSale(context.Background(), uuid.New().String(), tc.items)

			assert.Error(t, err)
			assert.IsType(t, &apperror.ValidationError{}, err)
			mockProducts.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything, mock.Anything)
			mockProducts.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			mockSales.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
		})
	}
}

// TestProcessSale_ReceiptCollisionRetries verifica que uma colisão de número
// de recibo gera nova tentativa com número fresco, sem falhar o checkout.
func TestProcessSale_ReceiptCollisionRetries(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-1111", "RCP-2503-2222"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productID := uuid.New().String()

	p := domain.Product{ID: productID, Name: "Açúcar", Price: 4.00, Quantity: 10, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productID).Return(p, nil).Once()
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, -1).Return(p, nil).Once()

	// Primeira gravação colide com o índice único, segunda passa
	mockSales.On("Append", mock.Anything, mock.AnythingOfType("domain.Sale")).
		Return(domain.Sale{}, apperror.NewConflictError("Número de recibo RCP-2503-1111 já existe.")).Once()
	mockSales.On("Append", mock.Anything, mock.AnythingOfType("domain.Sale")).
		Return(domain.Sale{}, nil).Once()

	sale, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productID, Quantity: 1},
	})

	assert.NoError(t, err)
	assert.Equal(t, "RCP-2503-2222", sale.ReceiptNumber)
	assert.Equal(t, 2, receipts.calls)
	mockSales.AssertNumberOfCalls(t, "Append", 2)
	mockProducts.AssertExpectations(t)
}

// TestProcessSale_RollbackOnLedgerFailure verifica que uma falha na gravação
// da venda (não colisão) compensa TODOS os decrementos: o chamador nunca
// observa estoque baixado sem venda registrada.
func TestProcessSale_RollbackOnLedgerFailure(t *testing.T) {
	mockProducts := new(MockProductRepository)
	mockSales := new(MockSaleRepository)
	receipts := &stubReceipts{numbers: []string{"RCP-2503-0001"}}
	svc := newService(mockProducts, mockSales, receipts)

	ownerID := uuid.New().String()
	productID := uuid.New().String()

	p := domain.Product{ID: productID, Name: "Leite", Price: 6.00, Quantity: 10, UserID: ownerID}
	mockProducts.On("FindByID", mock.Anything, ownerID, productID).Return(p, nil).Once()
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, -2).Return(p, nil).Once()

	mockSales.On("Append", mock.Anything, mock.AnythingOfType("domain.Sale")).
		Return(domain.Sale{}, apperror.NewDBError("Falha ao commitar transação", assert.AnError)).Once()

	// Compensação esperada após a falha do ledger
	mockProducts.On("ApplyDelta", mock.Anything, ownerID, productID, 2).Return(p, nil).Once()

	_, err := svc.ProcessSale(context.Background(), ownerID, []domain.CartItem{
		{ProductID: productID, Quantity: 2},
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InternalError{}, err)
	mockProducts.AssertExpectations(t)
	mockSales.AssertExpectations(t)
}
