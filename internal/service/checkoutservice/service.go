package checkoutservice

import (
	"context"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bentahub/internal/domain"
	apperror "bentahub/internal/errors"
	"bentahub/internal/pkg/logger"
)

// Número máximo de tentativas de gravação quando o número de recibo colide
// com um já existente (1 chance em 10.000 por mês).
const maxReceiptAttempts = 3

// ProductRepository define o contrato que o checkout espera do Inventory Store.
type ProductRepository interface {
	FindByID(ctx context.Context, ownerID, id string) (domain.Product, error)
	ApplyDelta(ctx context.Context, ownerID, id string, delta int) (domain.Product, error)
}

// SaleRepository define o contrato que o checkout espera do livro de vendas.
type SaleRepository interface {
	Append(ctx context.Context, sale domain.Sale) (domain.Sale, error)
}

// ReceiptGenerator define o contrato do gerador de números de recibo.
type ReceiptGenerator interface {
	Generate(now time.Time) string
}

// Service é o coordenador da transação de checkout: valida o carrinho,
// decrementa o estoque e registra a venda como uma unidade lógica.
// O chamador só observa dois desfechos: a Venda persistida ou um erro com
// todos os efeitos parciais compensados, nunca um estado meio aplicado.
type Service struct {
	products ProductRepository
	sales    SaleRepository
	receipts ReceiptGenerator
	logger   logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Checkout.
func NewService(products ProductRepository, sales SaleRepository, receipts ReceiptGenerator, log logger.Logger) *Service {
	return &Service{
		products: products,
		sales:    sales,
		receipts: receipts,
		logger:   log,
	}
}

// pendingItem é uma linha do carrinho já agregada e com nome/preço capturados.
type pendingItem struct {
	productID string
	quantity  int
	name      string
	price     float64
}

// ProcessSale executa o checkout para o dono informado.
//
// Fases: Validating → Decrementing → Recording → Committed, com RollingBack
// quando qualquer passo posterior a um decremento falha. Os decrementos são
// sequenciais de propósito: uma falha precisa interromper os itens restantes
// antes que eles toquem o banco.
func (s *Service) ProcessSale(ctx context.Context, ownerID string, items []domain.CartItem) (domain.Sale, error) {
	s.logger.Debug("Iniciando checkout.", map[string]interface{}{
		"owner_id":   ownerID,
		"item_count": len(items),
	})

	// --- Validating: rejeitar entrada malformada antes de tocar o banco ---
	if err := validateCart(items); err != nil {
		return domain.Sale{}, err
	}

	// Linhas duplicadas do mesmo produto contam como a SOMA das quantidades
	// contra o estoque disponível, não como verificações independentes.
	pending := aggregate(items)

	// --- Resolução e snapshot: nome e preço são lidos AGORA e congelados ---
	// na venda, independente de edições posteriores do produto. Valores
	// enviados pelo cliente (name/price/total) são apenas informativos.
	for i := range pending {
		product, err := s.products.FindByID(ctx, ownerID, pending[i].productID)
		if err != nil {
			var notFound *apperror.NotFoundError
			if goerrors.As(err, &notFound) {
				s.logger.Info("Checkout rejeitado: produto inexistente.", map[string]interface{}{
					"owner_id":   ownerID,
					"product_id": pending[i].productID,
				})
				return domain.Sale{}, apperror.NewNotFoundError(fmt.Sprintf("Produto %s não encontrado.", pending[i].productID))
			}
			return domain.Sale{}, err
		}
		pending[i].name = product.Name
		pending[i].price = product.Price
	}

	// --- Decrementing: um decremento condicional atômico por item ---
	applied := make([]pendingItem, 0, len(pending))
	for _, item := range pending {
		if _, err := s.products.ApplyDelta(ctx, ownerID, item.productID, -item.quantity); err != nil {
			s.rollback(ctx, ownerID, applied)
			return domain.Sale{}, err
		}
		applied = append(applied, item)
	}

	// --- Recording: total calculado no servidor, recibo gerado, ledger ---
	sale := domain.Sale{
		ID:          uuid.New().String(),
		Items:       make([]domain.SaleItem, 0, len(pending)),
		TotalAmount: 0,
		SaleDate:    time.Now(),
		UserID:      ownerID,
	}
	for _, item := range pending {
		sale.Items = append(sale.Items, domain.SaleItem{
			ProductID: item.productID,
			Name:      item.name,
			Quantity:  item.quantity,
			Price:     item.price,
		})
		sale.TotalAmount += float64(item.quantity) * item.price
	}

	persisted, err := s.appendWithFreshReceipt(ctx, sale)
	if err != nil {
		// A venda não entrou no ledger: desfazer todos os decrementos para
		// não deixar estoque baixado sem venda correspondente.
		s.rollback(ctx, ownerID, applied)
		return domain.Sale{}, err
	}

	s.logger.Info("Checkout concluído.", map[string]interface{}{
		"owner_id":       ownerID,
		"sale_id":        persisted.ID,
		"receipt_number": persisted.ReceiptNumber,
		"total_amount":   persisted.TotalAmount,
	})
	return persisted, nil
}

// appendWithFreshReceipt grava a venda no ledger, trocando o número de recibo
// a cada colisão com o índice único. Qualquer outro erro aborta na hora.
func (s *Service) appendWithFreshReceipt(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	var lastErr error
	for attempt := 1; attempt <= maxReceiptAttempts; attempt++ {
		sale.ReceiptNumber = s.receipts.Generate(sale.SaleDate)

		persisted, err := s.sales.Append(ctx, sale)
		if err == nil {
			return persisted, nil
		}

		var conflict *apperror.ConflictError
		if !goerrors.As(err, &conflict) {
			return domain.Sale{}, err
		}

		s.logger.Warn("Recibo colidiu, gerando novo número.", map[string]interface{}{
			"receipt_number": sale.ReceiptNumber,
			"attempt":        attempt,
		})
		lastErr = err
	}
	return domain.Sale{}, apperror.NewInternalError("Esgotadas as tentativas de gerar número de recibo único.", lastErr)
}

// rollback aplica os incrementos compensatórios dos decrementos já feitos
// neste checkout. É melhor esforço: uma compensação que falha é registrada
// em log para reconciliação manual, mas não mascara o erro original.
func (s *Service) rollback(ctx context.Context, ownerID string, applied []pendingItem) {
	for _, item := range applied {
		if _, err := s.products.ApplyDelta(ctx, ownerID, item.productID, item.quantity); err != nil {
			s.logger.Error(fmt.Sprintf("Falha ao compensar decremento do produto %s (quantidade %d).", item.productID, item.quantity), err)
		}
	}
	if len(applied) > 0 {
		s.logger.Info("Decrementos do checkout compensados.", map[string]interface{}{
			"owner_id":   ownerID,
			"item_count": len(applied),
		})
	}
}

// validateCart aplica as pré-condições de entrada do checkout.
func validateCart(items []domain.CartItem) error {
	if len(items) == 0 {
		return apperror.NewValidationError("O carrinho não pode ser vazio.")
	}
	for _, item := range items {
		if _, err := uuid.Parse(item.ProductID); err != nil {
			return apperror.NewValidationError(fmt.Sprintf("ID de produto malformado: %q.", item.ProductID))
		}
		if item.Quantity <= 0 {
			return apperror.NewValidationError(fmt.Sprintf("Quantidade inválida (%d) para o produto %s.", item.Quantity, item.ProductID))
		}
	}
	return nil
}

// aggregate soma as quantidades de linhas repetidas do mesmo produto,
// preservando a ordem da primeira ocorrência no carrinho.
func aggregate(items []domain.CartItem) []pendingItem {
	index := map[string]int{}
	pending := []pendingItem{}
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			pending[i].quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(pending)
		pending = append(pending, pendingItem{
			productID: item.ProductID,
			quantity:  item.Quantity,
		})
	}
	return pending
}
