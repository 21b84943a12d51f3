package productservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bentahub/internal/domain"
	apperror "bentahub/internal/errors"
	"bentahub/internal/pkg/logger"
)

// ProductRepository define o contrato que o Serviço de Produto espera da
// camada de Persistência.
type ProductRepository interface {
	Save(ctx context.Context, product domain.Product) (domain.Product, error)
	FindByID(ctx context.Context, ownerID, id string) (domain.Product, error)
	FindAll(ctx context.Context, ownerID string, filter domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, product domain.Product) error
	Delete(ctx context.Context, ownerID, id string) error
	ApplyDelta(ctx context.Context, ownerID, id string, delta int) (domain.Product, error)
}

// Service implementa a lógica de negócio do catálogo/inventário.
type Service struct {
	repo   ProductRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Produto.
func NewService(repo ProductRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// CreateProduct valida e persiste um novo produto para o dono.
func (s *Service) CreateProduct(ctx context.Context, ownerID string, product domain.Product) (domain.Product, error) {
	if product.Name == "" {
		return domain.Product{}, apperror.NewValidationError("O nome do produto não pode ser vazio.")
	}
	if product.Price <= 0 {
		return domain.Product{}, apperror.NewValidationError("O preço do produto deve ser positivo.")
	}
	if product.Quantity < 0 {
		return domain.Product{}, apperror.NewValidationError("A quantidade inicial não pode ser negativa.")
	}

	product.ID = uuid.New().String()
	product.UserID = ownerID

	saved, err := s.repo.Save(ctx, product)
	if err != nil {
		s.logger.Error("Falha ao criar produto.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Produto criado.", map[string]interface{}{
		"product_id": saved.ID,
		"owner_id":   ownerID,
	})
	return saved, nil
}

// GetProductByID busca um produto do dono.
func (s *Service) GetProductByID(ctx context.Context, ownerID, id string) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError(fmt.Sprintf("ID de produto malformado: %q.", id))
	}
	return s.repo.FindByID(ctx, ownerID, id)
}

// ListProducts lista os produtos do dono.
func (s *Service) ListProducts(ctx context.Context, ownerID string, filter domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.FindAll(ctx, ownerID, filter)
}

// UpdateProduct aplica uma atualização parcial aos campos editáveis.
// Alterar quantity por aqui só é permitido para correção manual de cadastro;
// movimentos de estoque devem usar AddStock/ReduceStock (caminho atômico).
func (s *Service) UpdateProduct(ctx context.Context, ownerID, id string, update domain.ProductUpdate) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError(fmt.Sprintf("ID de produto malformado: %q.", id))
	}

	product, err := s.repo.FindByID(ctx, ownerID, id)
	if err != nil {
		return domain.Product{}, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return domain.Product{}, apperror.NewValidationError("O nome do produto não pode ser vazio.")
		}
		product.Name = *update.Name
	}
	if update.Price != nil {
		if *update.Price <= 0 {
			return domain.Product{}, apperror.NewValidationError("O preço do produto deve ser positivo.")
		}
		product.Price = *update.Price
	}
	if update.Quantity != nil {
		if *update.Quantity < 0 {
			return domain.Product{}, apperror.NewValidationError("A quantidade não pode ser negativa.")
		}
		product.Quantity = *update.Quantity
	}

	if err := s.repo.Update(ctx, product); err != nil {
		s.logger.Error("Falha ao atualizar produto.", err)
		return domain.Product{}, err
	}
	return product, nil
}

// DeleteProduct remove um produto do dono.
func (s *Service) DeleteProduct(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NewValidationError(fmt.Sprintf("ID de produto malformado: %q.", id))
	}
	return s.repo.Delete(ctx, ownerID, id)
}

// AddStock repõe estoque de um produto (delta positivo).
func (s *Service) AddStock(ctx context.Context, ownerID, id string, quantity int) (domain.Product, error) {
	return s.adjustStock(ctx, ownerID, id, quantity, quantity)
}

// ReduceStock dá baixa manual de estoque (delta negativo). Passa pelo MESMO
// decremento condicional atômico do checkout: nenhuma operação que reduz
// quantidade pode contornar esse caminho.
func (s *Service) ReduceStock(ctx context.Context, ownerID, id string, quantity int) (domain.Product, error) {
	return s.adjustStock(ctx, ownerID, id, quantity, -quantity)
}

func (s *Service) adjustStock(ctx context.Context, ownerID, id string, quantity, delta int) (domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Product{}, apperror.NewValidationError(fmt.Sprintf("ID de produto malformado: %q.", id))
	}
	if quantity <= 0 {
		return domain.Product{}, apperror.NewValidationError("A quantidade do ajuste deve ser positiva.")
	}

	product, err := s.repo.ApplyDelta(ctx, ownerID, id, delta)
	if err != nil {
		s.logger.Error("Falha ao ajustar estoque.", err)
		return domain.Product{}, err
	}

	s.logger.Info("Estoque ajustado.", map[string]interface{}{
		"product_id":   id,
		"delta":        delta,
		"new_quantity": product.Quantity,
	})
	return product, nil
}
