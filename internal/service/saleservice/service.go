package saleservice

import (
	"context"

	"bentahub/internal/domain"
	"bentahub/internal/pkg/logger"
)

// SaleRepository define o contrato de leitura que o Serviço de Vendas espera
// do ledger.
type SaleRepository interface {
	FindAll(ctx context.Context, ownerID string) ([]domain.Sale, error)
}

// Service expõe as leituras do livro de vendas (histórico e relatório).
type Service struct {
	repo   SaleRepository
	logger logger.Logger
}

// NewService cria e retorna uma nova instância do Serviço de Vendas.
func NewService(repo SaleRepository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// ListSales retorna as vendas do dono, da mais recente para a mais antiga.
func (s *Service) ListSales(ctx context.Context, ownerID string) ([]domain.Sale, error) {
	return s.repo.FindAll(ctx, ownerID)
}

// Summary agrega o ledger do dono: receita total, contagem de vendas e de
// itens, e o produto mais vendido por quantidade.
func (s *Service) Summary(ctx context.Context, ownerID string) (domain.SalesSummary, error) {
	sales, err := s.repo.FindAll(ctx, ownerID)
	if err != nil {
		return domain.SalesSummary{}, err
	}

	summary := domain.SalesSummary{SaleCount: len(sales)}
	qtyByProduct := map[string]int{}
	nameByProduct := map[string]string{}

	for _, sale := range sales {
		summary.TotalRevenue += sale.TotalAmount
		for _, item := range sale.Items {
			summary.ItemCount += item.Quantity
			qtyByProduct[item.ProductID] += item.Quantity
			nameByProduct[item.ProductID] = item.Name
		}
	}

	for productID, qty := range qtyByProduct {
		if qty > summary.TopProductQty {
			summary.TopProductQty = qty
			summary.TopProductName = nameByProduct[productID]
		}
	}

	return summary, nil
}
