package domain

import (
	"time"
)

// Product representa um item do inventário da loja (a Entidade central).
// Todo produto pertence a exatamente uma conta (UserID), isolamento multi-tenant:
// todas as leituras e escritas são restritas à conta solicitante.
type Product struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	Quantity  int       `json:"quantity"` // Nunca pode ficar negativo (invariante do estoque)
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductUpdate é o payload de atualização parcial de um produto.
// Campos nil significam "não alterar".
type ProductUpdate struct {
	Name     *string  `json:"name"`
	Price    *float64 `json:"price"`
	Quantity *int     `json:"quantity"`
}

// StockAdjustmentRequest é o payload esperado para a requisição de reposição
// ou baixa manual de estoque.
type StockAdjustmentRequest struct {
	Quantity int `json:"quantity"` // Quantidade a ser adicionada/removida (sempre positiva no payload)
}

// ProductFilter define os parâmetros de busca e paginação da listagem.
type ProductFilter struct {
	Page  int
	Limit int
	Name  string
}
