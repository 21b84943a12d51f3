package domain

import "time"

// SaleItem é a fotografia de uma linha do carrinho no momento da venda.
// Nome e preço são capturados do Produto na hora do checkout e nunca mais
// mudam, mesmo que o produto seja editado depois.
type SaleItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"` // Preço unitário no momento da venda
}

// Sale é um registro imutável do livro de vendas (ledger append-only).
// Uma vez criada pelo checkout, nunca é atualizada nem removida.
type Sale struct {
	ID            string     `json:"id"`
	ReceiptNumber string     `json:"receipt_number"` // Formato RCP-AAMM-NNNN
	Items         []SaleItem `json:"items"`
	TotalAmount   float64    `json:"total_amount"` // Sempre calculado no servidor: Σ quantidade × preço
	SaleDate      time.Time  `json:"sale_date"`
	UserID        string     `json:"user_id"`
}

// CartItem é um item do carrinho enviado pelo cliente no checkout.
// Name e Price são apenas informativos: o servidor SEMPRE rederiva os valores
// autoritativos a partir do registro do Produto.
type CartItem struct {
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Name      string  `json:"name,omitempty"`
	Price     float64 `json:"price,omitempty"`
}

// CheckoutRequest é o corpo da requisição POST /v1/sales.
// TotalAmount do cliente é ignorado no cálculo (nunca confiamos nele).
type CheckoutRequest struct {
	Items       []CartItem `json:"items"`
	TotalAmount float64    `json:"total_amount,omitempty"`
}

// SalesSummary agrega o livro de vendas para o relatório da conta.
type SalesSummary struct {
	TotalRevenue   float64 `json:"total_revenue"`
	SaleCount      int     `json:"sale_count"`
	ItemCount      int     `json:"item_count"`
	TopProductName string  `json:"top_product_name,omitempty"`
	TopProductQty  int     `json:"top_product_qty,omitempty"`
}
