package sale

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"bentahub/internal/domain"
	apperror "bentahub/internal/errors"
	"bentahub/internal/pkg/logger"
	"bentahub/internal/pkg/middleware"
)

// CheckoutService define o contrato que o Handler espera do coordenador de checkout.
type CheckoutService interface {
	ProcessSale(ctx context.Context, ownerID string, items []domain.CartItem) (domain.Sale, error)
}

// SaleService define o contrato de leitura do livro de vendas.
type SaleService interface {
	ListSales(ctx context.Context, ownerID string) ([]domain.Sale, error)
	Summary(ctx context.Context, ownerID string) (domain.SalesSummary, error)
}

// Handler agrupa os métodos de Handler de vendas.
type Handler struct {
	Checkout CheckoutService
	Sales    SaleService
	Logger   logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando os Services e o Logger.
func NewHandler(checkout CheckoutService, sales SaleService, log logger.Logger) *Handler {
	return &Handler{
		Checkout: checkout,
		Sales:    sales,
		Logger:   log,
	}
}

// handleServiceResponse processa erros de serviço e envia respostas padronizadas ao cliente.
func (h *Handler) handleServiceResponse(w http.ResponseWriter, r *http.Request, data interface{}, err error, successStatus int) {
	if err == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(successStatus)
		if data != nil {
			if jsonErr := json.NewEncoder(w).Encode(data); jsonErr != nil {
				h.Logger.Error("Falha ao codificar JSON de resposta", jsonErr)
			}
		}
		return
	}

	status, category, message := apperror.MapToHTTPStatus(err)

	if status >= 500 {
		h.Logger.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
	} else {
		h.Logger.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

// owner extrai a identidade da conta anexada pelo middleware de autenticação.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.GetUserClaimsFromContext(r.Context())
	if !ok {
		h.handleServiceResponse(w, r, nil, apperror.NewUnauthorizedError("Autorização necessária. Token não processado."), 0)
		return "", false
	}
	return claims.UserID, true
}

// CheckoutHandler lida com POST /v1/sales: o checkout do carrinho.
// O total e os preços enviados no corpo são informativos; a resposta traz a
// venda persistida com os valores autoritativos calculados no servidor.
// @Summary Processa o checkout do carrinho e registra a venda.
// @Success 201 {object} domain.Sale
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
func (h *Handler) CheckoutHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req domain.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	sale, err := h.Checkout.ProcessSale(r.Context(), ownerID, req.Items)
	h.handleServiceResponse(w, r, sale, err, http.StatusCreated)
}

// ListSalesHandler lida com GET /v1/sales.
// @Summary Lista as vendas da conta, da mais recente para a mais antiga.
// @Success 200 {array} domain.Sale
func (h *Handler) ListSalesHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	sales, err := h.Sales.ListSales(r.Context(), ownerID)
	h.handleServiceResponse(w, r, sales, err, http.StatusOK)
}

// SummaryHandler lida com GET /v1/sales/summary.
// @Summary Retorna o resumo agregado das vendas da conta.
// @Success 200 {object} domain.SalesSummary
func (h *Handler) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	summary, err := h.Sales.Summary(r.Context(), ownerID)
	h.handleServiceResponse(w, r, summary, err, http.StatusOK)
}
