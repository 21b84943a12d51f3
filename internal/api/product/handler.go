package product

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"bentahub/internal/domain"
	apperror "bentahub/internal/errors"
	"bentahub/internal/pkg/logger"
	"bentahub/internal/pkg/middleware"
)

// ProductService define o contrato que o Handler espera da camada de Serviço.
type ProductService interface {
	CreateProduct(ctx context.Context, ownerID string, product domain.Product) (domain.Product, error)
	GetProductByID(ctx context.Context, ownerID, id string) (domain.Product, error)
	ListProducts(ctx context.Context, ownerID string, filter domain.ProductFilter) ([]domain.Product, error)
	UpdateProduct(ctx context.Context, ownerID, id string, update domain.ProductUpdate) (domain.Product, error)
	DeleteProduct(ctx context.Context, ownerID, id string) error
	AddStock(ctx context.Context, ownerID, id string, quantity int) (domain.Product, error)
}

// Handler agrupa todos os métodos de Handler de produto.
type Handler struct {
	Service ProductService
	Logger  logger.Logger
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc ProductService, log logger.Logger) *Handler {
	return &Handler{
		Service: svc,
		Logger:  log,
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

// CreateProductHandler lida com POST /v1/products.
// @Summary Cadastra um novo produto no inventário da conta.
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var product domain.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	created, err := h.Service.CreateProduct(r.Context(), ownerID, product)
	h.handleServiceResponse(w, r, created, err, http.StatusCreated)
}

// ListProductsHandler lida com GET /v1/products.
// @Summary Lista os produtos da conta com filtro por nome e paginação.
// @Success 200 {array} domain.Product
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	filter := domain.ProductFilter{
		Page:  page,
		Limit: limit,
		Name:  query.Get("name"),
	}

	products, err := h.Service.ListProducts(r.Context(), ownerID, filter)
	h.handleServiceResponse(w, r, products, err, http.StatusOK)
}

// GetProductByIDHandler lida com GET /v1/products/{id}.
// @Summary Busca um produto da conta pelo ID.
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	product, err := h.Service.GetProductByID(r.Context(), ownerID, r.PathValue("id"))
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// UpdateProductHandler lida com PUT /v1/products/{id}.
// @Summary Atualiza campos de um produto da conta.
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var update domain.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	product, err := h.Service.UpdateProduct(r.Context(), ownerID, r.PathValue("id"), update)
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}

// DeleteProductHandler lida com DELETE /v1/products/{id}.
// @Summary Remove um produto da conta.
// @Success 200 {object} map[string]string
// @Failure 404 {object} domain.ErrorResponse
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	err := h.Service.DeleteProduct(r.Context(), ownerID, r.PathValue("id"))
	h.handleServiceResponse(w, r, map[string]string{"message": "Produto removido."}, err, http.StatusOK)
}

// AddStockHandler lida com PUT /v1/products/{id}/stock.
// @Summary Repõe estoque de um produto da conta.
// @Success 200 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse
func (h *Handler) AddStockHandler(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := h.owner(w, r)
	if !ok {
		return
	}

	var adjustment domain.StockAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&adjustment); err != nil {
		h.handleServiceResponse(w, r, nil, apperror.NewValidationError("Payload inválido. Verifique o formato JSON."), 0)
		return
	}

	product, err := h.Service.AddStock(r.Context(), ownerID, r.PathValue("id"), adjustment.Quantity)
	h.handleServiceResponse(w, r, product, err, http.StatusOK)
}
