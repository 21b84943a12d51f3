package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"bentahub/internal/api/product"
	"bentahub/internal/api/sale"
	"bentahub/internal/pkg/cache"
	"bentahub/internal/pkg/middleware"
)

// RateLimitConfig agrupa os parâmetros do rate limiting global.
type RateLimitConfig struct {
	MaxRequests int
	Period      time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Recebe os Handlers já inicializados por injeção de dependências; toda rota
// de dados passa pelo middleware de autenticação (owner scoping).
func NewRouter(
	productHandler *product.Handler,
	saleHandler *sale.Handler,
	verifier middleware.TokenVerifier,
	cacheClient cache.Client,
	rateLimit RateLimitConfig,
) http.Handler {

	mux := http.NewServeMux()
	auth := middleware.NewAuthMiddleware(verifier)

	// --- 1. Rotas de Health Check e documentação (públicas) ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// --- 2. Rotas do Módulo de Produtos (v1) ---
	mux.HandleFunc("POST /v1/products", auth(productHandler.CreateProductHandler))
	mux.HandleFunc("GET /v1/products", auth(productHandler.ListProductsHandler))
	mux.HandleFunc("GET /v1/products/{id}", auth(productHandler.GetProductByIDHandler))
	mux.HandleFunc("PUT /v1/products/{id}", auth(productHandler.UpdateProductHandler))
	mux.HandleFunc("DELETE /v1/products/{id}", auth(productHandler.DeleteProductHandler))
	mux.HandleFunc("PUT /v1/products/{id}/stock", auth(productHandler.AddStockHandler))

	// --- 3. Rotas do Módulo de Vendas (v1) ---
	mux.HandleFunc("POST /v1/sales", auth(saleHandler.CheckoutHandler))
	mux.HandleFunc("GET /v1/sales", auth(saleHandler.ListSalesHandler))
	mux.HandleFunc("GET /v1/sales/summary", auth(saleHandler.SummaryHandler))

	// --- 4. Middlewares Globais ---
	return middleware.RateLimiter(cacheClient, rateLimit.MaxRequests, rateLimit.Period)(mux)
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
