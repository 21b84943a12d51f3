package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// Pacotes de infraestrutura e utilitários
	"bentahub/config"
	"bentahub/internal/pkg/cache"
	"bentahub/internal/pkg/database"
	"bentahub/internal/pkg/logger"
	"bentahub/internal/pkg/receipt"
	"bentahub/internal/pkg/token"

	// Camadas da aplicação para Injeção de Dependências
	"bentahub/internal/api/product"
	"bentahub/internal/api/router"
	"bentahub/internal/api/sale"
	"bentahub/internal/repository/productrepo"
	"bentahub/internal/repository/salerepo"
	"bentahub/internal/service/checkoutservice"
	"bentahub/internal/service/productservice"
	"bentahub/internal/service/saleservice"
)

func main() {
	// 0. CARREGAR VARIÁVEIS DE AMBIENTE (.env)
	// Se o arquivo .env não for encontrado, seguimos em frente: as variáveis
	// essenciais podem estar no ambiente do sistema (ex: Docker).
	if err := godotenv.Load(); err != nil {
		stdlog.Println("⚠️ Aviso: Arquivo .env não encontrado ou erro de leitura. Carregando configs apenas do ambiente do sistema.")
	}

	// 1. Configuração e Inicialização
	cfg := config.LoadConfig()
	log := logger.NewLogger(cfg.LogLevel)
	log.Info("Configurações carregadas.", nil)

	// 2. Conexão com Recursos de Infraestrutura

	// A. Banco de Dados (PostgreSQL)
	db, err := database.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Falha ao conectar ao banco de dados.", err)
	}
	defer db.Close()
	log.Info("Conexão PostgreSQL estabelecida.", nil)

	// B. Cache (Redis)
	cacheClient := cache.NewRedisClient(cfg.RedisAddr)
	log.Info("Conexão Redis estabelecida.", nil)

	// C. Verificador de tokens do provedor de identidade externo.
	// Capability injetada explicitamente, sem singleton global de sessão.
	verifier := token.NewService(cfg.JWTSecretKey)
	log.Debug("Verificador de tokens inicializado.", nil)

	// 3. INJEÇÃO DE DEPENDÊNCIAS (Repository -> Service -> Handler)

	// A. Repositórios (Camada de Acesso a Dados)
	productRepo := productrepo.NewProductRepository(db, cacheClient, cfg.DBTimeout, log)
	saleRepo := salerepo.NewSaleRepository(db, cfg.DBTimeout, log)
	log.Debug("Repositórios inicializados.", nil)

	// B. Serviços (Camada de Lógica de Negócio)
	productSvc := productservice.NewService(productRepo, log)
	checkoutSvc := checkoutservice.NewService(productRepo, saleRepo, receipt.NewGenerator(), log)
	saleSvc := saleservice.NewService(saleRepo, log)
	log.Debug("Serviços inicializados.", nil)

	// C. Handlers (Camada de Apresentação)
	productHandler := product.NewHandler(productSvc, log)
	saleHandler := sale.NewHandler(checkoutSvc, saleSvc, log)
	log.Debug("Handlers inicializados.", nil)

	// 4. Configuração e Início do Roteador/Servidor
	r := router.NewRouter(productHandler, saleHandler, verifier, cacheClient, router.RateLimitConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Period:      cfg.RateLimitPeriod,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 5. Execução e Graceful Shutdown
	go func() {
		log.Info("Servidor BentaHub ouvindo na porta", map[string]interface{}{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Servidor falhou.", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Sinal de encerramento recebido. Desligando servidor...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Desligamento do servidor forçado.", err)
	}

	log.Info("Servidor encerrado com sucesso.", nil)
}
