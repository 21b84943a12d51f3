package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"bentahub/internal/domain"
	"bentahub/internal/errors"
	"bentahub/internal/pkg/cache"
	"bentahub/internal/pkg/logger"
)

// Chave de cache para produtos. Inclui o dono para manter o isolamento
// multi-tenant também na camada de cache.
const productCacheKey = "product:%s:%s"

// TTL do cache de produtos.
const productCacheTTL = 5 * time.Minute

// ProductRepository é a implementação Postgres do Inventory Store.
// Toda query filtra por user_id: um id que existe mas pertence a outra conta
// se comporta exatamente como um id inexistente (NotFound, nunca Forbidden).
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
// Aqui injetamos as dependências de Infraestrutura (DB e Cache).
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout time.Duration, log logger.Logger) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Save persiste um novo Produto no banco de dados.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        INSERT INTO products (id, name, price, quantity, user_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, name, price, quantity, user_id, created_at, updated_at`

	now := time.Now()
	var saved domain.Product
	err := r.DB.QueryRowContext(ctxTimeout, query,
		product.ID, product.Name, product.Price, product.Quantity, product.UserID, now, now,
	).Scan(
		&saved.ID, &saved.Name, &saved.Price, &saved.Quantity, &saved.UserID, &saved.CreatedAt, &saved.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao inserir produto", err)
	}

	return saved, nil
}

// FindByID busca um produto pelo ID, restrito ao dono, utilizando a
// estratégia Cache-Aside. É a leitura usada pelo checkout para capturar
// nome e preço no momento da venda.
func (r *ProductRepository) FindByID(ctx context.Context, ownerID, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, ownerID, id)
	var product domain.Product

	// 1. Tentar obter do Cache (Redis)
	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		// Cache HIT
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Se a desserialização falhar, continuamos para o DB
	} else if err != cache.ErrCacheMiss {
		// Erro real de cache (e.g., conexão perdida): degradamos para o DB.
		r.logger.Warn("Falha ao ler do cache Redis, usando o DB.", map[string]interface{}{"key": key})
	}

	// 2. Busca no Banco de Dados (PostgreSQL)
	const query = `
        SELECT id, name, price, quantity, user_id, created_at, updated_at
        FROM products
        WHERE id = $1 AND user_id = $2`

	err = r.DB.QueryRowContext(ctxTimeout, query, id, ownerID).Scan(
		&product.ID, &product.Name, &product.Price, &product.Quantity, &product.UserID,
		&product.CreatedAt, &product.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar produto no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto", err)
	}

	// 3. Popular o cache para futuras requisições (falha de cache não é fatal)
	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		_ = r.Cache.Set(ctxTimeout, key, productJSON, productCacheTTL)
	}

	return product, nil
}

// FindAll lista os produtos do dono, com filtro por nome e paginação.
func (r *ProductRepository) FindAll(ctx context.Context, ownerID string, filter domain.ProductFilter) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	const query = `
        SELECT id, name, price, quantity, user_id, created_at, updated_at
        FROM products
        WHERE user_id = $1 AND ($2 = '' OR name ILIKE '%' || $2 || '%')
        ORDER BY created_at DESC
        LIMIT $3 OFFSET $4`

	rows, err := r.DB.QueryContext(ctxTimeout, query, ownerID, filter.Name, limit, offset)
	if err != nil {
		r.logger.Error("Falha ao listar produtos no DB.", err)
		return nil, errors.NewDBError("Falha ao listar produtos", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.UserID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, errors.NewDBError("Falha ao mapear produto", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}

	return products, nil
}

// Update atualiza os campos editáveis de um produto do dono e invalida o cache.
func (r *ProductRepository) Update(ctx context.Context, product domain.Product) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        UPDATE products
        SET name = $1, price = $2, quantity = $3, updated_at = $4
        WHERE id = $5 AND user_id = $6`

	result, err := r.DB.ExecContext(ctxTimeout, query,
		product.Name, product.Price, product.Quantity, time.Now(), product.ID, product.UserID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar produto no DB.", err)
		return errors.NewDBError("Falha ao atualizar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", product.ID))
	}

	r.invalidate(ctxTimeout, product.UserID, product.ID)
	return nil
}

// Delete remove um produto do dono e invalida o cache.
func (r *ProductRepository) Delete(ctx context.Context, ownerID, id string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `DELETE FROM products WHERE id = $1 AND user_id = $2`

	result, err := r.DB.ExecContext(ctxTimeout, query, id, ownerID)
	if err != nil {
		r.logger.Error("Falha ao deletar produto no DB.", err)
		return errors.NewDBError("Falha ao deletar produto", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}

	r.invalidate(ctxTimeout, ownerID, id)
	return nil
}

// ApplyDelta ajusta atomicamente a quantidade de um produto por delta
// (negativo na venda/baixa, positivo na reposição/compensação).
//
// A verificação de estoque e a mutação acontecem em UMA única instrução
// condicional avaliada pelo Postgres: o predicado "quantity + delta >= 0"
// faz o banco serializar decrementos concorrentes sobre o mesmo produto.
// Isso substitui o par ler-verificar-gravar, que perde atualizações quando
// dois checkouts disputam o mesmo item.
func (r *ProductRepository) ApplyDelta(ctx context.Context, ownerID, id string, delta int) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const query = `
        UPDATE products
        SET quantity = quantity + $1, updated_at = $2
        WHERE id = $3 AND user_id = $4 AND quantity + $1 >= 0
        RETURNING id, name, price, quantity, user_id, created_at, updated_at`

	var updated domain.Product
	err := r.DB.QueryRowContext(ctxTimeout, query, delta, time.Now(), id, ownerID).Scan(
		&updated.ID, &updated.Name, &updated.Price, &updated.Quantity, &updated.UserID,
		&updated.CreatedAt, &updated.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		// O predicado falhou. Distinguir "não existe" de "sem estoque" exige
		// uma sondagem extra; ela serve apenas para classificar o erro, a
		// decisão de commit já foi tomada pela instrução condicional acima.
		return domain.Product{}, r.classifyDeltaFailure(ctxTimeout, ownerID, id, delta)
	}
	if err != nil {
		r.logger.Error("Falha ao aplicar delta de estoque no DB.", err)
		return domain.Product{}, errors.NewDBError("Falha ao ajustar estoque", err)
	}

	r.invalidate(ctxTimeout, ownerID, id)

	r.logger.Debug("Delta de estoque aplicado.", map[string]interface{}{
		"product_id":   id,
		"delta":        delta,
		"new_quantity": updated.Quantity,
	})
	return updated, nil
}

// classifyDeltaFailure descobre por que a atualização condicional não afetou
// nenhuma linha: produto inexistente (para este dono) ou estoque insuficiente.
func (r *ProductRepository) classifyDeltaFailure(ctx context.Context, ownerID, id string, delta int) error {
	const probe = `SELECT name, quantity FROM products WHERE id = $1 AND user_id = $2`

	var name string
	var quantity int
	err := r.DB.QueryRowContext(ctx, probe, id, ownerID).Scan(&name, &quantity)

	if err == sql.ErrNoRows {
		return errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		r.logger.Error("Falha ao sondar produto após rejeição do delta.", err)
		return errors.NewDBError("Falha ao verificar estoque", err)
	}

	return errors.NewInsufficientStockError(id, fmt.Sprintf(
		"Produto %s tem %d em estoque, pedido de %d.", name, quantity, -delta,
	))
}

// invalidate remove a entrada de cache de um produto após mutação.
func (r *ProductRepository) invalidate(ctx context.Context, ownerID, id string) {
	key := fmt.Sprintf(productCacheKey, ownerID, id)
	if err := r.Cache.Delete(ctx, key); err != nil {
		r.logger.Warn("Falha ao invalidar cache de produto.", map[string]interface{}{"key": key})
	}
}
