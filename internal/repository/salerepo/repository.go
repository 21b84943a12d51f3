package salerepo

import (
	"context"
	"database/sql"
	goerrors "errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"bentahub/internal/domain"
	"bentahub/internal/errors"
	"bentahub/internal/pkg/logger"
)

// Código de erro do Postgres para violação de restrição de unicidade.
const pqUniqueViolation = "23505"

// SaleRepository é a implementação Postgres do livro de vendas (ledger).
// Vendas são imutáveis: o repositório só sabe inserir e ler, nunca atualizar
// ou remover.
type SaleRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSaleRepository cria e retorna uma nova instância do Repositório de Vendas.
func NewSaleRepository(db *sql.DB, dbTimeout time.Duration, log logger.Logger) *SaleRepository {
	return &SaleRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// Append persiste uma nova venda com todas as suas linhas em UMA transação:
// ou o registro completo é gravado, ou nada é. Violação do índice único de
// receipt_number volta como ConflictError para que o coordenador tente de
// novo com um número de recibo fresco.
func (r *SaleRepository) Append(ctx context.Context, sale domain.Sale) (domain.Sale, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de venda.", err)
		return domain.Sale{}, errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback() // No-op após Commit

	const saleSQL = `
        INSERT INTO sales (id, receipt_number, total_amount, sale_date, user_id)
        VALUES ($1, $2, $3, $4, $5)`

	_, err = tx.ExecContext(ctxTimeout, saleSQL,
		sale.ID, sale.ReceiptNumber, sale.TotalAmount, sale.SaleDate, sale.UserID,
	)
	if err != nil {
		var pqErr *pq.Error
		if goerrors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			r.logger.Warn("Colisão de número de recibo.", map[string]interface{}{"receipt_number": sale.ReceiptNumber})
			return domain.Sale{}, errors.NewConflictError(fmt.Sprintf("Número de recibo %s já existe.", sale.ReceiptNumber))
		}
		r.logger.Error("Falha ao inserir venda no DB.", err)
		return domain.Sale{}, errors.NewDBError("Falha ao inserir venda", err)
	}

	const itemSQL = `
        INSERT INTO sale_items (sale_id, position, product_id, name, quantity, price)
        VALUES ($1, $2, $3, $4, $5, $6)`

	for i, item := range sale.Items {
		_, err = tx.ExecContext(ctxTimeout, itemSQL,
			sale.ID, i, item.ProductID, item.Name, item.Quantity, item.Price,
		)
		if err != nil {
			r.logger.Error("Falha ao inserir item de venda no DB.", err)
			return domain.Sale{}, errors.NewDBError("Falha ao inserir item de venda", err)
		}
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("Falha ao commitar transação de venda.", err)
		return domain.Sale{}, errors.NewDBError("Falha ao commitar transação", err)
	}

	r.logger.Info("Venda registrada no ledger.", map[string]interface{}{
		"sale_id":        sale.ID,
		"receipt_number": sale.ReceiptNumber,
		"total_amount":   sale.TotalAmount,
	})
	return sale, nil
}

// FindAll lista as vendas do dono, da mais recente para a mais antiga,
// com suas linhas na ordem original do carrinho.
func (r *SaleRepository) FindAll(ctx context.Context, ownerID string) ([]domain.Sale, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	const salesSQL = `
        SELECT id, receipt_number, total_amount, sale_date, user_id
        FROM sales
        WHERE user_id = $1
        ORDER BY sale_date DESC`

	rows, err := r.DB.QueryContext(ctxTimeout, salesSQL, ownerID)
	if err != nil {
		r.logger.Error("Falha ao listar vendas no DB.", err)
		return nil, errors.NewDBError("Falha ao listar vendas", err)
	}
	defer rows.Close()

	sales := []domain.Sale{}
	index := map[string]int{}
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.ReceiptNumber, &s.TotalAmount, &s.SaleDate, &s.UserID); err != nil {
			return nil, errors.NewDBError("Falha ao mapear venda", err)
		}
		s.Items = []domain.SaleItem{}
		index[s.ID] = len(sales)
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar vendas", err)
	}

	if len(sales) == 0 {
		return sales, nil
	}

	const itemsSQL = `
        SELECT si.sale_id, si.product_id, si.name, si.quantity, si.price
        FROM sale_items si
        JOIN sales s ON s.id = si.sale_id
        WHERE s.user_id = $1
        ORDER BY si.sale_id, si.position`

	itemRows, err := r.DB.QueryContext(ctxTimeout, itemsSQL, ownerID)
	if err != nil {
		r.logger.Error("Falha ao listar itens de venda no DB.", err)
		return nil, errors.NewDBError("Falha ao listar itens de venda", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var saleID string
		var item domain.SaleItem
		if err := itemRows.Scan(&saleID, &item.ProductID, &item.Name, &item.Quantity, &item.Price); err != nil {
			return nil, errors.NewDBError("Falha ao mapear item de venda", err)
		}
		if i, ok := index[saleID]; ok {
			sales[i].Items = append(sales[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar itens de venda", err)
	}

	return sales, nil
}
