package receipt

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Generator produz números de recibo legíveis no formato RCP-AAMM-NNNN:
// prefixo fixo, 2 dígitos do ano, 2 dígitos do mês e um sufixo aleatório de
// 4 dígitos. A unicidade é probabilística (1 em 10.000 por mês) e é garantida
// de verdade pelo índice único na tabela de vendas; em caso de colisão o
// coordenador de checkout pede um novo número em vez de falhar a venda.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewGenerator cria um gerador com fonte aleatória própria.
func NewGenerator() *Generator {
	return NewGeneratorWithSeed(time.Now().UnixNano())
}

// NewGeneratorWithSeed cria um gerador com semente fixa (útil em testes).
func NewGeneratorWithSeed(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// Generate deriva o número de recibo para o instante informado.
func (g *Generator) Generate(now time.Time) string {
	g.mu.Lock()
	suffix := g.rnd.Intn(10000)
	g.mu.Unlock()

	return fmt.Sprintf("RCP-%02d%02d-%04d", now.Year()%100, int(now.Month()), suffix)
}
