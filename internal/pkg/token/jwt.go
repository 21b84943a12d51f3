package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier define o contrato de verificação de credenciais que o middleware
// de autenticação consome. O BentaHub NÃO emite tokens: o login acontece no
// provedor de identidade externo, que assina JWTs HS256; aqui apenas
// verificamos a assinatura e extraímos a identidade da conta.
type Verifier interface {
	Verify(tokenString string) (*Claims, error)
}

// Claims define as informações que o provedor de identidade coloca no JWT.
// O campo Subject (sub) das RegisteredClaims é o ID da conta e serve como
// chave de escopo de dono para todas as operações de dados.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Service implementa a interface Verifier usando a chave compartilhada do provedor.
type Service struct {
	secretKey []byte
}

// NewService cria uma nova instância do serviço de verificação de tokens.
// A chave é a mesma usada pelo provedor de identidade para assinar (HS256).
func NewService(secretKey string) *Service {
	return &Service{
		secretKey: []byte(secretKey),
	}
}

// Verify valida o token string e retorna as claims se for válido.
func (s *Service) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verifica se o método de assinatura é o esperado (HS256)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de assinatura inesperado: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})

	if err != nil {
		// Trata erros comuns de JWT, como token expirado ou inválido
		return nil, fmt.Errorf("token inválido: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token não é válido")
	}

	if claims.Subject == "" {
		return nil, errors.New("token sem identidade de conta (claim sub ausente)")
	}

	return claims, nil
}
