package middleware

import (
	"context"
	"net/http"

	apperror "bentahub/internal/errors"
	"bentahub/internal/pkg/token"
)

// ContextKey é o tipo da chave usada para armazenar as claims do usuário no
// contexto. Usamos um tipo próprio para garantir que esta chave seja única e
// não haja conflito com outras chaves string.
type ContextKey int

const (
	UserClaimsKey ContextKey = iota
)

// UserClaims representa a identidade extraída do token do provedor externo,
// que será anexada ao contexto da requisição. UserID é a chave de escopo de
// dono em todas as camadas abaixo.
type UserClaims struct {
	UserID string
	Email  string
}

// TokenVerifier define o contrato de validação necessário para o middleware.
type TokenVerifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// NewAuthMiddleware cria uma função de middleware que valida um bearer token
// e anexa as claims (UserID e Email) ao contexto da requisição.
// O verificador é injetado explicitamente, sem estado global de sessão.
func NewAuthMiddleware(verifier TokenVerifier) func(next http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {

			// 1. Extrair o Token do Header Authorization: Bearer <token>
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || len(authHeader) < 7 || authHeader[:7] != "Bearer " {
				http.Error(w, apperror.NewUnauthorizedError("Token de autorização ausente ou malformado.").Error(), http.StatusUnauthorized)
				return
			}

			tokenString := authHeader[7:]

			// 2. Validar o Token junto ao verificador do provedor de identidade
			claims, err := verifier.Verify(tokenString)
			if err != nil {
				http.Error(w, apperror.NewUnauthorizedError("Token inválido ou expirado.").Error(), http.StatusUnauthorized)
				return
			}

			// 3. Anexar Claims ao Contexto
			userClaims := UserClaims{
				UserID: claims.Subject,
				Email:  claims.Email,
			}

			ctx := context.WithValue(r.Context(), UserClaimsKey, userClaims)

			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// GetUserClaimsFromContext é uma função utilitária para extrair as claims no handler.
func GetUserClaimsFromContext(ctx context.Context) (UserClaims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(UserClaims)
	return claims, ok
}
