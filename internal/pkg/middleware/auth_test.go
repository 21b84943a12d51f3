package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"bentahub/internal/pkg/middleware"
	"bentahub/internal/pkg/token"
)

// stubVerifier simula o verificador de tokens do provedor externo.
type stubVerifier struct {
	claims *token.Claims
	err    error
}

func (s *stubVerifier) Verify(tokenString string) (*token.Claims, error) {
	return s.claims, s.err
}

// TestAuthMiddleware_AttachesClaims verifica que um token válido anexa a
// identidade da conta ao contexto da requisição.
func TestAuthMiddleware_AttachesClaims(t *testing.T) {
	claims := &token.Claims{Email: "dona@loja.com"}
	claims.Subject = "conta-123"
	auth := middleware.NewAuthMiddleware(&stubVerifier{claims: claims})

	var seen middleware.UserClaims
	handler := auth(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.GetUserClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.Header.Set("Authorization", "Bearer um-token-qualquer")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "conta-123", seen.UserID)
	assert.Equal(t, "dona@loja.com", seen.Email)
}

// TestAuthMiddleware_Fail_MissingHeader rejeita requisição sem Authorization.
func TestAuthMiddleware_Fail_MissingHeader(t *testing.T) {
	auth := middleware.NewAuthMiddleware(&stubVerifier{})

	called := false
	handler := auth(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

// TestAuthMiddleware_Fail_MalformedHeader rejeita header sem o prefixo Bearer.
func TestAuthMiddleware_Fail_MalformedHeader(t *testing.T) {
	auth := middleware.NewAuthMiddleware(&stubVerifier{})

	called := false
	handler := auth(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

// TestAuthMiddleware_Fail_InvalidToken rejeita token recusado pelo verificador.
func TestAuthMiddleware_Fail_InvalidToken(t *testing.T) {
	auth := middleware.NewAuthMiddleware(&stubVerifier{err: errors.New("token inválido")})

	called := false
	handler := auth(func(w http.ResponseWriter, r *http.Request) { called = true })

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	req.Header.Set("Authorization", "Bearer expirado")
	rec := httptest.NewRecorder()

	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}
