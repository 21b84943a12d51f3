package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"bentahub/internal/pkg/token"
)

const testSecret = "segredo-compartilhado-de-teste"

// signToken simula o provedor de identidade externo assinando um token HS256.
func signToken(t *testing.T, secret, subject, email string, expiry time.Duration) string {
	t.Helper()

	claims := token.Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	assert.NoError(t, err)
	return signed
}

// TestVerify_Success valida um token bem formado do provedor.
func TestVerify_Success(t *testing.T) {
	svc := token.NewService(testSecret)

	signed := signToken(t, testSecret, "conta-123", "dona@loja.com", time.Hour)

	claims, err := svc.Verify(signed)

	assert.NoError(t, err)
	assert.Equal(t, "conta-123", claims.Subject)
	assert.Equal(t, "dona@loja.com", claims.Email)
}

// TestVerify_Fail_WrongSecret rejeita assinatura com outra chave.
func TestVerify_Fail_WrongSecret(t *testing.T) {
	svc := token.NewService(testSecret)

	signed := signToken(t, "outra-chave", "conta-123", "", time.Hour)

	_, err := svc.Verify(signed)
	assert.Error(t, err)
}

// TestVerify_Fail_Expired rejeita token expirado.
func TestVerify_Fail_Expired(t *testing.T) {
	svc := token.NewService(testSecret)

	signed := signToken(t, testSecret, "conta-123", "", -time.Minute)

	_, err := svc.Verify(signed)
	assert.Error(t, err)
}

// TestVerify_Fail_MissingSubject rejeita token sem identidade de conta.
func TestVerify_Fail_MissingSubject(t *testing.T) {
	svc := token.NewService(testSecret)

	signed := signToken(t, testSecret, "", "", time.Hour)

	_, err := svc.Verify(signed)
	assert.Error(t, err)
}
