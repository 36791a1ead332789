package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

const testKey = "test-signing-key"

func signToken(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

func TestVerifyToken(t *testing.T) {
	v := NewVerifier(testKey)

	token := signToken(t, testKey, jwt.MapClaims{
		"sub": "dr-jones",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	caller, err := v.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity("dr-jones"), caller)
}

func TestVerifyTokenRejectsWrongKey(t *testing.T) {
	v := NewVerifier(testKey)

	token := signToken(t, "other-key", jwt.MapClaims{"sub": "dr-jones"})
	_, err := v.VerifyToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	v := NewVerifier(testKey)

	token := signToken(t, testKey, jwt.MapClaims{
		"sub": "dr-jones",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	_, err := v.VerifyToken(token)
	require.Error(t, err)
	assert.Equal(t, "credential has expired", dErrors.RuleOf(err))
}

func TestVerifyTokenRejectsMissingOrBadSubject(t *testing.T) {
	v := NewVerifier(testKey)

	_, err := v.VerifyToken(signToken(t, testKey, jwt.MapClaims{}))
	require.Error(t, err)

	_, err = v.VerifyToken(signToken(t, testKey, jwt.MapClaims{"sub": "has spaces"}))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = v.VerifyToken("not-a-token")
	require.Error(t, err)
}
