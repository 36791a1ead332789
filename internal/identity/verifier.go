// Package identity adapts the external identity source to the core.
//
// Callers authenticate out of band (a wallet, an SSO gateway) and present a
// signed token whose subject is their opaque identity string. This package
// only checks the signature and extracts the subject; it performs no identity
// verification beyond that.
package identity

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"healthchain/pkg/domain"
	dErrors "healthchain/pkg/domain-errors"
)

// Verifier validates HS256 caller tokens.
type Verifier struct {
	signingKey []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{signingKey: []byte(signingKey)}
}

// VerifyToken checks the token signature and returns the subject identity.
func (v *Verifier) VerifyToken(tokenString string) (domain.Identity, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return v.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "credential has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credential")
	}
	if !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credential")
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "credential carries no subject identity")
	}
	caller, err := domain.ParseIdentity(subject)
	if err != nil {
		return "", dErrors.New(dErrors.CodeUnauthorized, "credential subject is not a valid identity")
	}
	return caller, nil
}
