// Package auth issues and verifies the signed session tokens handed out at
// login. Tokens are HS256 JWTs bound to an account id; there is no server-side
// revocation, a token is good until it expires.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/carmarket/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenValidity is how long a freshly issued token stays valid.
const DefaultTokenValidity = time.Hour

// Claims carries the account id next to the registered iat/exp claims.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"account_id"`
}

// TokenIssuer signs and verifies session tokens with a secret injected at
// construction.
type TokenIssuer struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

type Option func(*TokenIssuer)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(t *TokenIssuer) { t.now = now }
}

// NewTokenIssuer never fails: an empty secret is reported by Issue as
// common.ErrConfiguration. A non-positive validity falls back to
// DefaultTokenValidity.
func NewTokenIssuer(secret []byte, validity time.Duration, opts ...Option) *TokenIssuer {
	if validity <= 0 {
		validity = DefaultTokenValidity
	}
	t := &TokenIssuer{secret: secret, validity: validity, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Issue returns a token for accountID that expires after the configured
// validity.
func (t *TokenIssuer) Issue(accountID string) (string, error) {
	if len(t.secret) == 0 {
		return "", common.ErrConfiguration
	}

	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.validity)),
		},
		AccountID: accountID,
	})

	return token.SignedString(t.secret)
}

// Verify returns the account id a token was issued for. Expired tokens give
// common.ErrExpiredToken; every other defect (bad signature, malformed
// segments, foreign algorithm) gives common.ErrInvalidSignature.
func (t *TokenIssuer) Verify(tokenString string) (string, error) {
	if len(t.secret) == 0 {
		return "", common.ErrConfiguration
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrExpiredToken
		}
		return "", common.ErrInvalidSignature
	}
	if !token.Valid || claims.AccountID == "" {
		return "", common.ErrInvalidSignature
	}

	return claims.AccountID, nil
}
