// Package jwtx mints and verifies the HS256 service tokens that
// authenticate directory clients to the directory server. Both sides share
// one symmetric secret; this is machine-to-machine transport auth, not an
// end-user session protocol.
package jwtx

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// ScopeRead allows every lookup operation.
	ScopeRead = "directory:read"
	// ScopeWrite allows every mutating operation.
	ScopeWrite = "directory:write"
)

var ErrTokenExpired = errors.New("jwtx: token expired")

// Claims is the verified content of a service token.
type Claims struct {
	Subject   string
	Scopes    []string
	ExpiresAt time.Time
}

func (c Claims) ValidateExpiry() error {
	if !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}

type serviceClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Signer mints short-lived HS256 tokens.
type Signer struct {
	secret []byte
	issuer string
}

func NewSigner(secret, issuer string) *Signer {
	return &Signer{secret: []byte(secret), issuer: issuer}
}

func (s *Signer) Sign(subject string, scopes []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := serviceClaims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}

// Verifier checks token signature, issuer and expiry.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(secret, issuer string) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer}
}

func (v *Verifier) Verify(raw string) (Claims, error) {
	var sc serviceClaims
	_, err := jwt.ParseWithClaims(raw, &sc,
		func(t *jwt.Token) (any, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return Claims{}, fmt.Errorf("jwtx: verify: %w", err)
	}

	claims := Claims{
		Subject: sc.Subject,
		Scopes:  strings.Fields(sc.Scope),
	}
	if sc.ExpiresAt != nil {
		claims.ExpiresAt = sc.ExpiresAt.Time
	}
	return claims, nil
}
