package jwtx_test

import (
	"testing"
	"time"

	"github.com/crewdir/crewdir/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "unit-test-secret"
	testIssuer = "crewdir-test"
)

func TestSignAndVerify(t *testing.T) {
	signer := jwtx.NewSigner(testSecret, testIssuer)
	verifier := jwtx.NewVerifier(testSecret, testIssuer)

	token, err := signer.Sign("hr-portal", []string{jwtx.ScopeRead, jwtx.ScopeWrite}, time.Minute)
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "hr-portal", claims.Subject)
	require.Equal(t, []string{jwtx.ScopeRead, jwtx.ScopeWrite}, claims.Scopes)
	require.NoError(t, claims.ValidateExpiry())
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	signer := jwtx.NewSigner("other-secret", testIssuer)
	verifier := jwtx.NewVerifier(testSecret, testIssuer)

	token, err := signer.Sign("svc", []string{jwtx.ScopeRead}, time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	signer := jwtx.NewSigner(testSecret, "someone-else")
	verifier := jwtx.NewVerifier(testSecret, testIssuer)

	token, err := signer.Sign("svc", []string{jwtx.ScopeRead}, time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	signer := jwtx.NewSigner(testSecret, testIssuer)
	verifier := jwtx.NewVerifier(testSecret, testIssuer)

	token, err := signer.Sign("svc", []string{jwtx.ScopeRead}, -time.Minute)
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	verifier := jwtx.NewVerifier(testSecret, testIssuer)

	_, err := verifier.Verify("not.a.token")
	require.Error(t, err)
}

func TestValidateExpiry(t *testing.T) {
	expired := jwtx.Claims{ExpiresAt: time.Now().Add(-time.Second)}
	require.ErrorIs(t, expired.ValidateExpiry(), jwtx.ErrTokenExpired)

	live := jwtx.Claims{ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, live.ValidateExpiry())
}
