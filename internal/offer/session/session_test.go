package session

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"github.com/troyjfarrell/offergate/internal/offer/domain"
	"github.com/troyjfarrell/offergate/pkg/jwtx"
)

func newResolver(t *testing.T) (*Resolver, ed25519.PrivateKey) {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	return &Resolver{Verifier: jwtx.NewEdDSAVerifier(pub, "host")}, priv
}

func sessionToken(t *testing.T, priv ed25519.PrivateKey, subject string) string {
	t.Helper()

	claims := jwtx.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "host",
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(priv)
	require.NoError(t, err)
	return token
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("bearer session resolves to account provider", func(t *testing.T) {
		resolver, priv := newResolver(t)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, priv, "acct-1"))

		provider, err := resolver.Resolve(req)
		require.NoError(t, err)
		require.Equal(t, domain.Provider{Kind: domain.ProviderAccount, AccountID: "acct-1"}, provider)
	})

	t.Run("invalid bearer token", func(t *testing.T) {
		resolver, _ := newResolver(t)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")

		_, err := resolver.Resolve(req)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("non-bearer authorization scheme", func(t *testing.T) {
		resolver, _ := newResolver(t)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")

		_, err := resolver.Resolve(req)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("bearer without verifier configured", func(t *testing.T) {
		resolver := &Resolver{}
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, priv, "acct-1"))

		_, err = resolver.Resolve(req)
		require.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("shared link header resolves to shared provider", func(t *testing.T) {
		resolver, _ := newResolver(t)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(SharedLinkHeader, "parent-token")

		provider, err := resolver.Resolve(req)
		require.NoError(t, err)
		require.Equal(t, domain.Provider{Kind: domain.ProviderSharedLink, RawParentToken: "parent-token"}, provider)
	})

	t.Run("bearer wins over shared link", func(t *testing.T) {
		resolver, priv := newResolver(t)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer "+sessionToken(t, priv, "acct-1"))
		req.Header.Set(SharedLinkHeader, "parent-token")

		provider, err := resolver.Resolve(req)
		require.NoError(t, err)
		require.Equal(t, domain.ProviderAccount, provider.Kind)
	})

	t.Run("no credentials at all", func(t *testing.T) {
		resolver, _ := newResolver(t)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		_, err := resolver.Resolve(req)
		require.ErrorIs(t, err, ErrNoSession)
	})
}
