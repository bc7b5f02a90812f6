package jwtx

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMalformed  = errors.New("jwtx: malformed token")
	ErrInvalidKey = errors.New("jwtx: invalid Ed25519 public key")
	ErrIssuer     = errors.New("jwtx: issuer mismatch")
	ErrNoSubject  = errors.New("jwtx: missing subject")
)

// Verifier validates a session JWT and gives back the claims if it's legit.
type Verifier interface {
	Verify(token string) (*SessionClaims, error)
}

// EdDSAVerifier validates session tokens signed with a single static
// Ed25519 key. The host signs session tokens; offergate only verifies.
type EdDSAVerifier struct {
	pub    ed25519.PublicKey
	issuer string
}

// NewEdDSAVerifier creates a verifier for the given public key. An empty
// issuer means the iss claim is not enforced.
func NewEdDSAVerifier(pub ed25519.PublicKey, issuer string) *EdDSAVerifier {
	return &EdDSAVerifier{pub: pub, issuer: issuer}
}

// ParsePublicKey decodes a base64 (raw or padded) Ed25519 public key.
func ParsePublicKey(encoded string) (ed25519.PublicKey, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, ErrInvalidKey
		}
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, ErrInvalidKey
	}
	return ed25519.PublicKey(raw), nil
}

// Verify validates the JWT string and returns its parsed claims.
func (v *EdDSAVerifier) Verify(tokenStr string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		return v.pub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrMalformed
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, ErrIssuer
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}

	return claims, nil
}
