package jwtx

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims are the claims offergate expects on a host session token.
// The subject is the account identifier the token was minted for.
type SessionClaims struct {
	jwt.RegisteredClaims

	// SID is the host session identifier, carried for log correlation only.
	SID string `json:"sid,omitempty"`
}
