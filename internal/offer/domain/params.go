package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/troyjfarrell/offergate/pkg/cryptox"
)

// DefaultTokenLifetime bounds how long an unused issued token stays valid.
// The issuance authority enforces the same bound on its side.
const DefaultTokenLifetime = 5 * time.Minute

// ProviderKind distinguishes the identity context a token is issued under.
type ProviderKind string

const (
	// ProviderAccount issues on behalf of an authenticated account session.
	ProviderAccount ProviderKind = "account"
	// ProviderSharedLink issues on behalf of an anonymous shared-link
	// holder, attenuated from the link's own token.
	ProviderSharedLink ProviderKind = "shared"
)

// Provider identifies on whose behalf a token is issued.
type Provider struct {
	Kind           ProviderKind `json:"kind"`
	AccountID      string       `json:"accountId,omitempty"`
	RawParentToken string       `json:"rawParentToken,omitempty"`
}

// Owner describes ownership constraints on the issued token.
type Owner struct {
	ForSharing      bool
	ExpiresIfUnused time.Duration
}

// IssuanceParams is the order-significant parameter tuple sent to the
// issuance authority. Two logically identical requests must produce equal
// fingerprints regardless of JSON key order inside the opaque members.
type IssuanceParams struct {
	Provider        Provider
	SubjectID       string
	Petname         string
	RoleAssignment  json.RawMessage
	Owner           Owner
	Unauthenticated json.RawMessage
}

// canonicalEnc produces CBOR core-deterministic output: definite lengths,
// sorted map keys. This is what makes the fingerprint canonical.
var canonicalEnc cbor.EncMode

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	canonicalEnc = em
}

// Fingerprint returns a deterministic hash of the canonical form of the
// tuple, suitable as a memoization key.
func (p IssuanceParams) Fingerprint() (string, error) {
	role, err := decodeOpaque(p.RoleAssignment)
	if err != nil {
		return "", fmt.Errorf("role assignment: %w", err)
	}
	unauthenticated, err := decodeOpaque(p.Unauthenticated)
	if err != nil {
		return "", fmt.Errorf("unauthenticated: %w", err)
	}

	tuple := []any{
		[]any{string(p.Provider.Kind), p.Provider.AccountID, p.Provider.RawParentToken},
		p.SubjectID,
		p.Petname,
		role,
		[]any{p.Owner.ForSharing, p.Owner.ExpiresIfUnused.Milliseconds()},
		unauthenticated,
	}

	canonical, err := canonicalEnc.Marshal(tuple)
	if err != nil {
		return "", fmt.Errorf("canonicalize issuance params: %w", err)
	}

	return cryptox.Fingerprint(canonical), nil
}

// decodeOpaque lifts raw JSON into Go values so that object key order no
// longer matters; the CBOR encoder then sorts map keys deterministically.
func decodeOpaque(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
