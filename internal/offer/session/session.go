// Package session resolves the routing context of an inbound request into
// the provider on whose behalf a token is issued: an authenticated account
// session, or an anonymous shared-link holder.
package session

import (
	"errors"
	"net/http"
	"strings"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
	"github.com/troyjfarrell/offergate/pkg/jwtx"
)

var (
	ErrNoSession      = errors.New("no_session")
	ErrInvalidSession = errors.New("invalid_session")
)

// SharedLinkHeader carries the raw parent token of a shared-link visit.
// The host routing layer sets it; the embedded app cannot (the header is
// stripped at the trusted front).
const SharedLinkHeader = "X-Shared-Link-Token"

// Resolver picks the provider for an inbound request. A bearer session
// JWT wins over a shared-link token when both are present.
type Resolver struct {
	// Verifier validates account session tokens. Nil disables account
	// sessions entirely (shared links still work).
	Verifier jwtx.Verifier
}

func (r *Resolver) Resolve(req *http.Request) (domain.Provider, error) {
	if auth := req.Header.Get("Authorization"); auth != "" {
		raw, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || r.Verifier == nil {
			return domain.Provider{}, ErrInvalidSession
		}

		claims, err := r.Verifier.Verify(strings.TrimSpace(raw))
		if err != nil {
			return domain.Provider{}, ErrInvalidSession
		}

		return domain.Provider{Kind: domain.ProviderAccount, AccountID: claims.Subject}, nil
	}

	if token := req.Header.Get(SharedLinkHeader); token != "" {
		return domain.Provider{Kind: domain.ProviderSharedLink, RawParentToken: token}, nil
	}

	return domain.Provider{}, ErrNoSession
}
