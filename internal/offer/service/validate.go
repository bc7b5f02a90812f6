package service

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
)

var (
	// ErrNoCorrelation means no rpcId was recoverable from the payload.
	// The error cannot be correlated, so the reply is dropped, never
	// synthesized under a guessed id.
	ErrNoCorrelation = errors.New("uncorrelatable_request")

	ErrInvalidRequest   = errors.New("invalid_request")
	ErrInvalidClientApp = errors.New("invalid_clientapp")
	ErrInvalidClipboard = errors.New("invalid_clipboard_button")
	ErrNoGrainContext   = errors.New("invalid_grain_context")
)

// GrainContext is the narrow capability the hosting page exposes for the
// grain the requesting app is embedded in.
type GrainContext interface {
	GrainID() string
	Title() string
}

// clientAppScheme is the URI scheme-token character set. Anything else
// (whitespace, colons, script payloads) fails validation.
var clientAppScheme = regexp.MustCompile(`^[A-Za-z0-9+.-]+$`)

// ParseOfferRequest extracts the request from the envelope payload.
// When the payload is malformed it still tries to salvage the rpcId so the
// validation error can be correlated; only when even that fails does it
// report ErrNoCorrelation.
func ParseOfferRequest(payload json.RawMessage) (domain.OfferRequest, error) {
	var req domain.OfferRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		var probe struct {
			RPCID string `json:"rpcId"`
		}
		if json.Unmarshal(payload, &probe) != nil || probe.RPCID == "" {
			return domain.OfferRequest{}, ErrNoCorrelation
		}
		req.RPCID = probe.RPCID
		return req, ErrInvalidRequest
	}

	if req.RPCID == "" {
		return domain.OfferRequest{}, ErrNoCorrelation
	}
	return req, nil
}

// ValidateOfferRequest checks the request and caller-context shape and
// applies defaults. Pure on success: no issuance side effect has happened
// by the time this returns.
func ValidateOfferRequest(req *domain.OfferRequest, grain GrainContext) error {
	if grain == nil || grain.GrainID() == "" {
		return ErrNoGrainContext
	}

	if strings.TrimSpace(req.Template) == "" {
		return ErrInvalidRequest
	}

	if !req.ClipboardButton.Valid() {
		return ErrInvalidClipboard
	}

	if req.ClientApp != "" {
		if !clientAppScheme.MatchString(req.ClientApp) {
			return ErrInvalidClientApp
		}
		req.ClientApp = strings.ToLower(req.ClientApp)
	}

	if req.Petname == "" {
		req.Petname = domain.DefaultPetname
	}
	if len(req.RoleAssignment) == 0 {
		req.RoleAssignment = domain.FullAccessRole
	}

	return nil
}
