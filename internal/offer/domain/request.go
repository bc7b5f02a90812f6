package domain

import (
	"encoding/json"
)

// DefaultPetname labels a connection when the requesting app supplies none.
const DefaultPetname = "connected external app"

// FullAccessRole is the sentinel role assignment meaning no attenuation.
// The issuance authority interprets it; offergate passes it through opaque.
var FullAccessRole = json.RawMessage(`{"allAccess":null}`)

// ClipboardButton selects which mouse button, if any, copies the rendered
// template to the clipboard on the handoff page.
type ClipboardButton string

const (
	ClipboardNone  ClipboardButton = ""
	ClipboardLeft  ClipboardButton = "left"
	ClipboardRight ClipboardButton = "right"
)

func (b ClipboardButton) Valid() bool {
	switch b {
	case ClipboardNone, ClipboardLeft, ClipboardRight:
		return true
	}
	return false
}

// OfferRequest is the caller-submitted renderTemplate payload. The caller is
// untrusted; everything here is validated before any issuance side effect.
type OfferRequest struct {
	// RPCID correlates the eventual reply with this request. Opaque.
	RPCID string `json:"rpcId"`

	// Template is caller-supplied text containing $API_TOKEN, $API_HOST
	// and $GRAIN_TITLE_SLUG placeholders.
	Template string `json:"template"`

	// Petname is the display label for the issued token.
	Petname string `json:"petname,omitempty"`

	// RoleAssignment is an opaque attenuation descriptor, passed through
	// to the issuance authority. Nil means FullAccessRole.
	RoleAssignment json.RawMessage `json:"roleAssignment,omitempty"`

	ForSharing bool `json:"forSharing,omitempty"`

	ClipboardButton ClipboardButton `json:"clipboardButton,omitempty"`

	// Unauthenticated is an opaque pass-through object validated by the
	// issuance authority, not here.
	Unauthenticated json.RawMessage `json:"unauthenticated,omitempty"`

	// ClientApp, when present, is a URI scheme token for a native app deep
	// link. Restricted to [A-Za-z0-9+.-] and lower-cased before use.
	ClientApp string `json:"clientapp,omitempty"`
}
