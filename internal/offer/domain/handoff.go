package domain

import "time"

// HandoffRecord is the published result of a successful issuance+render.
// It is addressable only by Reference, never mutated after creation, and
// useless after Expires. The raw Token lives here and nowhere the
// requesting origin can reach.
type HandoffRecord struct {
	// Reference is a fresh random 128-bit identifier standing in for the
	// token on the untrusted side of the boundary.
	Reference string

	Token            string
	RenderedTemplate string
	ClipboardButton  ClipboardButton
	Expires          time.Time

	// Host is the API host the template was rendered against.
	Host string

	// Link is a native-app deep link carrying the raw token. Set only when
	// a validated clientapp scheme was supplied; the link targets a
	// user-chosen native application, never the requesting origin.
	Link string
}
