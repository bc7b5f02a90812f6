// Package rpc defines the transport-neutral message envelope and the
// correlated reply path for the render-template protocol. Transports
// (HTTP today) adapt themselves to these types; the protocol core never
// sees a transport directly.
package rpc

import "encoding/json"

// Payload is the data portion of an inbound envelope.
type Payload struct {
	RenderTemplate json.RawMessage `json:"renderTemplate"`
}

// Envelope is one inbound message from the embedded, untrusted context.
// Origin and Source are captured once at arrival; replies go only there.
type Envelope struct {
	Data   Payload
	Origin string
	Source ReplyChannel
}

// Reply is the single correlated response for a request: an opaque handoff
// URI on success, a stringified error otherwise. Never both.
type Reply struct {
	RPCID string `json:"rpcId"`
	URI   string `json:"uri,omitempty"`
	Error string `json:"error,omitempty"`
}

// ReplyChannel delivers a reply to the originating message channel.
// Implementations must treat posting to a channel that has gone away as a
// no-op, not an error.
type ReplyChannel interface {
	Post(reply Reply, origin string)
}
