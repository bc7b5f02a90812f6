package rpc

import "sync"

// Responder sends exactly one correlated reply for a request, addressed
// only to the origin/channel pair captured from the original message.
// Additional Succeed/Fail calls after the first are ignored.
type Responder struct {
	once   sync.Once
	source ReplyChannel
	origin string
	rpcID  string
}

// NewResponder binds a responder to the originating channel and origin.
func NewResponder(source ReplyChannel, origin, rpcID string) *Responder {
	return &Responder{source: source, origin: origin, rpcID: rpcID}
}

// RPCID returns the correlation identifier this responder replies with.
func (r *Responder) RPCID() string { return r.rpcID }

// Succeed replies with the opaque handoff URI.
func (r *Responder) Succeed(uri string) {
	r.post(Reply{RPCID: r.rpcID, URI: uri})
}

// Fail replies with the error's string form. Nothing beyond the message
// crosses the boundary.
func (r *Responder) Fail(err error) {
	r.post(Reply{RPCID: r.rpcID, Error: err.Error()})
}

func (r *Responder) post(reply Reply) {
	r.once.Do(func() {
		if r.source == nil {
			return
		}
		r.source.Post(reply, r.origin)
	})
}
