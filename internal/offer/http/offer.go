package http

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/troyjfarrell/offergate/internal/offer/rpc"
	"github.com/troyjfarrell/offergate/internal/offer/service"
	"github.com/troyjfarrell/offergate/internal/offer/session"
	"github.com/troyjfarrell/offergate/pkg/httpx"
	"github.com/troyjfarrell/offergate/pkg/slogx"
)

// maxRequestBody bounds inbound payloads. Templates are small text
// documents; anything near this limit is not a legitimate request.
const maxRequestBody = 256 * 1024

// Grain-context headers set by the trusted hosting layer. The embedded
// app cannot set these; the front strips them from external traffic.
const (
	GrainIDHeader    = "X-Grain-Id"
	GrainTitleHeader = "X-Grain-Title"
)

// OfferHandler adapts the HTTP transport to the rpc envelope types and
// drives the validate-issue-render-publish pipeline.
type OfferHandler struct {
	Offers   *service.OfferService
	Sessions *session.Resolver
}

// RenderTemplate handles POST /v1/offer/render-template.
//
//	@Summary		Render an offer template
//	@Description	Validates a render-template request, obtains a scoped API
//	@Description	token, renders the template, and replies with an opaque
//	@Description	handoff URI. The raw token never appears in the response.
//	@Tags			offer
//	@Accept			json
//	@Produce		json
//	@Param			request	body		object	true	"renderTemplate envelope"
//	@Success		200		{object}	rpc.Reply
//	@Failure		400		{object}	rpc.Reply
//	@Failure		429		{object}	map[string]string
//	@Router			/v1/offer/render-template [post]
func (h *OfferHandler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	var payload rpc.Payload
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.RenderTemplate) == 0 {
		// Not even an envelope. Nothing to correlate a reply with.
		log.Debug("dropping message without renderTemplate payload")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env := rpc.Envelope{
		Data:   payload,
		Origin: r.Header.Get("Origin"),
		Source: &httpReplyChannel{w: w},
	}

	req, parseErr := service.ParseOfferRequest(env.Data.RenderTemplate)
	if parseErr == service.ErrNoCorrelation {
		// No rpcId recoverable: the reply would be uncorrelatable, so it
		// is dropped rather than synthesized.
		log.Debug("dropping uncorrelatable render-template request")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := rpc.NewResponder(env.Source, env.Origin, req.RPCID)
	if parseErr != nil {
		resp.Fail(parseErr)
		return
	}

	grain := grainFromHeaders(r)
	if err := service.ValidateOfferRequest(&req, grain); err != nil {
		resp.Fail(err)
		return
	}

	provider, err := h.Sessions.Resolve(r)
	if err != nil {
		log.Warn("session resolution failed", "rpc_id", req.RPCID, "err", err)
		resp.Fail(err)
		return
	}

	h.Offers.Fulfil(r.Context(), req, grain, provider, resp)
}

// httpReplyChannel delivers the single correlated reply as the HTTP
// response. The response writer is dead after the handler returns, so a
// late post (none should happen past the Responder) is a no-op.
type httpReplyChannel struct {
	w    http.ResponseWriter
	once sync.Once
}

func (c *httpReplyChannel) Post(reply rpc.Reply, origin string) {
	c.once.Do(func() {
		if origin != "" {
			c.w.Header().Set("Access-Control-Allow-Origin", origin)
		}

		status := http.StatusOK
		if reply.Error != "" {
			status = http.StatusBadRequest
		}
		httpx.WriteJSON(c.w, status, reply)
	})
}

// headerGrain satisfies service.GrainContext from the trusted headers.
type headerGrain struct {
	id    string
	title string
}

func (g headerGrain) GrainID() string { return g.id }
func (g headerGrain) Title() string   { return g.title }

func grainFromHeaders(r *http.Request) service.GrainContext {
	id := r.Header.Get(GrainIDHeader)
	if id == "" {
		return nil
	}
	return headerGrain{id: id, title: r.Header.Get(GrainTitleHeader)}
}
