package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/domain"
	"github.com/troyjfarrell/offergate/internal/offer/rpc"
	"github.com/troyjfarrell/offergate/internal/offer/store"
	"github.com/troyjfarrell/offergate/pkg/cryptox"
	"github.com/troyjfarrell/offergate/pkg/slogx"
)

// HandoffPage is the same-origin page that later redeems the reference.
const HandoffPage = "/offer-template.html"

// OfferService runs the issuance-and-render pipeline for one validated
// request: obtain a token through the memoizer, render the template,
// publish the handoff record, and reply with the opaque reference URI.
// The raw token never reaches the responder.
type OfferService struct {
	Memo  *TokenMemo
	Store store.Store

	// PageOrigin is this deployment's own origin, e.g. "https://grain.example".
	PageOrigin string
	// APIHost is substituted for $API_HOST and used as the deep-link host.
	APIHost string

	Lifetime time.Duration

	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

// Fulfil completes the pipeline for a validated request. Exactly one reply
// is sent through resp: the handoff URI on success, the error otherwise.
func (s *OfferService) Fulfil(ctx context.Context, req domain.OfferRequest, grain GrainContext, provider domain.Provider, resp *rpc.Responder) {
	log := slogx.FromContext(ctx)

	params := domain.IssuanceParams{
		Provider:       provider,
		SubjectID:      grain.GrainID(),
		Petname:        req.Petname,
		RoleAssignment: req.RoleAssignment,
		Owner: domain.Owner{
			ForSharing:      req.ForSharing,
			ExpiresIfUnused: s.lifetime(),
		},
		Unauthenticated: req.Unauthenticated,
	}

	token, err := s.Memo.ObtainToken(ctx, params)
	if err != nil {
		log.Warn("token issuance failed", "rpc_id", req.RPCID, "err", err)
		resp.Fail(err)
		return
	}

	rendered := Render(req.Template, token, s.APIHost, grain.Title())

	rec, err := s.publish(ctx, token, rendered, req)
	if err != nil {
		log.Error("handoff publish failed", "rpc_id", req.RPCID, "err", err)
		resp.Fail(err)
		return
	}

	resp.Succeed(s.PageOrigin + HandoffPage + "#" + rec.Reference)
}

// publish stores the rendered artifact under a fresh random reference.
func (s *OfferService) publish(ctx context.Context, token, rendered string, req domain.OfferRequest) (domain.HandoffRecord, error) {
	reference, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return domain.HandoffRecord{}, fmt.Errorf("generate handoff reference: %w", err)
	}

	rec := domain.HandoffRecord{
		Reference:        reference,
		Token:            token,
		RenderedTemplate: rendered,
		ClipboardButton:  req.ClipboardButton,
		Expires:          s.now().Add(s.lifetime()),
		Host:             s.APIHost,
	}

	if req.ClientApp != "" {
		// The one place the raw token is embedded in a value that can
		// leave the page: an OS-level deep link to a user-chosen app.
		rec.Link = req.ClientApp + ":" + s.pageProtocol() + "//" + s.APIHost + "#" + token
	}

	if err := s.Store.Handoffs().PutHandoff(ctx, rec); err != nil {
		return domain.HandoffRecord{}, fmt.Errorf("store handoff record: %w", err)
	}

	return rec, nil
}

func (s *OfferService) lifetime() time.Duration {
	if s.Lifetime > 0 {
		return s.Lifetime
	}
	return domain.DefaultTokenLifetime
}

func (s *OfferService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *OfferService) pageProtocol() string {
	if strings.HasPrefix(s.PageOrigin, "http://") {
		return "http:"
	}
	return "https:"
}
