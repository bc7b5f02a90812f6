package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/store"
	"github.com/troyjfarrell/offergate/pkg/httpx"
	"github.com/troyjfarrell/offergate/pkg/slogx"
)

// HandoffHandler redeems handoff references for their stored artifacts.
// This endpoint is same-origin only: the handoff page fetches it, and the
// reference in the fragment never left the user's browser.
type HandoffHandler struct {
	Store store.Store
}

type handoffResponse struct {
	Token            string `json:"token"`
	RenderedTemplate string `json:"renderedTemplate"`
	ClipboardButton  string `json:"clipboardButton,omitempty"`
	Host             string `json:"host"`
	Link             string `json:"link,omitempty"`
	ExpiresAt        int64  `json:"expiresAt"`
}

// Redeem handles GET /v1/offer/handoff/{reference}.
//
//	@Summary		Redeem a handoff reference
//	@Description	Returns the rendered template and token for a reference,
//	@Description	consuming it. A reference redeems at most once; expired or
//	@Description	unknown references report 404.
//	@Tags			offer
//	@Produce		json
//	@Param			reference	path		string	true	"handoff reference"
//	@Success		200			{object}	handoffResponse
//	@Failure		404			{object}	map[string]string
//	@Router			/v1/offer/handoff/{reference} [get]
func (h *HandoffHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	reference := r.PathValue("reference")
	if reference == "" {
		httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown_reference"})
		return
	}

	rec, err := h.Store.Handoffs().ConsumeHandoff(r.Context(), reference, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httpx.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "unknown_reference"})
			return
		}
		log.Error("handoff redemption failed", "err", err)
		httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal_error"})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, handoffResponse{
		Token:            rec.Token,
		RenderedTemplate: rec.RenderedTemplate,
		ClipboardButton:  string(rec.ClipboardButton),
		Host:             rec.Host,
		Link:             rec.Link,
		ExpiresAt:        rec.Expires.UnixMilli(),
	})
}
