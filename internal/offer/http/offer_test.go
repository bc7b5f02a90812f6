package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/troyjfarrell/offergate/internal/offer/domain"
	"github.com/troyjfarrell/offergate/internal/offer/rpc"
	"github.com/troyjfarrell/offergate/internal/offer/service"
	"github.com/troyjfarrell/offergate/internal/offer/session"
	"github.com/troyjfarrell/offergate/internal/offer/store/drivers/memory"
	"github.com/troyjfarrell/offergate/pkg/slogx"
)

const (
	testPageOrigin = "https://grain.example"
	testAPIHost    = "api.grain.example"
	testToken      = "secret-issued-token"
)

type fakeIssuer struct {
	err error
}

func (f *fakeIssuer) Issue(ctx context.Context, params domain.IssuanceParams) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return testToken, nil
}

func newTestRouter(t *testing.T, iss service.Issuer) *Router {
	t.Helper()

	logger := slogx.New(slogx.Config{Service: "offergate-test", Output: io.Discard})

	st := memory.NewStore()
	offers := &service.OfferService{
		Memo:       service.NewTokenMemo(iss, 5*time.Minute),
		Store:      st,
		PageOrigin: testPageOrigin,
		APIHost:    testAPIHost,
		Lifetime:   5 * time.Minute,
	}

	router := NewRouter("test", st, offers, &session.Resolver{}, logger)
	router.ApplyRoutes()
	return router
}

func postOffer(t *testing.T, router *Router, payload string, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	body := `{"renderTemplate":` + payload + `}`
	req := httptest.NewRequest(http.MethodPost, "/v1/offer/render-template", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://app.external")
	req.Header.Set(GrainIDHeader, "grain-1")
	req.Header.Set(GrainTitleHeader, "My Grain")
	req.Header.Set(session.SharedLinkHeader, "parent-token")
	if mutate != nil {
		mutate(req)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeReply(t *testing.T, rec *httptest.ResponseRecorder) rpc.Reply {
	t.Helper()

	var reply rpc.Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reply))
	return reply
}

func TestRenderTemplateEndToEnd(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeIssuer{})

	rec := postOffer(t, router,
		`{"rpcId":"r1","template":"token=$API_TOKEN host=$API_HOST slug=$GRAIN_TITLE_SLUG","clipboardButton":"left"}`,
		nil,
	)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "https://app.external", rec.Header().Get("Access-Control-Allow-Origin"))

	reply := decodeReply(t, rec)
	require.Equal(t, "r1", reply.RPCID)
	require.Empty(t, reply.Error)
	require.True(t, strings.HasPrefix(reply.URI, testPageOrigin+"/offer-template.html#"), reply.URI)

	// The raw token never appears in the reply, only the opaque reference.
	require.NotContains(t, rec.Body.String(), testToken)

	reference := strings.TrimPrefix(reply.URI, testPageOrigin+"/offer-template.html#")
	require.NotEmpty(t, reference)

	// Redeem the reference on the handoff endpoint.
	redeemReq := httptest.NewRequest(http.MethodGet, "/v1/offer/handoff/"+reference, nil)
	redeemRec := httptest.NewRecorder()
	router.ServeHTTP(redeemRec, redeemReq)

	require.Equal(t, http.StatusOK, redeemRec.Code)
	require.Equal(t, "no-store", redeemRec.Header().Get("Cache-Control"))

	var handoff struct {
		Token            string `json:"token"`
		RenderedTemplate string `json:"renderedTemplate"`
		ClipboardButton  string `json:"clipboardButton"`
		Host             string `json:"host"`
	}
	require.NoError(t, json.Unmarshal(redeemRec.Body.Bytes(), &handoff))
	require.Equal(t, testToken, handoff.Token)
	require.Equal(t, "token="+testToken+" host="+testAPIHost+" slug=my-grain", handoff.RenderedTemplate)
	require.Equal(t, "left", handoff.ClipboardButton)
	require.Equal(t, testAPIHost, handoff.Host)

	// The reference is single-use.
	secondRec := httptest.NewRecorder()
	router.ServeHTTP(secondRec, httptest.NewRequest(http.MethodGet, "/v1/offer/handoff/"+reference, nil))
	require.Equal(t, http.StatusNotFound, secondRec.Code)
}

func TestRenderTemplateClientAppLink(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeIssuer{})

	rec := postOffer(t, router, `{"rpcId":"r1","template":"$API_TOKEN","clientapp":"MyApp"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	reply := decodeReply(t, rec)
	reference := strings.TrimPrefix(reply.URI, testPageOrigin+"/offer-template.html#")

	redeemRec := httptest.NewRecorder()
	router.ServeHTTP(redeemRec, httptest.NewRequest(http.MethodGet, "/v1/offer/handoff/"+reference, nil))
	require.Equal(t, http.StatusOK, redeemRec.Code)

	var handoff struct {
		Link string `json:"link"`
	}
	require.NoError(t, json.Unmarshal(redeemRec.Body.Bytes(), &handoff))
	require.Equal(t, "myapp:https://"+testAPIHost+"#"+testToken, handoff.Link)
}

func TestRenderTemplateDropsUncorrelatable(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeIssuer{})

	t.Run("no rpcId", func(t *testing.T) {
		rec := postOffer(t, router, `{"template":"$API_TOKEN"}`, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())
	})

	t.Run("no renderTemplate payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/offer/render-template", strings.NewReader(`{"other":1}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("unparseable body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/offer/render-template", strings.NewReader(`{{{`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestRenderTemplateValidationErrors(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeIssuer{})

	t.Run("blank template", func(t *testing.T) {
		rec := postOffer(t, router, `{"rpcId":"r1","template":""}`, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		reply := decodeReply(t, rec)
		require.Equal(t, "r1", reply.RPCID)
		require.Equal(t, "invalid_request", reply.Error)
	})

	t.Run("missing grain context", func(t *testing.T) {
		rec := postOffer(t, router, `{"rpcId":"r2","template":"$API_TOKEN"}`, func(r *http.Request) {
			r.Header.Del(GrainIDHeader)
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_grain_context", decodeReply(t, rec).Error)
	})

	t.Run("no session", func(t *testing.T) {
		rec := postOffer(t, router, `{"rpcId":"r3","template":"$API_TOKEN"}`, func(r *http.Request) {
			r.Header.Del(session.SharedLinkHeader)
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "no_session", decodeReply(t, rec).Error)
	})
}

func TestRenderTemplateIssuanceErrorVerbatim(t *testing.T) {
	t.Parallel()

	router := newTestRouter(t, &fakeIssuer{err: errors.New("role_not_grantable")})

	rec := postOffer(t, router, `{"rpcId":"r1","template":"$API_TOKEN"}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	reply := decodeReply(t, rec)
	require.Equal(t, "r1", reply.RPCID)
	require.Equal(t, "role_not_grantable", reply.Error)
}
