package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/troyjfarrell/offergate/internal/offer/service"
	"github.com/troyjfarrell/offergate/internal/offer/session"
	"github.com/troyjfarrell/offergate/internal/offer/store"
	"github.com/troyjfarrell/offergate/pkg/httpx"
	"github.com/troyjfarrell/offergate/pkg/slogx"

	_ "github.com/troyjfarrell/offergate/api/offer" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store        store.Store
	OfferService *service.OfferService
	Sessions     *session.Resolver
}

func NewRouter(
	buildVersion string,
	st store.Store,
	offers *service.OfferService,
	sessions *session.Resolver,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		OfferService: offers,
		Sessions:     sessions,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerOffer()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Offergate API
//	@version		0.1.0
//	@description	Cross-origin render-template RPC service. Embedded apps ask
//	@description	for a scoped API token baked into a text template; the reply
//	@description	is an opaque single-use handoff reference, never the token.
//
//	@contact.name	Troy J. Farrell
//	@contact.url	https://github.com/troyjfarrell/offergate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:8080
//	@BasePath		/
//
//	@schemes		http https
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerOffer() {
	offerHandler := &OfferHandler{
		Offers:   r.OfferService,
		Sessions: r.Sessions,
	}

	// POST /v1/offer/render-template - strict limit (each call may hit the
	// issuance authority)
	r.Mux.Handle("POST /v1/offer/render-template",
		httpx.Chain(http.HandlerFunc(offerHandler.RenderTemplate),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	handoffHandler := &HandoffHandler{Store: r.store}

	// GET /v1/offer/handoff/{reference} - moderate limit (one redemption
	// per issued offer plus retries)
	r.Mux.Handle("GET /v1/offer/handoff/{reference}",
		httpx.Chain(http.HandlerFunc(handoffHandler.Redeem),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
