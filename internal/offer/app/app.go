package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/troyjfarrell/offergate/internal/offer/http"
	"github.com/troyjfarrell/offergate/internal/offer/issuer"
	"github.com/troyjfarrell/offergate/internal/offer/service"
	"github.com/troyjfarrell/offergate/internal/offer/session"
	"github.com/troyjfarrell/offergate/internal/offer/store"
	"github.com/troyjfarrell/offergate/internal/offer/store/drivers/memory"
	"github.com/troyjfarrell/offergate/internal/offer/store/drivers/sqlite"
	"github.com/troyjfarrell/offergate/pkg/cryptox"
	"github.com/troyjfarrell/offergate/pkg/jwtx"
	"github.com/troyjfarrell/offergate/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the offergate service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	verifier jwtx.Verifier

	// Services
	memo                *service.TokenMemo
	offerService        *service.OfferService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "offergate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if cfg.AuthorityURL == "" {
		return nil, errors.New("OFFER_AUTHORITY_URL is required")
	}
	if cfg.PageOrigin == "" {
		return nil, errors.New("OFFER_PAGE_ORIGIN is required")
	}
	if cfg.APIHost == "" {
		host, err := hostFromOrigin(cfg.PageOrigin)
		if err != nil {
			return nil, fmt.Errorf("failed to derive API host from page origin: %w", err)
		}
		app.cfg.APIHost = host
	}

	// Set the key path for token sealing at rest
	cryptox.SetSealKeyPath(cfg.SealKeyPath)

	if err := app.initStore(); err != nil {
		return nil, err
	}

	if err := app.initVerifier(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("offergate starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down offergate...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing store", "error", err)
		return err
	}

	app.logger.Info("offergate stopped")
	return nil
}

// initStore selects the handoff store driver. With no database file the
// records live in memory, which is fine for a single process: they only
// need to outlive a page navigation, not a restart.
func (app *Application) initStore() error {
	if app.cfg.DatabaseFile == "" {
		app.db = memory.NewStore()
		app.logger.Info("using in-memory handoff store")
		return nil
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "file", app.cfg.DatabaseFile)
	return nil
}

// hostFromOrigin extracts the host (with port, if any) from an origin URL.
func hostFromOrigin(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("origin %q has no host", origin)
	}
	return u.Host, nil
}

func (app *Application) initVerifier() error {
	if app.cfg.SessionPublicKey == "" {
		app.logger.Warn("no session public key configured; account sessions disabled")
		return nil
	}

	pub, err := jwtx.ParsePublicKey(app.cfg.SessionPublicKey)
	if err != nil {
		return fmt.Errorf("failed to parse session public key: %w", err)
	}

	app.verifier = jwtx.NewEdDSAVerifier(pub, app.cfg.SessionIssuer)
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	client := &issuer.Client{
		BaseURL:    app.cfg.AuthorityURL,
		Credential: app.cfg.AuthorityToken,
	}

	app.memo = service.NewTokenMemo(client, app.cfg.TokenLifetime)

	app.offerService = &service.OfferService{
		Memo:       app.memo,
		Store:      app.db,
		PageOrigin: app.cfg.PageOrigin,
		APIHost:    app.cfg.APIHost,
		Lifetime:   app.cfg.TokenLifetime,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.memo,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.offerService,
		&session.Resolver{Verifier: app.verifier},
		app.logger,
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
