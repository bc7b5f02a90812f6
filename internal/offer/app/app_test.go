package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func baseConfig() Config {
	return Config{
		AuthorityURL:         "https://authority.example",
		PageOrigin:           "https://grain.example",
		TokenLifetime:        5 * time.Minute,
		Env:                  "dev",
		LogLevel:             "error",
		LogFormat:            "text",
		Port:                 0,
		ShutdownGracePeriod:  time.Second,
		HousekeepingInterval: time.Minute,
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("OFFER_AUTHORITY_URL", "https://authority.example")
	t.Setenv("OFFER_AUTHORITY_TOKEN", "svc-credential")
	t.Setenv("OFFER_PAGE_ORIGIN", "https://grain.example")
	t.Setenv("OFFER_TOKEN_LIFETIME", "2m")

	cfg := LoadConfig()
	require.Equal(t, "https://authority.example", cfg.AuthorityURL)
	require.Equal(t, "svc-credential", cfg.AuthorityToken)
	require.Equal(t, "https://grain.example", cfg.PageOrigin)
	require.Empty(t, cfg.APIHost)
	require.Equal(t, 2*time.Minute, cfg.TokenLifetime)
}

func TestNewValidation(t *testing.T) {
	t.Run("requires authority url", func(t *testing.T) {
		cfg := baseConfig()
		cfg.AuthorityURL = ""
		_, err := New(cfg)
		require.Error(t, err)
	})

	t.Run("requires page origin", func(t *testing.T) {
		cfg := baseConfig()
		cfg.PageOrigin = ""
		_, err := New(cfg)
		require.Error(t, err)
	})
}

func TestNewDerivesAPIHost(t *testing.T) {
	t.Run("defaults to the page origin host", func(t *testing.T) {
		application, err := New(baseConfig())
		require.NoError(t, err)
		defer func() { _ = application.db.Close() }()

		require.Equal(t, "grain.example", application.cfg.APIHost)
		require.Equal(t, "grain.example", application.offerService.APIHost)
	})

	t.Run("keeps port from the origin", func(t *testing.T) {
		cfg := baseConfig()
		cfg.PageOrigin = "http://localhost:6080"
		application, err := New(cfg)
		require.NoError(t, err)
		defer func() { _ = application.db.Close() }()

		require.Equal(t, "localhost:6080", application.cfg.APIHost)
	})

	t.Run("explicit host wins", func(t *testing.T) {
		cfg := baseConfig()
		cfg.APIHost = "api.grain.example"
		application, err := New(cfg)
		require.NoError(t, err)
		defer func() { _ = application.db.Close() }()

		require.Equal(t, "api.grain.example", application.cfg.APIHost)
	})
}

func TestHostFromOrigin(t *testing.T) {
	t.Parallel()

	host, err := hostFromOrigin("https://grain.example")
	require.NoError(t, err)
	require.Equal(t, "grain.example", host)

	_, err = hostFromOrigin("not a url")
	require.Error(t, err)
}
