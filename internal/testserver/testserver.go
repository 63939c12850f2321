// Package testserver starts the real HTTP application for client-side tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/database"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/entrypoint"
)

// Config returns an application config backed by an in-memory database with
// cheap bcrypt and no background tasks.
func Config() *config.Config {
	return &config.Config{
		Database: config.Database{Path: database.MemoryPath},
		Auth: config.Auth{
			SessionSecret:     "testserver-secret",
			SessionLifetime:   time.Hour,
			TokenExpiry:       time.Hour,
			BcryptCost:        4,
			PasswordMinLength: 8,
			MaxLoginAttempts:  5,
			RateLimitWindow:   time.Minute,
			LockoutDuration:   time.Minute,
		},
	}
}

// Start serves the application built from cfg, or from Config() when cfg is
// nil, and tears it down with the test.
func Start(t testing.TB, cfg *config.Config) *httptest.Server {
	t.Helper()

	if cfg == nil {
		cfg = Config()
	}
	app, err := entrypoint.NewApp(cfg, "test", zerolog.Nop())
	require.NoError(t, err)

	server := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		server.Close()
		app.Shutdown(context.Background())
		app.Close()
	})
	return server
}
