package entrypoint

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/auth"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/database"
	auditRepo "github.com/NicholasWachira-OSN/OSN-V2/internal/database/audit"
	http_controllers "github.com/NicholasWachira-OSN/OSN-V2/internal/http"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/logger"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/metrics"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/scheduler"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/tasks"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/youtube"
)

// App holds every long-lived component of the server.
type App struct {
	Router *gin.Engine

	db             *database.Database
	auditService   *audit.Service
	sessionManager *auth.SessionManager
	authController *auth.AuthController
	taskClient     *tasks.Client
	maintenance    *scheduler.MaintenanceScheduler
	taskCancel     context.CancelFunc
	log            zerolog.Logger
}

// NewApp wires the server. Background workers are not started until Start.
func NewApp(cfg *config.Config, version string, log zerolog.Logger) (*App, error) {
	app := &App{log: log}

	db, err := database.NewDatabase(cfg.Database.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	sqlDB, err := db.DB.DB()
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}

	sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize session manager: %w", err)
	}
	app.sessionManager = sessionManager

	csrfSecret, err := sessionSecret(cfg.Auth.SessionSecret, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	app.auditService = audit.NewService(auditRepo.NewRepository(db.DB), log)
	authService := auth.NewService(db.DB, cfg.Auth)
	authMiddleware := auth.NewMiddleware(authService, sessionManager)
	app.authController = auth.NewAuthController(auth.ControllerConfig{
		Service:        authService,
		SessionManager: sessionManager,
		Audit:          app.auditService,
		Metrics:        m,
		Auth:           cfg.Auth,
		DebugEndpoints: cfg.Debug.Endpoints,
		Logger:         log,
	})

	if cfg.YouTube.APIKey == "" {
		log.Warn().Msg("YOUTUBE_API_KEY is not set; live-details lookups will report missing_api_key")
	}
	youtubeClient := youtube.NewClient(cfg.YouTube, log, m)

	if cfg.Tasks.Enabled {
		app.taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize task queue: %w", err)
		}
		app.taskClient.Register(
			tasks.NewCleanupAuditEventsQueue(app.auditService, log),
			tasks.NewPurgeExpiredTokensQueue(authService, log),
		)
		app.maintenance = scheduler.NewMaintenanceScheduler(
			app.taskClient, cfg.Maintenance.Schedule, cfg.Audit.RetentionDays, log)
	}

	if count, err := authService.GetUserCount(); err == nil {
		log.Info().Int64("users", count).Msg("User store ready")
	}

	app.Router = http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		AuditService:   app.auditService,
		Logger:         log,
		Metrics:        m,
		AuthService:    authService,
		SessionManager: sessionManager,
		AuthMiddleware: authMiddleware,
		AuthController: app.authController,
		CSRFSecret:     csrfSecret,
		YouTube:        youtubeClient,
		TaskClient:     app.taskClient,
		Maintenance:    app.maintenance,
		Auth:           cfg.Auth,
		CORS:           cfg.CORS,
		Debug:          cfg.Debug,
		Version:        version,
	})

	return app, nil
}

// sessionSecret returns the CSRF key, generating one when none is configured.
func sessionSecret(configured string, log zerolog.Logger) ([]byte, error) {
	if configured != "" {
		return auth.SecretKey(configured), nil
	}
	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	log.Warn().Msg("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return auth.SecretKey(secret), nil
}

// Start launches the task workers and the maintenance scheduler.
func (a *App) Start(ctx context.Context) error {
	if a.taskClient == nil {
		return nil
	}

	var taskCtx context.Context
	taskCtx, a.taskCancel = context.WithCancel(ctx)
	a.taskClient.Start(taskCtx)

	if err := a.maintenance.Start(taskCtx); err != nil {
		return fmt.Errorf("failed to start maintenance scheduler: %w", err)
	}
	return nil
}

// Shutdown stops background work, waiting at most until ctx is done.
func (a *App) Shutdown(ctx context.Context) {
	if a.maintenance != nil {
		a.maintenance.Stop()
	}
	if a.taskClient != nil && a.taskCancel != nil {
		a.taskClient.Stop(ctx)
		a.taskCancel()
	}
	if a.auditService != nil {
		a.auditService.Wait()
	}
}

// Close releases every resource. Call after Shutdown.
func (a *App) Close() {
	if a.authController != nil {
		a.authController.Stop()
	}
	if a.sessionManager != nil {
		a.sessionManager.Close()
	}
	if a.taskClient != nil {
		if err := a.taskClient.Close(); err != nil {
			a.log.Error().Err(err).Msg("Error closing task client")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Error().Err(err).Msg("Error closing database")
		}
	}
}

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts down gracefully.
func Serve(app *App, cfg *config.Config) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		app.log.Info().Str("addr", addr).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	app.log.Info().Dur("timeout", timeout).Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work first, then drain connections
	app.Shutdown(ctx)

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	app.log.Info().Msg("Server exiting")
	return nil
}

// Run initialises logging, wires the app and serves it.
func Run(cfg *config.Config, version string) {
	log := logger.Init(cfg.Logging)
	log.Info().Str("version", version).Msg("Starting OSN API")

	app, err := NewApp(cfg, version, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer app.Close()

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start background workers")
	}

	if err := Serve(app, cfg); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
	}
}
