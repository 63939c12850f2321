package http

import (
	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/auth"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/database"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/metrics"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/scheduler"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/tasks"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/youtube"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	AuditService *audit.Service
	Logger       zerolog.Logger
	Metrics      *metrics.Metrics

	// Authentication
	AuthService    *auth.Service
	SessionManager *auth.SessionManager
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController
	CSRFSecret     []byte

	// YouTube live-details proxy
	YouTube *youtube.Client

	// Task queue and maintenance, both optional
	TaskClient  *tasks.Client
	Maintenance *scheduler.MaintenanceScheduler

	// Settings
	Auth  config.Auth
	CORS  config.CORS
	Debug config.Debug

	// Application info
	Version string
}
