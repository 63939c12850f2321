package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		router.Use(RequestMetrics(cfg.Metrics))
	}

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.Auth.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware())
	}

	// CORS must answer preflights before CSRF sees them
	if len(cfg.CORS.AllowedOrigins) > 0 {
		router.Use(cors.New(corsConfig(cfg.CORS.AllowedOrigins)))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(auth.CSRFOptions{
			Secret:         cfg.CSRFSecret,
			Secure:         cfg.Auth.SecureCookies,
			TrustedOrigins: trustedOrigins(cfg.Auth.TrustedOrigins, cfg.CORS.AllowedOrigins),
			ExemptPaths:    []string{auth.MobileLoginPath, auth.MobileRegisterPath},
			Metrics:        cfg.Metrics,
		}, cfg.AuthService))
	}

	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	requireAuth := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
	}
	if cfg.AuthMiddleware != nil {
		router.Use(cfg.AuthMiddleware.Handler())
		requireAuth = cfg.AuthMiddleware.RequireAuth()
	}

	health := NewHealthController(cfg.Database, cfg.TaskClient, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router, requireAuth)
	}

	api := router.Group("/api/v2")
	if cfg.YouTube != nil {
		youtubeController := NewYouTubeController(cfg.YouTube)
		api.GET("/youtube/video/:id/live-details", youtubeController.LiveDetails)
	}
	if cfg.AuditService != nil {
		auditController := NewAuditController(cfg.AuditService)
		api.GET("/audit", requireAuth, auditController.GetAuditEvents)
	}

	if cfg.Debug.Endpoints && cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient, cfg.Maintenance)
		debug := router.Group("/debug", requireAuth)
		debug.GET("/tasks/:id", tasksController.GetTaskStatus)
		if cfg.Maintenance != nil {
			debug.POST("/maintenance", tasksController.RunMaintenance)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})

	return router
}

func corsConfig(origins []string) cors.Config {
	return cors.Config{
		AllowOrigins: origins,
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Accept", "Authorization",
			auth.XSRFHeaderName, "X-Requested-With", RequestIDHeader,
		},
		ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
}

// trustedOrigins merges the configured hosts with the hosts of the CORS
// origins, since the SPA posts cross-origin with credentials.
func trustedOrigins(hosts, corsOrigins []string) []string {
	out := append([]string(nil), hosts...)
	for _, origin := range corsOrigins {
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			continue
		}
		out = append(out, u.Host)
	}
	return out
}
