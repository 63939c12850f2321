package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		CORS
		YouTube
		Tasks
		Maintenance
		Audit
		Logging
		Metrics
		Debug
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Auth struct {
		SessionSecret     string
		SessionLifetime   time.Duration
		TokenExpiry       time.Duration
		BcryptCost        int
		SecureCookies     bool // Set to false for local dev without HTTPS
		PasswordMinLength int
		TrustedOrigins    []string // Hosts allowed to POST with a foreign Referer

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 1m)
		LockoutDuration  time.Duration // How long to lock out (default: 1m)
	}
	CORS struct {
		AllowedOrigins []string
	}
	YouTube struct {
		APIKey    string
		BaseURL   string
		CacheTTL  time.Duration // 0 disables caching
		CacheSize int
	}
	Tasks struct {
		Enabled         bool
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
	Maintenance struct {
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
	Audit struct {
		RetentionDays int
	}
	Logging struct {
		Level      string
		Format     string // json, console
		File       string // empty logs to stdout
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}
	Metrics struct {
		Enabled bool
	}
	Debug struct {
		Endpoints bool
	}
)

// splitList turns a comma separated env value into a trimmed slice.
func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func NewConfig() *Config {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "2h")  // 120 minutes
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)         // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)    // HTTPS-only cookies
	v.SetDefault("auth_password_min_length", 8)  // Minimum length
	v.SetDefault("auth_trusted_origins", "")     // e.g. "app.example.com"
	v.SetDefault("auth_max_login_attempts", 5)   // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "1m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "1m")  // Lockout duration

	v.SetDefault("cors_allowed_origins", DefaultSPAOrigin)

	// YouTube proxy defaults
	v.SetDefault("youtube_api_key", "")
	v.SetDefault("youtube_api_base_url", DefaultYouTubeAPIBaseURL)
	v.SetDefault("youtube_cache_ttl", "15s")
	v.SetDefault("youtube_cache_size", 256)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 1)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	v.SetDefault("maintenance_schedule", "0 3 * * *")
	v.SetDefault("audit_retention_days", 30)

	// Logging defaults
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 50)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 28)

	v.SetDefault("metrics_enabled", true)
	v.SetDefault("debug_endpoints", false)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			SessionSecret:     v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:   v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:       v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:        v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:     v.GetBool("AUTH_SECURE_COOKIES"),
			PasswordMinLength: v.GetInt("AUTH_PASSWORD_MIN_LENGTH"),
			TrustedOrigins:    splitList(v.GetString("AUTH_TRUSTED_ORIGINS")),
			MaxLoginAttempts:  v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:   v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:   v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		CORS: CORS{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		YouTube: YouTube{
			APIKey:    v.GetString("YOUTUBE_API_KEY"),
			BaseURL:   v.GetString("YOUTUBE_API_BASE_URL"),
			CacheTTL:  v.GetDuration("YOUTUBE_CACHE_TTL"),
			CacheSize: v.GetInt("YOUTUBE_CACHE_SIZE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Maintenance: Maintenance{
			Schedule: v.GetString("MAINTENANCE_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
		},
		Logging: Logging{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			File:       v.GetString("LOG_FILE"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Metrics: Metrics{
			Enabled: v.GetBool("METRICS_ENABLED"),
		},
		Debug: Debug{
			Endpoints: v.GetBool("DEBUG_ENDPOINTS"),
		},
	}
}
