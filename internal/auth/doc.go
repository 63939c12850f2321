// Package auth implements cookie-session and bearer-token authentication for
// the single-page frontend and mobile clients.
//
// Browser clients first call GET /sanctum/csrf-cookie. Every response sets a
// readable XSRF-TOKEN cookie whose URL-decoded value must be echoed in the
// X-XSRF-TOKEN header of mutating requests. Logging in or registering binds
// the HTTP-only osn_session cookie to the user; GET /api/v2/user then returns
// the account.
//
// Mobile clients use /api/v2/mobile/login and receive an opaque token that is
// sent as "Authorization: Bearer <token>". Only its SHA-256 hash is stored.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=2h            # Session duration
//	AUTH_TOKEN_EXPIRY=720h              # API token expiry
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//	AUTH_PASSWORD_MIN_LENGTH=8          # Registration policy
//
// # Usage
//
//	authService := auth.NewService(db, cfg.Auth)
//	authMiddleware := auth.NewMiddleware(authService, sessionManager)
//	router.Use(authMiddleware.Handler())
//
// Extract the user in handlers:
//
//	user := auth.GetUser(c)
package auth
