package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/metrics"
)

// Paths served without a CSRF token because the caller has no cookies yet.
const (
	MobileLoginPath    = "/api/v2/mobile/login"
	MobileRegisterPath = "/api/v2/mobile/register"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type registerRequest struct {
	Name                 string `json:"name" binding:"required,max=255"`
	Email                string `json:"email" binding:"required,email,max=255"`
	Password             string `json:"password" binding:"required"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type tokenResponse struct {
	User      *entities.User `json:"user"`
	Token     string         `json:"token"`
	TokenType string         `json:"token_type"`
}

// ControllerConfig wires the collaborators of AuthController.
type ControllerConfig struct {
	Service        *Service
	SessionManager *SessionManager
	Audit          *audit.Service
	Metrics        *metrics.Metrics
	Auth           config.Auth
	DebugEndpoints bool
	Logger         zerolog.Logger
}

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	audit          *audit.Service
	metrics        *metrics.Metrics
	config         config.Auth
	debug          bool
	rateLimiter    *RateLimiter
	log            zerolog.Logger
}

// NewAuthController creates a new authentication controller.
func NewAuthController(cfg ControllerConfig) *AuthController {
	useJSONFieldNames()

	return &AuthController{
		service:        cfg.Service,
		sessionManager: cfg.SessionManager,
		audit:          cfg.Audit,
		metrics:        cfg.Metrics,
		config:         cfg.Auth,
		debug:          cfg.DebugEndpoints,
		rateLimiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.Auth.MaxLoginAttempts,
			WindowDuration:  cfg.Auth.RateLimitWindow,
			LockoutDuration: cfg.Auth.LockoutDuration,
		}),
		log: cfg.Logger.With().Str("component", "auth").Logger(),
	}
}

// RegisterRoutes registers authentication routes on the router.
// Both the bare paths and their /api/v2 aliases are served.
func (ac *AuthController) RegisterRoutes(router gin.IRouter, requireAuth gin.HandlerFunc) {
	router.GET("/sanctum/csrf-cookie", ac.CSRFCookie)

	for _, prefix := range []string{"", "/api/v2"} {
		router.POST(prefix+"/login", ac.Login)
		router.POST(prefix+"/register", ac.Register)
		router.POST(prefix+"/logout", ac.Logout)
		router.GET(prefix+"/user", requireAuth, ac.CurrentUser)
	}

	router.POST(MobileLoginPath, ac.MobileLogin)
	router.POST(MobileRegisterPath, ac.MobileRegister)
	router.POST("/api/v2/mobile/logout", requireAuth, ac.MobileLogout)

	if ac.debug {
		router.GET("/debug/session", ac.DebugSession)
	}
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	if ac.rateLimiter != nil {
		ac.rateLimiter.Stop()
	}
}

// CSRFCookie is a no-op whose response carries the XSRF-TOKEN cookie set
// by the CSRF middleware.
func (ac *AuthController) CSRFCookie(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Login authenticates with email and password and starts a session.
func (ac *AuthController) Login(c *gin.Context) {
	user, ok := ac.authenticate(c, entities.AuditActionLogin)
	if !ok {
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		ac.serverError(c, "failed to create session", err)
		return
	}

	ac.record(c, user.ID, entities.AuditActionLogin, "Signed in", true)
	c.JSON(http.StatusOK, user)
}

// Register creates an account and starts a session for it.
func (ac *AuthController) Register(c *gin.Context) {
	user, ok := ac.register(c, entities.AuditActionRegister)
	if !ok {
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		ac.serverError(c, "failed to create session", err)
		return
	}

	ac.record(c, user.ID, entities.AuditActionRegister, "Registered", true)
	c.JSON(http.StatusCreated, user)
}

// Logout destroys the session. It succeeds even without one.
func (ac *AuthController) Logout(c *gin.Context) {
	userID := ac.sessionManager.GetUserID(c.Request)

	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		ac.serverError(c, "failed to destroy session", err)
		return
	}

	if userID != 0 {
		ac.record(c, userID, entities.AuditActionLogout, "Signed out", true)
	}
	c.Status(http.StatusNoContent)
}

// CurrentUser returns the authenticated user.
func (ac *AuthController) CurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, GetUser(c))
}

// MobileLogin authenticates and issues a bearer token instead of a session.
func (ac *AuthController) MobileLogin(c *gin.Context) {
	user, ok := ac.authenticate(c, entities.AuditActionMobileLogin)
	if !ok {
		return
	}

	token, err := ac.service.GenerateToken(user.ID)
	if err != nil {
		ac.serverError(c, "failed to issue token", err)
		return
	}

	ac.record(c, user.ID, entities.AuditActionMobileLogin, "Issued API token", true)
	c.JSON(http.StatusOK, tokenResponse{User: user, Token: token, TokenType: "Bearer"})
}

// MobileRegister creates an account and issues a bearer token.
func (ac *AuthController) MobileRegister(c *gin.Context) {
	user, ok := ac.register(c, entities.AuditActionMobileRegister)
	if !ok {
		return
	}

	token, err := ac.service.GenerateToken(user.ID)
	if err != nil {
		ac.serverError(c, "failed to issue token", err)
		return
	}

	ac.record(c, user.ID, entities.AuditActionMobileRegister, "Registered with API token", true)
	c.JSON(http.StatusCreated, tokenResponse{User: user, Token: token, TokenType: "Bearer"})
}

// MobileLogout revokes the bearer token the request was made with. A caller
// authenticated by session cookie has no token of its own, so nothing is
// revoked and the response is still 204.
func (ac *AuthController) MobileLogout(c *gin.Context) {
	userID := GetUserID(c)
	if GetAuthType(c) != AuthTypeBearer {
		c.Status(http.StatusNoContent)
		return
	}

	err := ac.service.RevokeToken(BearerToken(c))
	if err != nil && !errors.Is(err, ErrInvalidToken) {
		ac.serverError(c, "failed to revoke token", err)
		return
	}

	ac.record(c, userID, entities.AuditActionMobileLogout, "Revoked API token", true)
	c.Status(http.StatusNoContent)
}

// DebugSession reports what the server knows about the caller's session.
func (ac *AuthController) DebugSession(c *gin.Context) {
	cookie := ac.sessionManager.Cookie
	body := gin.H{
		"session_id":    ac.sessionManager.Token(c.Request.Context()),
		"authenticated": ac.sessionManager.IsAuthenticated(c.Request),
		"user_id":       ac.sessionManager.GetUserID(c.Request),
		"cookie": gin.H{
			"name":      cookie.Name,
			"secure":    cookie.Secure,
			"http_only": cookie.HttpOnly,
			"same_site": sameSiteName(cookie.SameSite),
			"lifetime":  ac.sessionManager.Lifetime.String(),
		},
		"has_xsrf_cookie":   hasCookie(c, XSRFCookieName),
		"csrf_token_issued": GetCSRFToken(c) != "",
	}
	if data := ac.sessionManager.GetSessionData(c.Request); data != nil {
		body["login_at"] = data.LoginAt
	}
	c.JSON(http.StatusOK, body)
}

// authenticate validates a login request and checks the credentials,
// writing the error response itself when it returns false.
func (ac *AuthController) authenticate(c *gin.Context, action string) (*entities.User, bool) {
	var req loginRequest
	verr, err := bindJSON(c, &req)
	if err != nil {
		ac.malformed(c, action)
		return nil, false
	}
	if !verr.Empty() {
		ac.metrics.AuthAttempt(action, metrics.OutcomeInvalid)
		c.JSON(http.StatusUnprocessableEntity, verr.Body())
		return nil, false
	}

	clientIP := c.ClientIP()
	if allowed, retryAfter := ac.rateLimiter.Allow(clientIP, req.Email); !allowed {
		ac.throttled(c, action, retryAfter)
		return nil, false
	}

	user, err := ac.service.Authenticate(req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, ErrInvalidCredentials) {
			ac.serverError(c, "failed to authenticate", err)
			return nil, false
		}

		ac.rateLimiter.RecordFailure(clientIP, req.Email)
		ac.metrics.AuthAttempt(action, metrics.OutcomeFailure)
		ac.record(c, 0, action, "Invalid credentials for "+req.Email, false)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return nil, false
	}

	ac.rateLimiter.RecordSuccess(clientIP, req.Email)
	ac.metrics.AuthAttempt(action, metrics.OutcomeSuccess)
	return user, true
}

// register validates a registration request and creates the account,
// writing the error response itself when it returns false.
func (ac *AuthController) register(c *gin.Context, action string) (*entities.User, bool) {
	var req registerRequest
	verr, err := bindJSON(c, &req)
	if err != nil {
		ac.malformed(c, action)
		return nil, false
	}

	ac.validatePassword(verr, req)

	if !verr.Has("email") {
		taken, err := ac.service.EmailTaken(req.Email)
		if err != nil {
			ac.serverError(c, "failed to check email", err)
			return nil, false
		}
		if taken {
			verr.Add("email", "The email has already been taken.")
		}
	}

	if !verr.Empty() {
		ac.metrics.AuthAttempt(action, metrics.OutcomeInvalid)
		c.JSON(http.StatusUnprocessableEntity, verr.Body())
		return nil, false
	}

	user, err := ac.service.Register(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			verr.Add("email", "The email has already been taken.")
			c.JSON(http.StatusUnprocessableEntity, verr.Body())
			return nil, false
		}
		ac.serverError(c, "failed to register user", err)
		return nil, false
	}

	ac.metrics.AuthAttempt(action, metrics.OutcomeSuccess)
	return user, true
}

// validatePassword applies the length and confirmation rules that the
// binding tags cannot express.
func (ac *AuthController) validatePassword(verr *ValidationError, req registerRequest) {
	if req.Password == "" {
		return
	}

	minLen := ac.config.PasswordMinLength
	if minLen <= 0 {
		minLen = 8
	}
	if len([]rune(req.Password)) < minLen {
		verr.Add("password", fieldMessage("password", "min", fmt.Sprint(minLen)))
	}
	if len(req.Password) > MaxPasswordBytes {
		verr.Add("password", fieldMessage("password", "max", fmt.Sprint(MaxPasswordBytes)))
	}
	if req.Password != req.PasswordConfirmation {
		verr.Add("password", "The password field confirmation does not match.")
	}
}

func (ac *AuthController) throttled(c *gin.Context, action string, retryAfter time.Duration) {
	seconds := retryAfterSeconds(retryAfter)
	ac.metrics.AuthAttempt(action, metrics.OutcomeThrottled)
	ac.log.Warn().Str("ip", c.ClientIP()).Str("action", action).Str("retry_after", seconds).Msg("Login throttled")

	c.Header("Retry-After", seconds)
	c.JSON(http.StatusTooManyRequests, gin.H{
		"message": "Too many login attempts. Please try again in " + seconds + " seconds.",
	})
}

func (ac *AuthController) malformed(c *gin.Context, action string) {
	ac.metrics.AuthAttempt(action, metrics.OutcomeInvalid)
	c.JSON(http.StatusBadRequest, gin.H{"message": "The request body must be valid JSON."})
}

func (ac *AuthController) serverError(c *gin.Context, msg string, err error) {
	ac.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server Error"})
}

func (ac *AuthController) record(c *gin.Context, userID uint, action, description string, success bool) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(userID, action, description, c.ClientIP(), c.Request.UserAgent(), success)
}

func hasCookie(c *gin.Context, name string) bool {
	_, err := c.Request.Cookie(name)
	return err == nil
}

func sameSiteName(mode http.SameSite) string {
	switch mode {
	case http.SameSiteLaxMode:
		return "lax"
	case http.SameSiteStrictMode:
		return "strict"
	case http.SameSiteNoneMode:
		return "none"
	default:
		return "default"
	}
}
