package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/metrics"
)

const (
	// XSRFCookieName is the script-readable cookie holding the masked token.
	XSRFCookieName = "XSRF-TOKEN"
	// XSRFHeaderName is the header the client echoes the token in.
	XSRFHeaderName = "X-XSRF-TOKEN"
	// csrfSecretCookieName holds the unmasked secret; never readable by scripts.
	csrfSecretCookieName = "osn_csrf"

	csrfMaxAge = 12 * 60 * 60

	// ContextKeyCSRFToken holds the masked token issued for this request.
	ContextKeyCSRFToken = "csrf_token"
)

// CSRFOptions configures CSRFMiddleware.
type CSRFOptions struct {
	Secret         []byte
	Secure         bool
	TrustedOrigins []string
	// ExemptPaths skip verification, e.g. token login endpoints.
	ExemptPaths []string
	Metrics     *metrics.Metrics
}

// CSRFMiddleware creates a Gin middleware for CSRF protection.
// Every response carries a fresh XSRF-TOKEN cookie. Mutating requests must
// echo it in X-XSRF-TOKEN unless they carry a valid bearer token or hit an
// exempt path.
func CSRFMiddleware(opts CSRFOptions, authService *Service) gin.HandlerFunc {
	exempt := make(map[string]bool, len(opts.ExemptPaths))
	for _, p := range opts.ExemptPaths {
		exempt[p] = true
	}

	csrfProtect := csrf.Protect(
		opts.Secret,
		csrf.Secure(opts.Secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.MaxAge(csrfMaxAge),
		csrf.CookieName(csrfSecretCookieName),
		csrf.RequestHeader(XSRFHeaderName),
		csrf.TrustedOrigins(opts.TrustedOrigins),
		csrf.ErrorHandler(csrfErrorHandler(opts.Metrics)),
	)

	return func(c *gin.Context) {
		if exempt[c.Request.URL.Path] || isAPIWithValidBearer(c, authService) {
			c.Next()
			return
		}

		r := c.Request
		if !opts.Secure {
			// Without TLS there is no Referer to trust, so skip that check.
			r = csrf.PlaintextHTTPRequest(r)
		}

		passed := false
		handler := csrfProtect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			token := csrf.Token(r)
			c.Set(ContextKeyCSRFToken, token)
			http.SetCookie(w, &http.Cookie{
				Name:     XSRFCookieName,
				Value:    url.QueryEscape(token),
				Path:     "/",
				MaxAge:   csrfMaxAge,
				Secure:   opts.Secure,
				HttpOnly: false,
				SameSite: http.SameSiteLaxMode,
			})
			// Session middleware runs after this and layers its context on top.
			c.Request = r
			c.Next()
		}))

		handler.ServeHTTP(c.Writer, r)
		if !passed {
			c.Abort()
		}
	}
}

// csrfErrorHandler rejects the request with a JSON 403.
func csrfErrorHandler(m *metrics.Metrics) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.CSRFRejected()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"CSRF token mismatch."}`))
	})
}

// isAPIWithValidBearer checks if this request carries a valid bearer token.
// If authService is nil, it only checks for header presence.
func isAPIWithValidBearer(c *gin.Context, authService *Service) bool {
	token := BearerToken(c)
	if token == "" {
		return false
	}
	if authService == nil {
		return true
	}
	_, err := authService.ValidateToken(token)
	return err == nil
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetCSRFToken retrieves the masked CSRF token from the Gin context.
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(ContextKeyCSRFToken); exists {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
