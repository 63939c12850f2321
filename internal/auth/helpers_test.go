package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/database"
	auditRepo "github.com/NicholasWachira-OSN/OSN-V2/internal/database/audit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testAuthConfig() config.Auth {
	return config.Auth{
		SessionLifetime:   2 * time.Hour,
		TokenExpiry:       time.Hour,
		BcryptCost:        4, // Low cost for faster tests
		SecureCookies:     false,
		PasswordMinLength: 8,
		MaxLoginAttempts:  3,
		RateLimitWindow:   time.Minute,
		LockoutDuration:   time.Minute,
	}
}

type testEnv struct {
	t       *testing.T
	server  *httptest.Server
	client  *http.Client
	service *Service
	audit   *audit.Service
}

func setupTestEnv(t *testing.T, debug bool) *testEnv {
	t.Helper()

	db, err := database.NewDatabase(database.MemoryPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	sqlDB, err := db.DB.DB()
	if err != nil {
		t.Fatalf("failed to get SQL DB: %v", err)
	}

	cfg := testAuthConfig()
	sessionManager, err := NewSessionManager(sqlDB, cfg)
	if err != nil {
		t.Fatalf("failed to create session manager: %v", err)
	}

	service := NewService(db.DB, cfg)
	auditService := audit.NewService(auditRepo.NewRepository(db.DB), zerolog.Nop())
	middleware := NewMiddleware(service, sessionManager)
	controller := NewAuthController(ControllerConfig{
		Service:        service,
		SessionManager: sessionManager,
		Audit:          auditService,
		Auth:           cfg,
		DebugEndpoints: debug,
		Logger:         zerolog.Nop(),
	})

	router := gin.New()
	router.Use(CSRFMiddleware(CSRFOptions{
		Secret:      SecretKey("test-secret"),
		Secure:      false,
		ExemptPaths: []string{MobileLoginPath, MobileRegisterPath},
	}, service))
	router.Use(sessionManager.SessionLoadSave())
	router.Use(middleware.Handler())
	controller.RegisterRoutes(router, middleware.RequireAuth())

	server := httptest.NewServer(router)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("failed to create cookie jar: %v", err)
	}

	t.Cleanup(func() {
		server.Close()
		auditService.Wait()
		controller.Stop()
		sessionManager.Close()
		db.Close()
	})

	return &testEnv{
		t:       t,
		server:  server,
		client:  &http.Client{Jar: jar},
		service: service,
		audit:   auditService,
	}
}

// csrfToken primes the cookie jar and returns the decoded XSRF-TOKEN value.
func (e *testEnv) csrfToken() string {
	e.t.Helper()

	resp := e.do(http.MethodGet, "/sanctum/csrf-cookie", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		e.t.Fatalf("csrf-cookie: expected 204, got %d", resp.StatusCode)
	}

	u, _ := url.Parse(e.server.URL)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == XSRFCookieName {
			token, err := url.QueryUnescape(c.Value)
			if err != nil {
				e.t.Fatalf("undecodable XSRF-TOKEN: %v", err)
			}
			return token
		}
	}
	e.t.Fatal("XSRF-TOKEN cookie not set")
	return ""
}

func (e *testEnv) do(method, path string, body any, headers map[string]string) *http.Response {
	e.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("failed to encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		e.t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("request failed: %v", err)
	}
	return resp
}

// post sends a JSON body with the CSRF header.
func (e *testEnv) post(path, token string, body any) *http.Response {
	e.t.Helper()
	return e.do(http.MethodPost, path, body, map[string]string{XSRFHeaderName: token})
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return out
}

func validRegistration(email string) map[string]string {
	return map[string]string{
		"name":                  "Jane Doe",
		"email":                 email,
		"password":              "password123",
		"password_confirmation": "password123",
	}
}
