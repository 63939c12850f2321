package auth

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/database/audit"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
)

func TestCSRFCookie_SetsReadableToken(t *testing.T) {
	env := setupTestEnv(t, false)

	resp := env.do(http.MethodGet, "/sanctum/csrf-cookie", nil, nil)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.StatusCode)
	}

	var xsrf, secret *http.Cookie
	for _, c := range resp.Cookies() {
		switch c.Name {
		case XSRFCookieName:
			xsrf = c
		case csrfSecretCookieName:
			secret = c
		}
	}
	if xsrf == nil || xsrf.Value == "" {
		t.Fatal("Expected XSRF-TOKEN cookie")
	}
	if xsrf.HttpOnly {
		t.Error("XSRF-TOKEN must be readable by scripts")
	}
	if secret == nil || !secret.HttpOnly {
		t.Error("Expected HTTP-only CSRF secret cookie")
	}
	if _, err := url.QueryUnescape(xsrf.Value); err != nil {
		t.Errorf("XSRF-TOKEN should be URL-decodable: %v", err)
	}
}

func TestLogin_WithoutCSRFToken(t *testing.T) {
	env := setupTestEnv(t, false)

	resp := env.do(http.MethodPost, "/api/v2/login", map[string]string{
		"email":    "jane@example.com",
		"password": "password123",
	}, nil)
	body := decodeBody(t, resp)

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", resp.StatusCode)
	}
	if body["message"] != "CSRF token mismatch." {
		t.Errorf("Unexpected message: %v", body["message"])
	}
}

func TestLogin_WithForeignOrigin(t *testing.T) {
	env := setupTestEnv(t, false)
	token := env.csrfToken()

	resp := env.do(http.MethodPost, "/api/v2/login", map[string]string{
		"email":    "jane@example.com",
		"password": "password123",
	}, map[string]string{
		XSRFHeaderName: token,
		"Origin":       "https://evil.example",
	})
	resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("Expected 403 for foreign origin, got %d", resp.StatusCode)
	}
}

func TestRegister_EstablishesSession(t *testing.T) {
	env := setupTestEnv(t, false)
	token := env.csrfToken()

	resp := env.post("/api/v2/register", token, validRegistration("jane@example.com"))
	created := decodeBody(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %v", resp.StatusCode, created)
	}
	if created["email"] != "jane@example.com" {
		t.Errorf("Unexpected email: %v", created["email"])
	}
	if _, leaked := created["password_hash"]; leaked {
		t.Error("Password hash must not be serialised")
	}

	resp = env.do(http.MethodGet, "/api/v2/user", nil, nil)
	user := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from /api/v2/user, got %d", resp.StatusCode)
	}
	if user["id"] != created["id"] {
		t.Errorf("Expected user %v, got %v", created["id"], user["id"])
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	env := setupTestEnv(t, false)
	token := env.csrfToken()

	tests := []struct {
		name   string
		body   map[string]string
		fields []string
	}{
		{"empty body", nil, []string{"name", "email", "password"}},
		{"bad email", map[string]string{"name": "Jane", "email": "nope", "password": "password123", "password_confirmation": "password123"}, []string{"email"}},
		{"short password", map[string]string{"name": "Jane", "email": "jane@example.com", "password": "short", "password_confirmation": "short"}, []string{"password"}},
		{"confirmation mismatch", map[string]string{"name": "Jane", "email": "jane@example.com", "password": "password123", "password_confirmation": "password124"}, []string{"password"}},
		{"password too long", map[string]string{"name": "Jane", "email": "jane@example.com", "password": strings.Repeat("a", 73), "password_confirmation": strings.Repeat("a", 73)}, []string{"password"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.body != nil {
				body = tt.body
			}
			resp := env.post("/api/v2/register", token, body)
			out := decodeBody(t, resp)

			if resp.StatusCode != http.StatusUnprocessableEntity {
				t.Fatalf("Expected 422, got %d: %v", resp.StatusCode, out)
			}
			if out["message"] == "" {
				t.Error("Expected a summary message")
			}
			errs, ok := out["errors"].(map[string]any)
			if !ok {
				t.Fatalf("Expected errors object, got %T", out["errors"])
			}
			for _, f := range tt.fields {
				if _, ok := errs[f]; !ok {
					t.Errorf("Expected error for %q, got %v", f, errs)
				}
			}
		})
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupTestEnv(t, false)
	token := env.csrfToken()

	resp := env.post("/api/v2/register", token, validRegistration("jane@example.com"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	resp = env.post("/api/v2/register", token, validRegistration("JANE@example.com"))
	out := decodeBody(t, resp)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", resp.StatusCode)
	}
	errs := out["errors"].(map[string]any)
	emailErrs := errs["email"].([]any)
	if emailErrs[0] != "The email has already been taken." {
		t.Errorf("Unexpected email error: %v", emailErrs)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := setupTestEnv(t, false)
	if _, err := env.service.Register("Jane", "jane@example.com", "password123"); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token := env.csrfToken()

	resp := env.post("/api/v2/login", token, map[string]string{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})
	out := decodeBody(t, resp)

	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", resp.StatusCode)
	}
	if out["message"] != "Invalid credentials" {
		t.Errorf("Unexpected message: %v", out["message"])
	}

	resp = env.do(http.MethodGet, "/api/v2/user", nil, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 after failed login, got %d", resp.StatusCode)
	}
}

func TestLogin_ValidationError(t *testing.T) {
	env := setupTestEnv(t, false)
	token := env.csrfToken()

	resp := env.post("/api/v2/login", token, map[string]string{"email": "not-an-email"})
	out := decodeBody(t, resp)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", resp.StatusCode)
	}
	errs := out["errors"].(map[string]any)
	if _, ok := errs["email"]; !ok {
		t.Error("Expected email error")
	}
	if _, ok := errs["password"]; !ok {
		t.Error("Expected password error")
	}
}

func TestLoginLogout_RoundTrip(t *testing.T) {
	env := setupTestEnv(t, false)
	seeded, err := env.service.Register("Jane", "jane@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token := env.csrfToken()

	for _, path := range []string{"/login", "/api/v2/login"} {
		resp := env.post(path, token, map[string]string{
			"email":    "Jane@Example.com",
			"password": "password123",
		})
		out := decodeBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
		}
		if uint(out["id"].(float64)) != seeded.ID {
			t.Errorf("%s: unexpected user %v", path, out["id"])
		}

		resp = env.do(http.MethodGet, "/user", nil, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200 while logged in, got %d", resp.StatusCode)
		}

		resp = env.post("/api/v2/logout", token, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("Expected 204 from logout, got %d", resp.StatusCode)
		}

		resp = env.do(http.MethodGet, "/api/v2/user", nil, nil)
		out = decodeBody(t, resp)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("Expected 401 after logout, got %d", resp.StatusCode)
		}
		if out["message"] != "Unauthenticated." {
			t.Errorf("Unexpected message: %v", out["message"])
		}
	}

	env.audit.Wait()
	_, total, err := env.audit.ListEvents(audit.Filter{UserID: seeded.ID, Action: entities.AuditActionLogin})
	if err != nil {
		t.Fatalf("failed to list audit events: %v", err)
	}
	if total != 2 {
		t.Errorf("Expected 2 login audit events, got %d", total)
	}
}

func TestLogout_WithoutSession(t *testing.T) {
	env := setupTestEnv(t, false)
	token := env.csrfToken()

	resp := env.post("/api/v2/logout", token, nil)
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", resp.StatusCode)
	}
}

func TestLogin_Throttled(t *testing.T) {
	env := setupTestEnv(t, false)
	token := env.csrfToken()
	creds := map[string]string{"email": "jane@example.com", "password": "wrong-password"}

	for i := 0; i < 3; i++ {
		resp := env.post("/api/v2/login", token, creds)
		resp.Body.Close()
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("attempt %d: expected 401, got %d", i+1, resp.StatusCode)
		}
	}

	resp := env.post("/api/v2/login", token, creds)
	resp.Body.Close()

	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("Expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestMobileTokenFlow(t *testing.T) {
	env := setupTestEnv(t, false)

	// No CSRF token: mobile endpoints are exempt.
	resp := env.do(http.MethodPost, MobileRegisterPath, validRegistration("mobile@example.com"), nil)
	out := decodeBody(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %v", resp.StatusCode, out)
	}
	token, _ := out["token"].(string)
	if len(token) != 64 {
		t.Fatalf("Expected 64-char token, got %q", token)
	}

	resp = env.do(http.MethodPost, MobileLoginPath, map[string]string{
		"email":    "mobile@example.com",
		"password": "password123",
	}, nil)
	out = decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from mobile login, got %d", resp.StatusCode)
	}
	token = out["token"].(string)
	bearer := map[string]string{"Authorization": "Bearer " + token}

	resp = env.do(http.MethodGet, "/api/v2/user", nil, bearer)
	user := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 with bearer token, got %d", resp.StatusCode)
	}
	if user["email"] != "mobile@example.com" {
		t.Errorf("Unexpected user: %v", user)
	}

	resp = env.do(http.MethodPost, "/api/v2/mobile/logout", nil, bearer)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204 from mobile logout, got %d", resp.StatusCode)
	}

	resp = env.do(http.MethodGet, "/api/v2/user", nil, bearer)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected 401 after revocation, got %d", resp.StatusCode)
	}
}

func mobileLogin(t *testing.T, env *testEnv, email string) string {
	t.Helper()
	resp := env.do(http.MethodPost, MobileLoginPath, map[string]string{
		"email":    email,
		"password": "password123",
	}, nil)
	out := decodeBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 from mobile login, got %d: %v", resp.StatusCode, out)
	}
	token, _ := out["token"].(string)
	return token
}

func (e *testEnv) userStatus(headers map[string]string) int {
	e.t.Helper()
	resp := e.do(http.MethodGet, "/api/v2/user", nil, headers)
	resp.Body.Close()
	return resp.StatusCode
}

func TestMobileTokens_DevicesAreIndependent(t *testing.T) {
	env := setupTestEnv(t, false)
	user, err := env.service.Register("Jane", "jane@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	phone := map[string]string{"Authorization": "Bearer " + mobileLogin(t, env, "jane@example.com")}
	tablet := map[string]string{"Authorization": "Bearer " + mobileLogin(t, env, "jane@example.com")}

	if status := env.userStatus(phone); status != http.StatusOK {
		t.Fatalf("Expected first device token to survive a second login, got %d", status)
	}
	if status := env.userStatus(tablet); status != http.StatusOK {
		t.Fatalf("Expected second device token to work, got %d", status)
	}

	resp := env.do(http.MethodPost, "/api/v2/mobile/logout", nil, tablet)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204 from mobile logout, got %d", resp.StatusCode)
	}

	if status := env.userStatus(tablet); status != http.StatusUnauthorized {
		t.Errorf("Expected revoked token to be rejected, got %d", status)
	}
	if status := env.userStatus(phone); status != http.StatusOK {
		t.Errorf("Expected other device to stay signed in, got %d", status)
	}

	count, err := env.service.TokenCount(user.ID)
	if err != nil {
		t.Fatalf("failed to count tokens: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining token, got %d", count)
	}
}

func TestMobileLogout_SessionCallerKeepsTokens(t *testing.T) {
	env := setupTestEnv(t, false)
	user, err := env.service.Register("Jane", "jane@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	phone := map[string]string{"Authorization": "Bearer " + mobileLogin(t, env, "jane@example.com")}

	// The browser signs in with a session and calls the mobile logout route.
	token := env.csrfToken()
	resp := env.post("/login", token, map[string]string{"email": "jane@example.com", "password": "password123"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected session login, got %d", resp.StatusCode)
	}

	resp = env.post("/api/v2/mobile/logout", env.csrfToken(), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", resp.StatusCode)
	}

	if status := env.userStatus(phone); status != http.StatusOK {
		t.Errorf("Expected mobile token to survive a session logout call, got %d", status)
	}
	count, err := env.service.TokenCount(user.ID)
	if err != nil {
		t.Fatalf("failed to count tokens: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected token to be kept, got %d", count)
	}
}

func TestDebugSession(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := setupTestEnv(t, false)
		resp := env.do(http.MethodGet, "/debug/session", nil, nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("enabled", func(t *testing.T) {
		env := setupTestEnv(t, true)
		if _, err := env.service.Register("Jane", "jane@example.com", "password123"); err != nil {
			t.Fatalf("failed to seed user: %v", err)
		}
		token := env.csrfToken()
		resp := env.post("/login", token, map[string]string{"email": "jane@example.com", "password": "password123"})
		resp.Body.Close()

		resp = env.do(http.MethodGet, "/debug/session", nil, nil)
		out := decodeBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if out["authenticated"] != true {
			t.Errorf("Expected authenticated session, got %v", out)
		}
		cookie := out["cookie"].(map[string]any)
		if cookie["name"] != SessionCookieName || cookie["http_only"] != true {
			t.Errorf("Unexpected cookie settings: %v", cookie)
		}
		if out["has_xsrf_cookie"] != true {
			t.Error("Expected XSRF cookie to be reported")
		}
		if out["csrf_token_issued"] != true {
			t.Error("Expected the CSRF token issued for this request to be reported")
		}
	})
}
