package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_RequireAuth(t *testing.T) {
	svc := setupTestService(t)
	user, err := svc.Register("Jane", "jane@example.com", "password123")
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	token, err := svc.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	middleware := NewMiddleware(svc, nil)
	router := gin.New()
	router.Use(middleware.Handler())
	router.GET("/open", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"auth_type": GetAuthType(c), "authenticated": IsAuthenticated(c)})
	})
	router.GET("/private", middleware.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUser(c).ID, "auth_type": GetAuthType(c)})
	})

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"open without auth", "/open", "", http.StatusOK},
		{"private without auth", "/private", "", http.StatusUnauthorized},
		{"private with invalid token", "/private", "Bearer nope", http.StatusUnauthorized},
		{"private with token", "/private", "Bearer " + token, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			if rr.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestGetters_EmptyContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	if GetUserID(c) != 0 || GetUser(c) != nil || IsAuthenticated(c) {
		t.Error("Empty context should be unauthenticated")
	}
	if GetAuthType(c) != AuthTypeNone {
		t.Errorf("Expected AuthTypeNone, got %s", GetAuthType(c))
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware(), StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	for header, want := range map[string]string{
		"X-Frame-Options":        "DENY",
		"X-Content-Type-Options": "nosniff",
	} {
		if got := rr.Header().Get(header); got != want {
			t.Errorf("%s = %q, want %q", header, got, want)
		}
	}
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must not be sent over plain HTTP")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Header().Get("Strict-Transport-Security") == "" {
		t.Error("Expected HSTS behind a TLS proxy")
	}
}
