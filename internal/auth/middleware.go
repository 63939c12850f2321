package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUser     = "auth_user"
	ContextKeyAuthType = "auth_type" // "session", "bearer", or "none"
)

// AuthType indicates how the user was authenticated
type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeSession AuthType = "session"
	AuthTypeBearer  AuthType = "bearer"
)

// Middleware resolves the caller from a bearer token or the session.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
	}
}

// Handler identifies the caller, if any, and always continues the chain.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Bearer first: mobile clients never hold a session.
		if user := m.tryBearerAuth(c); user != nil {
			setUserContext(c, user, AuthTypeBearer)
		} else if user := m.trySessionAuth(c); user != nil {
			setUserContext(c, user, AuthTypeSession)
		} else {
			c.Set(ContextKeyAuthType, AuthTypeNone)
		}
		c.Next()
	}
}

// RequireAuth rejects requests without an identified user.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthenticated.",
			})
			return
		}
		c.Next()
	}
}

func (m *Middleware) tryBearerAuth(c *gin.Context) *entities.User {
	token := BearerToken(c)
	if token == "" {
		return nil
	}

	user, err := m.service.ValidateToken(token)
	if err != nil {
		return nil
	}

	return user
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}

	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}

	// The account may have been deleted since the session was created.
	user, err := m.service.GetUserByID(userID)
	if err != nil {
		return nil
	}

	return user
}

func setUserContext(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyAuthType, authType)
}

// GetUserID retrieves the authenticated user's ID from the context.
// Returns 0 if not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

// GetUser retrieves the authenticated user from the context.
func GetUser(c *gin.Context) *entities.User {
	if u, exists := c.Get(ContextKeyUser); exists {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetAuthType retrieves the authentication method used.
func GetAuthType(c *gin.Context) AuthType {
	if t, exists := c.Get(ContextKeyAuthType); exists {
		if authType, ok := t.(AuthType); ok {
			return authType
		}
	}
	return AuthTypeNone
}

// IsAuthenticated returns true if the request is authenticated.
func IsAuthenticated(c *gin.Context) bool {
	return GetUserID(c) != 0
}
