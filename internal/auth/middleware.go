package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// ContextKeyPrincipal holds the *Principal of an authenticated request.
const ContextKeyPrincipal = "auth_principal"

// contextKeyTokenError marks requests that presented an unusable token.
const contextKeyTokenError = "auth_token_error"

// Middleware resolves bearer tokens into principals.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Handler verifies a bearer token when one is present and stores the
// resulting Principal. Requests without a token pass through untouched so
// public routes keep working; RequireAuth enforces presence.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		principal, err := m.service.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, ErrInvalidToken) {
				log.WithError(err).Error("Failed to authenticate bearer token")
			}
			c.Set(contextKeyTokenError, true)
			c.Next()
			return
		}

		c.Set(ContextKeyPrincipal, principal)
		c.Next()
	}
}

// RequireAuth aborts with 401 unless Handler stored a principal.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := PrincipalFrom(c); ok {
			c.Next()
			return
		}

		message := ErrAuthRequired.Message
		if c.GetBool(contextKeyTokenError) {
			message = ErrInvalidToken.Message
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"message": message,
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// PrincipalFrom returns the authenticated principal of the request.
func PrincipalFrom(c *gin.Context) (*Principal, bool) {
	value, exists := c.Get(ContextKeyPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*Principal)
	return principal, ok && principal != nil
}

// GetUserID retrieves the authenticated user's ID, or 0.
func GetUserID(c *gin.Context) uint {
	if principal, ok := PrincipalFrom(c); ok {
		return principal.UserID
	}
	return 0
}
