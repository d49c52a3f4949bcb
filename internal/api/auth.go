package api

import (
	"net/http"
	"strings"

	"billiard-pos/internal/models"
	"billiard-pos/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	authCookieName = "token"
	authContextKey = "authContext"
)

// AuthMiddleware resolves the caller's identity from the session cookie
// or a bearer token and attaches it to the request context.
func AuthMiddleware(users *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerOrCookie(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized"})
			return
		}

		auth, err := users.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
			return
		}

		c.Set(authContextKey, auth)
		c.Next()
	}
}

// RequireAdmin gates admin-only operations.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := CurrentAuth(c)
		if auth == nil || auth.Role != models.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// CurrentAuth returns the resolved identity, or nil on unauthenticated
// routes.
func CurrentAuth(c *gin.Context) *models.AuthContext {
	v, ok := c.Get(authContextKey)
	if !ok {
		return nil
	}
	auth, _ := v.(*models.AuthContext)
	return auth
}

func bearerOrCookie(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}
