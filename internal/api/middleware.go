package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/gin-gonic/gin"
)

// currentUserKey is the gin context key under which the authenticated user
// is stored by the auth middleware.
const currentUserKey = "currentUser"

// extractAccessToken pulls the access token from the Authorization bearer
// header, falling back to the access_token session cookie.
func extractAccessToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth rejects the request unless a valid access token identifies
// an existing user. The user is stored in the context for handlers.
func RequireAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		user, err := authService.UserFromAccessToken(token)
		if err != nil {
			log.Printf("Authentication failed: %v", err)
			c.AbortWithStatusJSON(apperrors.Status(err), gin.H{"error": apperrors.Detail(err)})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// OptionalAuth resolves an identity when credentials are presented but lets
// anonymous requests through. Presented-but-invalid credentials are still
// rejected rather than silently downgraded to anonymous.
func OptionalAuth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			c.Next()
			return
		}

		user, err := authService.UserFromAccessToken(token)
		if err != nil {
			log.Printf("Authentication failed: %v", err)
			c.AbortWithStatusJSON(apperrors.Status(err), gin.H{"error": apperrors.Detail(err)})
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by the middleware, or
// nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}

// respondError logs a user-visible failure and translates it to its fixed
// HTTP status. All handlers funnel their errors through here.
func respondError(c *gin.Context, err error) {
	log.Printf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(apperrors.Status(err), gin.H{"error": apperrors.Detail(err)})
}
