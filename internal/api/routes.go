package api

import (
	"net/http"

	"github.com/axellelanca/shorty/internal/codespace"
	"github.com/axellelanca/shorty/internal/config"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/gin-gonic/gin"
)

// RedirectEventsChannel is the global channel used to send redirect events.
// This channel enables asynchronous persistence of redirect analytics
// without blocking URL redirection.
var RedirectEventsChannel chan models.RedirectEventMessage

// SetupRoutes configures all Gin API routes and injects necessary dependencies.
func SetupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	space *codespace.Space,
	linkService *services.LinkService,
	redirectService *services.RedirectService,
	userService *services.UserService,
	authService *services.AuthService,
) {
	// Initialize the global redirect events channel if it hasn't been created yet
	if RedirectEventsChannel == nil {
		RedirectEventsChannel = make(chan models.RedirectEventMessage, cfg.Analytics.BufferSize)
	}

	// Health Check Route - used for monitoring service availability
	router.GET("/health", HealthCheckHandler)

	// API Routes Group - all business logic endpoints under /api/v1 prefix
	api := router.Group("/api/v1")
	{
		url := api.Group("/url")
		{
			// Anonymous callers may mint short-lived links; authenticated
			// callers get durable/owned ones.
			url.POST("", OptionalAuth(authService), CreateShortURLHandler(cfg, linkService))
			// Authenticated lookup: never logs a redirect event.
			url.GET("/:code", RequireAuth(authService), GetURLByCodeHandler(space, linkService))
			url.GET("/user/:userID", RequireAuth(authService), ListUserURLsHandler(linkService))
			url.POST("/statistic/:id", RequireAuth(authService), LinkStatisticsHandler(linkService, redirectService))
			url.PUT("/:id", RequireAuth(authService), UpdateLinkHandler(linkService))
		}

		user := api.Group("/user")
		{
			user.POST("", CreateUserHandler(userService, authService, cfg))
			user.GET("/:id", RequireAuth(authService), GetUserHandler(userService))
			user.PATCH("/:id", RequireAuth(authService), UpdateUserHandler(userService))
		}

		token := api.Group("/token")
		{
			token.POST("", LoginHandler(authService, cfg))
			token.POST("/refresh", RefreshTokenHandler(authService, cfg))
			token.DELETE("/revoke", RequireAuth(authService), RevokeTokensHandler(authService))
			token.DELETE("/logout", RequireAuth(authService), LogoutHandler(authService))
		}
	}

	// Redirection Route - the public short URL entry point at root level.
	// This is the only path that records redirect events.
	router.GET("/:code", RedirectHandler(space, linkService))
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
