package api

import (
	"net/http"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/config"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/gin-gonic/gin"
)

// LoginRequest represents the JSON request body for credential login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token in the body for clients that do
// not use the session cookies.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// setSessionCookies stores both tokens as httponly cookies, scoped to the
// token lifetimes from the configuration.
func setSessionCookies(c *gin.Context, cfg *config.Config, pair *services.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("access_token", pair.AccessToken, cfg.Auth.AccessTokenExpireSeconds, "/", "", false, true)
	c.SetCookie("refresh_token", pair.RefreshToken, cfg.Auth.RefreshTokenExpireSeconds, "/", "", false, true)
}

// clearSessionCookies expires both session cookies.
func clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie("access_token", "", -1, "/", "", false, true)
	c.SetCookie("refresh_token", "", -1, "/", "", false, true)
}

// extractRefreshToken pulls the refresh token from the session cookie,
// falling back to the request body.
func extractRefreshToken(c *gin.Context) string {
	if cookie, err := c.Cookie("refresh_token"); err == nil && cookie != "" {
		return cookie
	}
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// LoginHandler handles credential login: verifies the password, issues an
// access+refresh pair, persists the refresh token and sets the cookies.
func LoginHandler(authService *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		user, pair, err := authService.Login(req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		setSessionCookies(c, cfg, pair)

		c.JSON(http.StatusCreated, gin.H{
			"user":   user,
			"tokens": pair,
		})
	}
}

// RefreshTokenHandler exchanges a refresh token for a fresh access token.
func RefreshTokenHandler(authService *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken := extractRefreshToken(c)
		if refreshToken == "" {
			respondError(c, apperrors.Unauthorized("refresh token not provided"))
			return
		}

		accessToken, err := authService.ReemitAccessToken(refreshToken)
		if err != nil {
			respondError(c, err)
			return
		}

		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie("access_token", accessToken, cfg.Auth.AccessTokenExpireSeconds, "/", "", false, true)
		c.JSON(http.StatusCreated, gin.H{"access_token": accessToken})
	}
}

// RevokeTokensHandler revokes every active refresh token of the caller
// ("log out everywhere") and returns how many were affected.
func RevokeTokensHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		count, err := authService.RevokeAllByUser(user.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"revoked_count": count})
	}
}

// LogoutHandler revokes the presented refresh token and clears the session
// cookies.
func LogoutHandler(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		refreshToken := extractRefreshToken(c)
		if refreshToken == "" {
			respondError(c, apperrors.Unauthorized("refresh token not provided"))
			return
		}

		if err := authService.RevokeRefreshToken(refreshToken); err != nil {
			respondError(c, err)
			return
		}
		clearSessionCookies(c)
		c.Status(http.StatusOK)
	}
}
