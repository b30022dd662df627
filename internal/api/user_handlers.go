package api

import (
	"net/http"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/config"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateUserRequest represents the JSON request body for registration.
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// UpdateUserRequest represents a partial account update.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Password *string `json:"password" binding:"omitempty,min=8"`
}

// CreateUserHandler handles account registration. A fresh session (token
// pair + cookies) is opened for the new user, like after a login.
func CreateUserHandler(userService *services.UserService, authService *services.AuthService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		user, err := userService.CreateUser(req.Name, req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		pair, err := authService.IssueTokens(user)
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

// GetUserHandler handles the authenticated fetch of an account by id.
func GetUserHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			respondError(c, apperrors.BadRequest("malformed user id: %s", c.Param("id")))
			return
		}

		user, err := userService.GetUserByID(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// UpdateUserHandler handles partial account updates. Owner-only.
func UpdateUserHandler(userService *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			respondError(c, apperrors.BadRequest("malformed user id: %s", c.Param("id")))
			return
		}

		if user := CurrentUser(c); user == nil || user.ID != id {
			respondError(c, apperrors.Unauthorized("cannot update another user"))
			return
		}

		var req UpdateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		user, err := userService.UpdateUser(id, services.UserUpdate{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}
