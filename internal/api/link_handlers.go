package api

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/codespace"
	"github.com/axellelanca/shorty/internal/config"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateLinkRequest represents the JSON request body for creating a link.
// LifetimeSeconds is optional for authenticated callers and mandatory for
// anonymous ones (the service enforces the policy).
type CreateLinkRequest struct {
	URL             string `json:"url" binding:"required,url"`
	LifetimeSeconds *int64 `json:"lifetime_seconds" binding:"omitempty,gt=0"`
}

// UpdateLinkRequest represents a partial link update. Absent fields are
// left unchanged; the code is never updatable.
type UpdateLinkRequest struct {
	URL       *string    `json:"url" binding:"omitempty,url"`
	UserID    *uuid.UUID `json:"user_id"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// StatisticsRequest is the inclusive time window for redirect statistics.
type StatisticsRequest struct {
	StartedAt time.Time `json:"started_at" binding:"required"`
	EndedAt   time.Time `json:"ended_at" binding:"required"`
}

// CreateShortURLHandler handles allocation of a new short link. Anonymous
// requests must carry a lifetime; authenticated ones own the result.
func CreateShortURLHandler(cfg *config.Config, linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		var expiresAt *time.Time
		if req.LifetimeSeconds != nil {
			t := time.Now().Add(time.Duration(*req.LifetimeSeconds) * time.Second)
			expiresAt = &t
		}

		var userID *uuid.UUID
		if user := CurrentUser(c); user != nil {
			userID = &user.ID
		}

		link, err := linkService.CreateLink(req.URL, userID, expiresAt)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"link":           link,
			"full_short_url": cfg.Server.BaseURL + "/" + link.Code,
		})
	}
}

// GetURLByCodeHandler handles the authenticated lookup of a link by its
// code. Unlike the public redirect path it records no redirect event, so
// programmatic inspection does not inflate visit counts.
func GetURLByCodeHandler(space *codespace.Space, linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		if !space.Valid(code) {
			respondError(c, apperrors.BadRequest("malformed code: %s", code))
			return
		}

		link, err := linkService.ResolveCode(code)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, link)
	}
}

// RedirectHandler handles the public redirect from a short URL to its
// destination. On success it enqueues a redirect event and issues a 307;
// the event write happens asynchronously so tracking never delays the user.
func RedirectHandler(space *codespace.Space, linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Param("code")
		if !space.Valid(code) {
			respondError(c, apperrors.BadRequest("malformed code: %s", code))
			return
		}

		link, err := linkService.ResolveCode(code)
		if err != nil {
			respondError(c, err)
			return
		}

		event := models.RedirectEventMessage{
			LinkID:     link.ID,
			OccurredAt: time.Now(),
		}

		// Non-blocking send: a full buffer drops the event rather than
		// delaying the redirect.
		select {
		case RedirectEventsChannel <- event:
		default:
			log.Printf("WARNING: RedirectEventsChannel is full, dropping event for %s (ID: %s)", code, link.ID)
		}

		c.Redirect(http.StatusTemporaryRedirect, link.URL)
	}
}

// ListUserURLsHandler handles the paginated listing of a user's links.
// Owner-only: callers may only list their own links.
func ListUserURLsHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := uuid.Parse(c.Param("userID"))
		if err != nil {
			respondError(c, apperrors.BadRequest("malformed user id: %s", c.Param("userID")))
			return
		}

		if user := CurrentUser(c); user == nil || user.ID != userID {
			respondError(c, apperrors.Unauthorized("cannot list links of another user"))
			return
		}

		page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
		if err != nil {
			respondError(c, apperrors.BadRequest("malformed page: %s", c.Query("page")))
			return
		}
		size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
		if err != nil {
			respondError(c, apperrors.BadRequest("malformed size: %s", c.Query("size")))
			return
		}

		total, links, err := linkService.ListLinksByUser(userID, page, size)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"urls":        links,
			"total_count": total,
		})
	}
}

// LinkStatisticsHandler handles time-windowed redirect statistics for a
// link. Owner-only.
func LinkStatisticsHandler(linkService *services.LinkService, redirectService *services.RedirectService) gin.HandlerFunc {
	return func(c *gin.Context) {
		linkID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			respondError(c, apperrors.BadRequest("malformed url id: %s", c.Param("id")))
			return
		}

		var req StatisticsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		link, err := linkService.GetLinkByID(linkID)
		if err != nil {
			respondError(c, err)
			return
		}
		user := CurrentUser(c)
		if link.UserID == nil || user == nil || *link.UserID != user.ID {
			respondError(c, apperrors.Unauthorized("cannot read statistics of a link you do not own"))
			return
		}

		count, events, err := redirectService.Statistics(linkID, req.StartedAt, req.EndedAt)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"count":            count,
			"url_redirections": events,
		})
	}
}

// UpdateLinkHandler handles partial updates of a link's destination, owner
// or expiration. Owned links may only be updated by their owner.
func UpdateLinkHandler(linkService *services.LinkService) gin.HandlerFunc {
	return func(c *gin.Context) {
		linkID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			respondError(c, apperrors.BadRequest("malformed url id: %s", c.Param("id")))
			return
		}

		var req UpdateLinkRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		link, err := linkService.GetLinkByID(linkID)
		if err != nil {
			respondError(c, err)
			return
		}
		user := CurrentUser(c)
		if link.UserID != nil && (user == nil || *link.UserID != user.ID) {
			respondError(c, apperrors.Unauthorized("cannot update a link you do not own"))
			return
		}

		updated, err := linkService.UpdateLink(linkID, services.LinkUpdate{
			URL:       req.URL,
			UserID:    req.UserID,
			ExpiresAt: req.ExpiresAt,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}
