// Package services contains the business logic layer: link allocation,
// redirect accounting, user accounts and session tokens.
package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/codespace"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
	"github.com/google/uuid"
)

// LinkService provides business logic methods for allocating and managing
// shortened links. Allocation enforces the two invariants of the code
// space: at most one live link per code, and no new allocation once the
// live-link count reaches the space's capacity.
type LinkService struct {
	linkRepo repository.LinkRepository
	userRepo repository.UserRepository
	space    *codespace.Space

	// maxTemporaryLifetime bounds the expiration an anonymous caller may
	// request; authenticated owners are unrestricted.
	maxTemporaryLifetime time.Duration

	// now is the clock, injectable in tests.
	now func() time.Time
}

// LinkUpdate describes a partial update of a link. Nil fields are left
// unchanged. The code is deliberately absent: a code changes only through
// the reclamation path, never through an ordinary update.
type LinkUpdate struct {
	URL       *string
	UserID    *uuid.UUID
	ExpiresAt *time.Time
}

// NewLinkService creates and returns a new instance of LinkService.
func NewLinkService(linkRepo repository.LinkRepository, userRepo repository.UserRepository, space *codespace.Space, maxTemporaryLifetime time.Duration) *LinkService {
	return &LinkService{
		linkRepo:             linkRepo,
		userRepo:             userRepo,
		space:                space,
		maxTemporaryLifetime: maxTemporaryLifetime,
		now:                  time.Now,
	}
}

// CreateLink allocates a short code for destination and returns the
// resulting link. userID and expiresAt are both optional, but an anonymous
// link must carry an expiration no further out than the configured maximum
// temporary lifetime.
//
// The allocation loop generates uniform random candidates and resolves
// collisions against the live dataset: a free code is inserted, an expired
// occupant is reclaimed in place (same row, same id), a live occupant
// triggers a fresh candidate. The capacity precondition guarantees the
// loop terminates: while live links < A^L some code is free or reclaimable.
func (s *LinkService) CreateLink(destination string, userID *uuid.UUID, expiresAt *time.Time) (*models.Link, error) {
	now := s.now()

	if expiresAt != nil && !expiresAt.After(now) {
		return nil, apperrors.BadRequest("expiration time %s is not in the future", expiresAt)
	}
	if userID == nil {
		if expiresAt == nil {
			return nil, apperrors.Unauthorized("cannot create a link without expiration when no user is provided")
		}
		if expiresAt.After(now.Add(s.maxTemporaryLifetime)) {
			return nil, apperrors.Unauthorized("cannot create a link with expiration above the temporary link lifetime")
		}
	} else {
		if _, err := s.userRepo.FindByID(*userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("user not found by id: %s", userID)
			}
			return nil, fmt.Errorf("failed to resolve link owner: %w", err)
		}
	}

	// Capacity precondition: refuse new allocations once the space is
	// saturated rather than spinning on candidates that cannot be free.
	live, err := s.linkRepo.CountLive(now)
	if err != nil {
		return nil, err
	}
	if live >= s.space.Capacity() {
		return nil, apperrors.InsufficientCapacity("cannot allocate a new code: %d live links fill the code space", live)
	}

	for {
		code, err := s.space.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate candidate code: %w", err)
		}

		existing, err := s.linkRepo.FindByCode(code)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("database error checking code uniqueness: %w", err)
			}

			// Candidate is free. The unique index on code is the final
			// arbiter: losing the insert race is a collision, not an error.
			link := &models.Link{
				URL:       destination,
				Code:      code,
				ExpiresAt: expiresAt,
				UserID:    userID,
			}
			if err := s.linkRepo.Create(link); err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					log.Printf("Code '%s' claimed concurrently, retrying generation...", code)
					continue
				}
				return nil, fmt.Errorf("failed to create link: %w", err)
			}
			return link, nil
		}

		if existing.IsLive(now) {
			// Live occupant: collision, draw a fresh candidate.
			continue
		}

		// Expired occupant: reclaim the row in place, keeping its id. The
		// conditional update only matches while the row is still expired,
		// so two concurrent claimants cannot both win.
		claimed, err := s.linkRepo.ReclaimExpired(existing.ID, now, map[string]any{
			"url":        destination,
			"user_id":    userID,
			"expires_at": expiresAt,
		})
		if err != nil {
			return nil, err
		}
		if !claimed {
			log.Printf("Expired code '%s' reclaimed concurrently, retrying generation...", code)
			continue
		}
		return s.linkRepo.FindByID(existing.ID)
	}
}

// GetLinkByID retrieves a link by its identifier.
func (s *LinkService) GetLinkByID(id uuid.UUID) (*models.Link, error) {
	link, err := s.linkRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("url not found by id: %s", id)
		}
		return nil, err
	}
	return link, nil
}

// ResolveCode resolves a code back to its link. It fails NotFound when no
// link carries the code and Gone when the link exists but has expired.
func (s *LinkService) ResolveCode(code string) (*models.Link, error) {
	link, err := s.linkRepo.FindByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("url not found by code: %s", code)
		}
		return nil, err
	}
	if !link.IsLive(s.now()) {
		return nil, apperrors.Gone("url code has expired, id: %s, code: %s", link.ID, link.Code)
	}
	return link, nil
}

// UpdateLink applies a partial update to destination, owner or expiration.
func (s *LinkService) UpdateLink(id uuid.UUID, update LinkUpdate) (*models.Link, error) {
	if _, err := s.GetLinkByID(id); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if update.URL != nil {
		fields["url"] = *update.URL
	}
	if update.UserID != nil {
		if _, err := s.userRepo.FindByID(*update.UserID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("user not found by id: %s", update.UserID)
			}
			return nil, fmt.Errorf("failed to resolve new link owner: %w", err)
		}
		fields["user_id"] = *update.UserID
	}
	if update.ExpiresAt != nil {
		fields["expires_at"] = *update.ExpiresAt
	}
	if len(fields) == 0 {
		return nil, apperrors.BadRequest("no updatable fields provided")
	}

	link, err := s.linkRepo.UpdateByID(id, fields)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("url not found by id: %s", id)
		}
		return nil, err
	}
	return link, nil
}

// ListLinksByUser returns one page of a user's links, newest first, along
// with the total count. The user must exist.
func (s *LinkService) ListLinksByUser(userID uuid.UUID, page, size int) (int64, []models.Link, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}

	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, apperrors.NotFound("user not found by id: %s", userID)
		}
		return 0, nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	return s.linkRepo.PaginateByUser(userID, page, size)
}

// Occupancy reports how much of the code space is currently held by live
// links, alongside the total capacity.
func (s *LinkService) Occupancy() (live int64, capacity int64, err error) {
	live, err = s.linkRepo.CountLive(s.now())
	if err != nil {
		return 0, 0, err
	}
	return live, s.space.Capacity(), nil
}
