package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/axellelanca/shorty/internal/apperrors"
	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
	"github.com/google/uuid"
)

// RedirectService is the ledger of redirect events: it appends one event
// per served redirect and answers time-windowed statistics queries.
type RedirectService struct {
	redirectRepo repository.RedirectRepository
}

// NewRedirectService creates and returns a new instance of RedirectService.
func NewRedirectService(redirectRepo repository.RedirectRepository) *RedirectService {
	return &RedirectService{
		redirectRepo: redirectRepo,
	}
}

// Record appends a redirect event for the given link. Events are only
// written from the public redirect path, never from authenticated lookups,
// so programmatic inspection does not inflate visit counts.
func (s *RedirectService) Record(linkID uuid.UUID, occurredAt time.Time) (*models.RedirectEvent, error) {
	event := &models.RedirectEvent{
		LinkID:    linkID,
		CreatedAt: occurredAt,
	}
	if err := s.redirectRepo.Create(event); err != nil {
		return nil, err
	}
	return event, nil
}

// Statistics returns the count and the list of redirect events for a link
// within the inclusive [from, to] window, newest first. The link must
// exist; the existence check and the windowed query share a transaction in
// the repository so the two cannot disagree.
func (s *RedirectService) Statistics(linkID uuid.UUID, from, to time.Time) (int64, []models.RedirectEvent, error) {
	count, events, err := s.redirectRepo.CountAndListByLink(linkID, from, to)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil, apperrors.NotFound("url not found by id: %s", linkID)
		}
		return 0, nil, err
	}
	return count, events, nil
}

// TotalCount returns the all-time redirect count for a link.
func (s *RedirectService) TotalCount(linkID uuid.UUID) (int64, error) {
	return s.redirectRepo.CountByLink(linkID)
}
