package monitor

import (
	"log"
	"time"

	"github.com/axellelanca/shorty/internal/repository"
	"github.com/axellelanca/shorty/internal/services"
)

// Sweeper periodically reports code-space occupancy and revokes refresh
// tokens whose expiration has passed. Expired tokens are also revoked
// lazily on first use; the sweep just keeps the table honest in between.
type Sweeper struct {
	linkService *services.LinkService
	tokenRepo   repository.TokenRepository
	interval    time.Duration
}

// NewSweeper creates and returns a new instance of Sweeper.
func NewSweeper(linkService *services.LinkService, tokenRepo repository.TokenRepository, interval time.Duration) *Sweeper {
	return &Sweeper{
		linkService: linkService,
		tokenRepo:   tokenRepo,
		interval:    interval,
	}
}

// Start launches the periodic sweep loop. This is a blocking function that
// runs until the program stops.
func (s *Sweeper) Start() {
	log.Printf("[SWEEPER] Starting sweeper with interval of %v...", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Immediate sweep on startup before the first tick.
	s.sweep()

	for range ticker.C {
		s.sweep()
	}
}

// sweep runs one pass: occupancy report plus expired-token revocation.
func (s *Sweeper) sweep() {
	live, capacity, err := s.linkService.Occupancy()
	if err != nil {
		log.Printf("[SWEEPER] ERROR counting live links: %v", err)
	} else {
		log.Printf("[SWEEPER] Code space occupancy: %d/%d live links", live, capacity)
	}

	revoked, err := s.tokenRepo.RevokeExpired(time.Now())
	if err != nil {
		log.Printf("[SWEEPER] ERROR revoking expired refresh tokens: %v", err)
		return
	}
	if revoked > 0 {
		log.Printf("[SWEEPER] Revoked %d expired refresh token(s)", revoked)
	}
}
