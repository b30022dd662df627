package workers

import (
	"log"

	"github.com/axellelanca/shorty/internal/models"
	"github.com/axellelanca/shorty/internal/repository"
)

// StartRedirectWorkers launches a pool of worker goroutines that drain the
// redirect event channel into the ledger. Persisting events off the request
// path keeps the public redirect fast under load.
func StartRedirectWorkers(workerCount int, events <-chan models.RedirectEventMessage, redirectRepo repository.RedirectRepository) {
	log.Printf("Starting %d redirect worker(s)...", workerCount)

	for i := 0; i < workerCount; i++ {
		go redirectWorker(events, redirectRepo)
	}
}

// redirectWorker consumes messages until the channel is closed.
func redirectWorker(events <-chan models.RedirectEventMessage, redirectRepo repository.RedirectRepository) {
	for msg := range events {
		event := &models.RedirectEvent{
			LinkID:    msg.LinkID,
			CreatedAt: msg.OccurredAt,
		}

		if err := redirectRepo.Create(event); err != nil {
			// Log and keep going: one lost event must not stall the pool.
			log.Printf("ERROR: Failed to save redirect event for link %s: %v", msg.LinkID, err)
		}
	}
}
