package repository

import (
	"fmt"
	"time"

	"github.com/axellelanca/shorty/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedirectRepository est une interface qui définit les méthodes d'accès aux données
type RedirectRepository interface {
	Create(event *models.RedirectEvent) error
	CountAndListByLink(linkID uuid.UUID, from, to time.Time) (int64, []models.RedirectEvent, error)
	CountByLink(linkID uuid.UUID) (int64, error)
}

// GormRedirectRepository est l'implémentation de RedirectRepository utilisant GORM.
type GormRedirectRepository struct {
	db *gorm.DB
}

// NewRedirectRepository crée et retourne une nouvelle instance de GormRedirectRepository.
func NewRedirectRepository(db *gorm.DB) *GormRedirectRepository {
	return &GormRedirectRepository{db: db}
}

// Create insère un nouvel événement de redirection. Les événements sont
// en append-only : jamais mis à jour ensuite.
func (r *GormRedirectRepository) Create(event *models.RedirectEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create redirect event: %w", err)
	}
	return nil
}

// CountAndListByLink retourne le nombre et la liste des événements d'un
// lien dans la fenêtre [from, to] incluse, du plus récent au plus ancien.
// La vérification d'existence du lien et les deux requêtes tournent dans la
// même transaction pour qu'aucune des trois ne puisse diverger des autres.
// Retourne gorm.ErrRecordNotFound si le lien n'existe pas.
func (r *GormRedirectRepository) CountAndListByLink(linkID uuid.UUID, from, to time.Time) (int64, []models.RedirectEvent, error) {
	var count int64
	var events []models.RedirectEvent

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var link models.Link
		if err := tx.Select("id").First(&link, "id = ?", linkID).Error; err != nil {
			return err
		}

		windowed := tx.Model(&models.RedirectEvent{}).
			Where("link_id = ?", linkID).
			Where("created_at >= ?", from).
			Where("created_at <= ?", to)

		if err := windowed.Count(&count).Error; err != nil {
			return err
		}
		return tx.Where("link_id = ?", linkID).
			Where("created_at >= ?", from).
			Where("created_at <= ?", to).
			Order("created_at DESC").
			Find(&events).Error
	})
	if err != nil {
		return 0, nil, fmt.Errorf("failed to query redirects for link %s: %w", linkID, err)
	}
	return count, events, nil
}

// CountByLink compte le nombre total de redirections pour un lien donné.
func (r *GormRedirectRepository) CountByLink(linkID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.Model(&models.RedirectEvent{}).Where("link_id = ?", linkID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count redirects for link %s: %w", linkID, err)
	}
	return count, nil
}
