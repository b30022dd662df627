package repository

import (
	"fmt"
	"time"

	"github.com/axellelanca/shorty/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkRepository est une interface qui définit les méthodes d'accès aux données
type LinkRepository interface {
	Create(link *models.Link) error
	FindByCode(code string) (*models.Link, error)
	FindByID(id uuid.UUID) (*models.Link, error)
	UpdateByID(id uuid.UUID, fields map[string]any) (*models.Link, error)
	ReclaimExpired(id uuid.UUID, now time.Time, fields map[string]any) (bool, error)
	CountLive(now time.Time) (int64, error)
	PaginateByUser(userID uuid.UUID, page, size int) (int64, []models.Link, error)
}

// GormLinkRepository est l'implémentation de LinkRepository utilisant GORM.
type GormLinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository crée et retourne une nouvelle instance de GormLinkRepository.
func NewLinkRepository(db *gorm.DB) *GormLinkRepository {
	return &GormLinkRepository{db: db}
}

// Create insère un nouveau lien dans la base de données. Une violation de
// l'index unique sur le code remonte telle quelle (gorm.ErrDuplicatedKey)
// pour que le moteur d'allocation la traite comme une collision.
func (r *GormLinkRepository) Create(link *models.Link) error {
	return r.db.Create(link).Error
}

// FindByCode récupère un lien par son code, vivant ou expiré.
func (r *GormLinkRepository) FindByCode(code string) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("code = ?", code).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// FindByID récupère un lien par son identifiant.
func (r *GormLinkRepository) FindByID(id uuid.UUID) (*models.Link, error) {
	var link models.Link
	if err := r.db.Where("id = ?", id).First(&link).Error; err != nil {
		return nil, err
	}
	return &link, nil
}

// UpdateByID applique une mise à jour partielle et retourne la ligne à jour.
func (r *GormLinkRepository) UpdateByID(id uuid.UUID, fields map[string]any) (*models.Link, error) {
	res := r.db.Model(&models.Link{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update link %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}

// ReclaimExpired réassigne en place la ligne d'un lien expiré. La clause
// WHERE sur expires_at garantit qu'un seul des demandeurs concurrents
// obtient la ligne : le perdant voit zéro ligne affectée et doit retenter
// avec un nouveau code candidat.
func (r *GormLinkRepository) ReclaimExpired(id uuid.UUID, now time.Time, fields map[string]any) (bool, error) {
	res := r.db.Model(&models.Link{}).
		Where("id = ? AND expires_at IS NOT NULL AND expires_at <= ?", id, now).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to reclaim link %s: %w", id, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// CountLive compte les liens vivants (expiration nulle ou future).
// C'est la mesure d'occupation comparée à la capacité A^L.
func (r *GormLinkRepository) CountLive(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Link{}).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count live links: %w", err)
	}
	return count, nil
}

// PaginateByUser retourne le nombre total de liens d'un utilisateur et la
// page demandée, du plus récent au plus ancien.
func (r *GormLinkRepository) PaginateByUser(userID uuid.UUID, page, size int) (int64, []models.Link, error) {
	var count int64
	if err := r.db.Model(&models.Link{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to count links for user %s: %w", userID, err)
	}

	var links []models.Link
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&links).Error
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list links for user %s: %w", userID, err)
	}
	return count, links, nil
}
