package repository

import (
	"fmt"
	"time"

	"github.com/axellelanca/shorty/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenRepository est une interface qui définit les méthodes d'accès aux données
type TokenRepository interface {
	Create(token *models.RefreshToken) error
	FindByToken(token string) (*models.RefreshToken, error)
	RevokeByID(id uuid.UUID) error
	RevokeAllByUser(userID uuid.UUID) (int64, error)
	RevokeExpired(now time.Time) (int64, error)
}

// GormTokenRepository est l'implémentation de TokenRepository utilisant GORM.
type GormTokenRepository struct {
	db *gorm.DB
}

// NewTokenRepository crée et retourne une nouvelle instance de GormTokenRepository.
func NewTokenRepository(db *gorm.DB) *GormTokenRepository {
	return &GormTokenRepository{db: db}
}

// Create insère un nouveau refresh token.
func (r *GormTokenRepository) Create(token *models.RefreshToken) error {
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

// FindByToken récupère la ligne persistée correspondant au token présenté.
func (r *GormTokenRepository) FindByToken(token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.Where("token = ?", token).First(&refreshToken).Error; err != nil {
		return nil, err
	}
	return &refreshToken, nil
}

// RevokeByID passe revoked à true sans supprimer la ligne.
func (r *GormTokenRepository) RevokeByID(id uuid.UUID) error {
	res := r.db.Model(&models.RefreshToken{}).Where("id = ?", id).Update("revoked", true)
	if res.Error != nil {
		return fmt.Errorf("failed to revoke token %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RevokeAllByUser révoque tous les tokens encore actifs d'un utilisateur
// et retourne le nombre de lignes affectées.
func (r *GormTokenRepository) RevokeAllByUser(userID uuid.UUID) (int64, error) {
	res := r.db.Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Update("revoked", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to revoke tokens for user %s: %w", userID, res.Error)
	}
	return res.RowsAffected, nil
}

// RevokeExpired révoque toutes les lignes dont l'expiration est passée.
// Utilisé par le balayeur de fond ; la règle est de toute façon appliquée
// paresseusement au premier usage d'un token expiré.
func (r *GormTokenRepository) RevokeExpired(now time.Time) (int64, error) {
	res := r.db.Model(&models.RefreshToken{}).
		Where("revoked = ? AND expires_at <= ?", false, now).
		Update("revoked", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to revoke expired tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
