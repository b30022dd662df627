package repository

import (
	"fmt"

	"github.com/axellelanca/shorty/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserRepository est une interface qui définit les méthodes d'accès aux données
type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uuid.UUID) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	UpdateByID(id uuid.UUID, fields map[string]any) (*models.User, error)
}

// GormUserRepository est l'implémentation de UserRepository utilisant GORM.
type GormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository crée et retourne une nouvelle instance de GormUserRepository.
func NewUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// Create insère un nouvel utilisateur. Une violation de l'index unique sur
// l'email remonte telle quelle (gorm.ErrDuplicatedKey).
func (r *GormUserRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// FindByID récupère un utilisateur par son identifiant.
func (r *GormUserRepository) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail récupère un utilisateur par son email.
func (r *GormUserRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateByID applique une mise à jour partielle et retourne la ligne à jour.
func (r *GormUserRepository) UpdateByID(id uuid.UUID, fields map[string]any) (*models.User, error) {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update user %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(id)
}
