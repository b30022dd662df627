package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Link représente un lien raccourci dans la base de données.
// Un lien est "vivant" tant que ExpiresAt est nul ou dans le futur ;
// un seul lien vivant peut détenir un code donné à la fois.
type Link struct {
	ID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	URL string    `gorm:"not null" json:"url"`

	// Code est l'identifiant public du lien. L'index unique est
	// l'arbitre final des collisions d'allocation concurrentes.
	Code string `gorm:"uniqueIndex;size:10;not null" json:"code"`

	// ExpiresAt nul signifie "n'expire jamais" et n'est permis que
	// pour un lien possédé par un utilisateur.
	ExpiresAt *time.Time `json:"expires_at"`

	// UserID nul signifie lien anonyme/temporaire.
	UserID *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// IsLive indique si le lien détient encore son code à l'instant now.
func (l *Link) IsLive(now time.Time) bool {
	return l.ExpiresAt == nil || l.ExpiresAt.After(now)
}

func (l *Link) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
