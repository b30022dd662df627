package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RedirectEvent records one resolution of a link through the public
// redirect path. Rows are append-only: they are never updated and only
// disappear when their link is deleted (cascade).
type RedirectEvent struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	LinkID uuid.UUID `gorm:"type:uuid;index;not null" json:"link_id"`
	Link   Link      `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// RedirectEventMessage is the lightweight payload passed through the
// analytics channel between the redirect handler and the worker pool.
type RedirectEventMessage struct {
	LinkID     uuid.UUID // the link that was resolved
	OccurredAt time.Time // when the redirect was served
}

func (e *RedirectEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
