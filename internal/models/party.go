package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Party is one account known to the identity store: an instructor or a
// student. The chat core only ever reads parties; they are created and
// maintained elsewhere (seeded via the admin CLI in development).
type Party struct {
	// ID is the opaque stable identifier (UUID).
	ID string `gorm:"primaryKey" json:"id"`
	// DisplayName is shown to the peer in chat listings.
	DisplayName string `gorm:"type:text" json:"display_name"`
	// Role gates chat creation: only an instructor may open a chat with a student.
	Role string `gorm:"type:text;not null;index" json:"role"`
	// Subjects an instructor teaches (or a student studies).
	Subjects pq.StringArray `gorm:"type:text[]" json:"subjects,omitempty"`
}

// BeforeCreate is a GORM hook that assigns a fresh UUID when the party
// is created without an explicit ID.
func (p *Party) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return
}
