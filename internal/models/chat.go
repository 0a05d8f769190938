package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Chat is the single canonical conversation between two parties. The
// pair is unordered: (a,b) and (b,a) are the same chat, enforced by the
// unique index on PairKey.
type Chat struct {
	// ID is the chat's UUID, used in history URLs.
	ID string `gorm:"primaryKey" json:"id"`
	// PairKey is the canonical ordered form of the party pair. The
	// unique index on it is the race arbiter for concurrent creation.
	PairKey string `gorm:"uniqueIndex;not null" json:"-"`
	// PartyA is the party that created the chat.
	PartyA string `gorm:"type:text;not null;index" json:"party_a"`
	// PartyB is the counterpart.
	PartyB string `gorm:"type:text;not null;index" json:"party_b"`

	CreatedAt time.Time `json:"created_at"`
}

// ChatPairKey canonicalizes an unordered party pair. Both orderings of
// the same two parties yield the same key.
func ChatPairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

// BeforeCreate fills in the UUID and the canonical pair key so callers
// only need to set the two parties.
func (c *Chat) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.PairKey == "" {
		c.PairKey = ChatPairKey(c.PartyA, c.PartyB)
	}
	return
}
