package models

import "time"

// Message status lifecycle. The transition is monotonic: once read, a
// message never goes back to sent.
const (
	MessageStatusSent = "sent"
	MessageStatusRead = "read"
)

// Message is one persisted chat message. Created when the router
// accepts an inbound message; the only mutation ever applied is the
// sent -> read status flip.
type Message struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// ChatID is the chat the message belongs to.
	ChatID string `gorm:"type:uuid;not null;index:idx_chat_msg" json:"chat_id"`
	// SenderID is the authoring party.
	SenderID string `gorm:"type:text;not null;index:idx_chat_msg" json:"sender_id"`
	// Body is the message text.
	Body string `gorm:"type:text;not null" json:"body"`
	// Status is "sent" until the counterpart fetches the history.
	Status string `gorm:"type:text;not null;default:sent" json:"status"`
	// SentAt is assigned by gorm on insert; history ordering is
	// ascending on this column.
	SentAt time.Time `gorm:"autoCreateTime;index" json:"sent_at"`
}
