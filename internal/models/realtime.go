package models

import "time"

// Event types exchanged over the WebSocket channel.
const (
	EventRegisterUser   = "register_user"
	EventSendMessage    = "send_message"
	EventReceiveMessage = "receive_message"
)

// ClientEvent is the flat envelope decoded from a client frame. Which
// fields matter depends on Type.
type ClientEvent struct {
	Type       string `json:"type"`
	PartyID    string `json:"party_id,omitempty"`
	SenderID   string `json:"sender_id,omitempty"`
	ReceiverID string `json:"receiver_id,omitempty"`
	Body       string `json:"body,omitempty"`
	IsNewChat  bool   `json:"is_new_chat,omitempty"`
}

// OutboundMessage is pushed to a registered receiver connection.
type OutboundMessage struct {
	Type     string    `json:"type"`
	SenderID string    `json:"sender_id"`
	Body     string    `json:"body"`
	SentAt   time.Time `json:"sent_at"`
}

// PushedMessage travels over the Redis delivery channel so a sibling
// instance holding the receiver's connection can push it.
type PushedMessage struct {
	ReceiverID string    `json:"receiver_id"`
	SenderID   string    `json:"sender_id"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}

// ChatSummary is one row of a party's conversation list: the peer, the
// latest message (empty when the chat has none yet) and whether any
// peer-authored message is still unread.
type ChatSummary struct {
	ChatID       string    `json:"chat_id"`
	PeerID       string    `json:"peer_id"`
	PeerName     string    `json:"peer_name"`
	PeerRole     string    `json:"peer_role"`
	LastMessage  string    `json:"last_message"`
	LastActivity time.Time `json:"last_activity"`
	HasUnread    bool      `json:"has_unread"`
}
