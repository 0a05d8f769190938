package chathub

import (
	"errors"

	"mentorchat/backend/internal/config"
	"mentorchat/backend/internal/models"
	"mentorchat/backend/internal/storage"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	// ErrChatNotFound means the pair has no chat and creation was not
	// allowed for this message.
	ErrChatNotFound = errors.New("chat not found")
	// ErrPolicyRejected means the role pairing forbids creating the
	// chat. Nothing is persisted.
	ErrPolicyRejected = errors.New("chat creation rejected by role policy")
)

// ChatResolver maps an unordered party pair to its single canonical
// chat, creating it under the role policy when allowed.
type ChatResolver struct {
	Storage storage.Storage
	Log     *logrus.Logger
}

func NewChatResolver(s storage.Storage, log *logrus.Logger) *ChatResolver {
	if log == nil {
		log = logrus.New()
	}
	return &ChatResolver{Storage: s, Log: log}
}

// Resolve returns the chat id for the pair, creating the chat when
// allowCreate is set and the roles line up. The find-then-insert
// sequence is not atomic: two concurrent resolutions for the same new
// pair race on the pair-key unique index, and the loser re-fetches and
// adopts the winner's chat instead of failing.
func (r *ChatResolver) Resolve(senderID, receiverID string, allowCreate bool) (string, error) {
	chat, err := r.Storage.FindChatByPair(senderID, receiverID)
	if err != nil {
		return "", err
	}
	if chat != nil {
		return chat.ID, nil
	}

	if !allowCreate {
		return "", ErrChatNotFound
	}

	senderRole, err := r.partyRole(senderID)
	if err != nil {
		return "", err
	}
	receiverRole, err := r.partyRole(receiverID)
	if err != nil {
		return "", err
	}
	if senderRole != config.ChatCreatorRole || receiverRole != config.ChatCounterpartRole {
		r.Log.WithFields(logrus.Fields{
			"sender_role":   senderRole,
			"receiver_role": receiverRole,
		}).Warn("chat creation rejected: role pairing not allowed")
		return "", ErrPolicyRejected
	}

	newChat := &models.Chat{PartyA: senderID, PartyB: receiverID}
	err = r.Storage.CreateChat(newChat)
	if err == nil {
		r.Log.WithFields(logrus.Fields{
			"chat_id": newChat.ID,
			"party_a": senderID,
			"party_b": receiverID,
		}).Info("chat created")
		return newChat.ID, nil
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the creation race: adopt the winner's chat.
		existing, ferr := r.Storage.FindChatByPair(senderID, receiverID)
		if ferr != nil {
			return "", ferr
		}
		if existing != nil {
			return existing.ID, nil
		}
	}
	return "", err
}

// partyRole resolves a role, treating an unknown party as a policy
// rejection: a chat cannot be opened with someone the identity store
// has never heard of.
func (r *ChatResolver) partyRole(partyID string) (string, error) {
	role, err := r.Storage.GetPartyRole(partyID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		r.Log.WithField("party_id", partyID).Warn("chat creation rejected: unknown party")
		return "", ErrPolicyRejected
	}
	if err != nil {
		return "", err
	}
	return role, nil
}
