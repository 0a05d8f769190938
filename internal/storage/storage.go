package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"mentorchat/backend/internal/config"
	"mentorchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Storage is the persistence surface the chat core depends on.
// Implemented by Service over PostgreSQL (gorm) and Redis; mocked in
// tests.
type Storage interface {
	// Party lookups (read-only to the chat core; SaveParty exists for
	// the admin CLI and tests).
	SaveParty(party *models.Party) error
	GetPartyByID(id string) (*models.Party, error)
	GetPartyRole(id string) (string, error)
	InvalidateRoleCache(id string) error

	// Chat sessions.
	FindChatByPair(partyA, partyB string) (*models.Chat, error)
	CreateChat(chat *models.Chat) error
	GetChatByID(id string) (*models.Chat, error)
	ListChatSummaries(partyID string) ([]models.ChatSummary, error)

	// Messages.
	SaveMessage(msg *models.Message) error
	GetChatHistory(chatID string) ([]models.Message, error)
	MarkReadAndFetch(chatID, readerID string) ([]models.Message, error)

	// Cross-instance delivery fanout.
	PublishDelivery(msg models.PushedMessage) error
	SubscribeDeliveries() *redis.PubSub
}

// Service implements Storage. Redis may be nil (admin CLI, tests,
// single-instance deployments); every Redis-touching path tolerates
// that.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
	Log   *logrus.Logger
}

// NewStorageService wires the service. A nil logger falls back to the
// logrus default.
func NewStorageService(db *gorm.DB, rdb *redis.Client, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
		Log:   log,
	}
}

// SaveParty upserts a party row.
func (s *Service) SaveParty(party *models.Party) error {
	return s.DB.Save(party).Error
}

// GetPartyByID returns the party or gorm.ErrRecordNotFound.
func (s *Service) GetPartyByID(id string) (*models.Party, error) {
	var party models.Party
	if err := s.DB.First(&party, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &party, nil
}

// GetPartyRole resolves a party's role, consulting the Redis cache
// before the database. Cache write failures are logged, never fatal.
func (s *Service) GetPartyRole(id string) (string, error) {
	key := config.RoleCacheKeyPrefix + id
	if s.Redis != nil {
		role, err := s.Redis.Get(s.Ctx, key).Result()
		if err == nil && role != "" {
			return role, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			s.Log.WithError(err).WithField("party_id", id).Warn("role cache read failed")
		}
	}

	party, err := s.GetPartyByID(id)
	if err != nil {
		return "", err
	}

	if s.Redis != nil {
		if err := s.Redis.Set(s.Ctx, key, party.Role, config.RoleCacheTTL).Err(); err != nil {
			s.Log.WithError(err).WithField("party_id", id).Warn("role cache write failed")
		}
	}
	return party.Role, nil
}

// InvalidateRoleCache drops the cached role entry, if any.
func (s *Service) InvalidateRoleCache(id string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(s.Ctx, config.RoleCacheKeyPrefix+id).Err()
}

// FindChatByPair looks up the canonical chat for an unordered party
// pair. Returns (nil, nil) when no chat exists.
func (s *Service) FindChatByPair(partyA, partyB string) (*models.Chat, error) {
	var chat models.Chat
	err := s.DB.Where("pair_key = ?", models.ChatPairKey(partyA, partyB)).First(&chat).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &chat, nil
}

// CreateChat inserts a new chat. A concurrent insert for the same pair
// surfaces as gorm.ErrDuplicatedKey via the pair-key unique index; the
// caller re-fetches and adopts the existing chat.
func (s *Service) CreateChat(chat *models.Chat) error {
	return s.DB.Create(chat).Error
}

// GetChatByID returns the chat or gorm.ErrRecordNotFound.
func (s *Service) GetChatByID(id string) (*models.Chat, error) {
	var chat models.Chat
	if err := s.DB.First(&chat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// SaveMessage inserts the message with status "sent"; gorm assigns
// SentAt on insert and writes it back into msg.
func (s *Service) SaveMessage(msg *models.Message) error {
	if msg.Status == "" {
		msg.Status = models.MessageStatusSent
	}
	if err := s.DB.Create(msg).Error; err != nil {
		s.Log.WithError(err).WithField("chat_id", msg.ChatID).Error("failed to save message")
		return err
	}
	return nil
}

// GetChatHistory returns every message of the chat, oldest first.
func (s *Service) GetChatHistory(chatID string) ([]models.Message, error) {
	var history []models.Message
	err := s.DB.Where("chat_id = ?", chatID).
		Order("sent_at asc, id asc").
		Find(&history).Error
	if err != nil {
		s.Log.WithError(err).WithField("chat_id", chatID).Error("failed to load chat history")
		return nil, err
	}
	return history, nil
}

// MarkReadAndFetch flips every sent message not authored by readerID to
// read, then returns the full ascending history. Both steps run in one
// transaction: a reader never observes the flip without also receiving
// the flipped messages, and a mid-sequence failure rolls back the whole
// update.
func (s *Service) MarkReadAndFetch(chatID, readerID string) ([]models.Message, error) {
	var history []models.Message
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id <> ? AND status = ?", chatID, readerID, models.MessageStatusSent).
			Update("status", models.MessageStatusRead).Error
		if err != nil {
			return err
		}
		return tx.Where("chat_id = ?", chatID).
			Order("sent_at asc, id asc").
			Find(&history).Error
	})
	if err != nil {
		s.Log.WithError(err).WithFields(logrus.Fields{
			"chat_id":  chatID,
			"party_id": readerID,
		}).Error("failed to mark chat read")
		return nil, err
	}
	return history, nil
}

// ListChatSummaries builds a party's conversation list, newest activity
// first. A chat with no messages falls back to its creation time.
func (s *Service) ListChatSummaries(partyID string) ([]models.ChatSummary, error) {
	var chats []models.Chat
	err := s.DB.Where("party_a = ? OR party_b = ?", partyID, partyID).Find(&chats).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		peerID := lo.Ternary(chat.PartyA == partyID, chat.PartyB, chat.PartyA)

		summary := models.ChatSummary{
			ChatID:       chat.ID,
			PeerID:       peerID,
			LastActivity: chat.CreatedAt,
		}

		peer, err := s.GetPartyByID(peerID)
		switch {
		case err == nil:
			summary.PeerName = peer.DisplayName
			summary.PeerRole = peer.Role
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.Log.WithField("party_id", peerID).Warn("chat peer missing from party store")
		default:
			return nil, err
		}

		var last models.Message
		err = s.DB.Where("chat_id = ?", chat.ID).
			Order("sent_at desc, id desc").
			First(&last).Error
		if err == nil {
			summary.LastMessage = last.Body
			summary.LastActivity = last.SentAt
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		var unread int64
		err = s.DB.Model(&models.Message{}).
			Where("chat_id = ? AND sender_id <> ? AND status = ?", chat.ID, partyID, models.MessageStatusSent).
			Count(&unread).Error
		if err != nil {
			return nil, err
		}
		summary.HasUnread = unread > 0

		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastActivity.After(summaries[j].LastActivity)
	})
	return summaries, nil
}

// PublishDelivery fans a fresh message out to sibling instances over
// Redis Pub/Sub. Without Redis the service runs single-instance and
// this is a no-op.
func (s *Service) PublishDelivery(msg models.PushedMessage) error {
	if s.Redis == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, config.DeliveryChannel, payload).Err()
}

// SubscribeDeliveries subscribes to the shared delivery channel.
// Returns nil when Redis is not configured.
func (s *Service) SubscribeDeliveries() *redis.PubSub {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Subscribe(s.Ctx, config.DeliveryChannel)
}
