package chathub_test

import (
	"mentorchat/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

// Party operations
func (m *MockStorage) SaveParty(party *models.Party) error {
	args := m.Called(party)
	return args.Error(0)
}

func (m *MockStorage) GetPartyByID(id string) (*models.Party, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Party), args.Error(1)
}

func (m *MockStorage) GetPartyRole(id string) (string, error) {
	args := m.Called(id)
	return args.String(0), args.Error(1)
}

func (m *MockStorage) InvalidateRoleCache(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// Chat operations
func (m *MockStorage) FindChatByPair(partyA, partyB string) (*models.Chat, error) {
	args := m.Called(partyA, partyB)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *MockStorage) CreateChat(chat *models.Chat) error {
	args := m.Called(chat)
	return args.Error(0)
}

func (m *MockStorage) GetChatByID(id string) (*models.Chat, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *MockStorage) ListChatSummaries(partyID string) ([]models.ChatSummary, error) {
	args := m.Called(partyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatSummary), args.Error(1)
}

// Message operations
func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) GetChatHistory(chatID string) ([]models.Message, error) {
	args := m.Called(chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *MockStorage) MarkReadAndFetch(chatID, readerID string) ([]models.Message, error) {
	args := m.Called(chatID, readerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Message), args.Error(1)
}

// Fanout operations
func (m *MockStorage) PublishDelivery(msg models.PushedMessage) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) SubscribeDeliveries() *redis.PubSub {
	// nil keeps the hub in single-instance mode during tests.
	m.Called()
	return nil
}

// mockClient is a lightweight test double for the chathub.Client
// interface with a buffered receive channel.
type mockClient struct {
	connID  string
	partyID string
	send    chan models.OutboundMessage
	closed  bool
}

func newMockClient(connID string) *mockClient {
	return &mockClient{
		connID: connID,
		send:   make(chan models.OutboundMessage, 10),
	}
}

func (c *mockClient) GetConnID() string { return c.connID }

func (c *mockClient) GetPartyID() string { return c.partyID }

func (c *mockClient) SetPartyID(id string) { c.partyID = id }

func (c *mockClient) GetSendChannel() chan<- models.OutboundMessage { return c.send }

func (c *mockClient) Run() {}

func (c *mockClient) Close() {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// drain collects everything currently buffered on the send channel.
func (c *mockClient) drain() []models.OutboundMessage {
	var messages []models.OutboundMessage
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return messages
			}
			messages = append(messages, msg)
		default:
			return messages
		}
	}
}
