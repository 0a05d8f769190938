package chathub_test

import (
	"sync"
	"testing"

	"mentorchat/backend/internal/chathub"
	"mentorchat/backend/internal/config"
	"mentorchat/backend/internal/models"
	"mentorchat/backend/internal/storage"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// openTestDB opens a per-test in-memory database that travels the same
// gorm code paths as the PostgreSQL deployment, unique-index behavior
// included.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.New().String() + "?mode=memory&cache=shared"
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Party{}, &models.Chat{}, &models.Message{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedParty(t *testing.T, s storage.Storage, role string) string {
	t.Helper()
	party := &models.Party{Role: role, DisplayName: role + " party"}
	require.NoError(t, s.SaveParty(party))
	return party.ID
}

func newTestResolver(t *testing.T) (*chathub.ChatResolver, *storage.Service) {
	t.Helper()
	s := storage.NewStorageService(openTestDB(t), nil, logrus.New())
	return chathub.NewChatResolver(s, logrus.New()), s
}

func TestResolver_CreatesChatForAllowedPairing(t *testing.T) {
	resolver, s := newTestResolver(t)
	instructor := seedParty(t, s, config.RoleInstructor)
	student := seedParty(t, s, config.RoleStudent)

	chatID, err := resolver.Resolve(instructor, student, true)
	require.NoError(t, err)
	require.NotEmpty(t, chatID)

	chat, err := s.GetChatByID(chatID)
	require.NoError(t, err)
	assert.Equal(t, instructor, chat.PartyA)
	assert.Equal(t, student, chat.PartyB)
}

func TestResolver_ResolutionIsSymmetric(t *testing.T) {
	resolver, s := newTestResolver(t)
	instructor := seedParty(t, s, config.RoleInstructor)
	student := seedParty(t, s, config.RoleStudent)

	chatID, err := resolver.Resolve(instructor, student, true)
	require.NoError(t, err)

	// Either ordering of the pair finds the same chat, with and without
	// creation permission.
	reversed, err := resolver.Resolve(student, instructor, false)
	require.NoError(t, err)
	assert.Equal(t, chatID, reversed)

	again, err := resolver.Resolve(instructor, student, true)
	require.NoError(t, err)
	assert.Equal(t, chatID, again)

	var count int64
	require.NoError(t, s.DB.Model(&models.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestResolver_NotFoundWithoutCreatePermission(t *testing.T) {
	resolver, s := newTestResolver(t)
	instructor := seedParty(t, s, config.RoleInstructor)
	student := seedParty(t, s, config.RoleStudent)

	_, err := resolver.Resolve(instructor, student, false)
	assert.ErrorIs(t, err, chathub.ErrChatNotFound)

	var count int64
	require.NoError(t, s.DB.Model(&models.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "a failed resolution must not create a chat")
}

func TestResolver_RejectsDisallowedRolePairings(t *testing.T) {
	resolver, s := newTestResolver(t)
	instructorA := seedParty(t, s, config.RoleInstructor)
	instructorB := seedParty(t, s, config.RoleInstructor)
	studentA := seedParty(t, s, config.RoleStudent)
	studentB := seedParty(t, s, config.RoleStudent)

	cases := []struct {
		name     string
		sender   string
		receiver string
	}{
		{"student to instructor", studentA, instructorA},
		{"instructor to instructor", instructorA, instructorB},
		{"student to student", studentA, studentB},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := resolver.Resolve(tc.sender, tc.receiver, true)
			assert.ErrorIs(t, err, chathub.ErrPolicyRejected)
		})
	}

	var count int64
	require.NoError(t, s.DB.Model(&models.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "rejected resolutions must not create chats")
}

func TestResolver_RejectsUnknownParty(t *testing.T) {
	resolver, s := newTestResolver(t)
	instructor := seedParty(t, s, config.RoleInstructor)

	_, err := resolver.Resolve(instructor, uuid.New().String(), true)
	assert.ErrorIs(t, err, chathub.ErrPolicyRejected)
}

// N concurrent creation attempts for the same new pair must end with
// exactly one persisted chat, every resolver adopting the winner's id.
func TestResolver_UniquenessUnderCreationRace(t *testing.T) {
	resolver, s := newTestResolver(t)
	sqlDB, err := s.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	instructor := seedParty(t, s, config.RoleInstructor)
	student := seedParty(t, s, config.RoleStudent)

	const attempts = 8
	ids := make([]string, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ids[n], errs[n] = resolver.Resolve(instructor, student, true)
		}(i)
	}
	wg.Wait()

	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i], "attempt %d", i)
		assert.Equal(t, ids[0], ids[i], "every attempt must adopt the same chat")
	}

	var count int64
	require.NoError(t, s.DB.Model(&models.Chat{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
