package chathub_test

import (
	"time"

	"datelink/backend/internal/chathub"
	"datelink/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of the storage.Storage interface.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) UpdateUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByUsername(username string) (*models.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SearchUsers(search models.UserSearch) ([]models.User, int64, error) {
	args := m.Called(search)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockStorage) SaveToken(userID, token string) error {
	args := m.Called(userID, token)
	return args.Error(0)
}

func (m *MockStorage) DeleteToken(token string) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockStorage) DeleteOtherTokens(userID, keep string) error {
	args := m.Called(userID, keep)
	return args.Error(0)
}

func (m *MockStorage) GetUserByToken(token string) (*models.User, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) SaveMessage(msg *models.Message) error {
	args := m.Called(msg)
	return args.Error(0)
}

func (m *MockStorage) SaveMediaFile(file *models.MediaFile) error {
	args := m.Called(file)
	return args.Error(0)
}

func (m *MockStorage) ListConversations(userID string) ([]models.ConversationSummary, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ConversationSummary), args.Error(1)
}

func (m *MockStorage) GetConversation(userID, otherUserID string, page, pageSize int) ([]models.Message, bool, error) {
	args := m.Called(userID, otherUserID, page, pageSize)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).([]models.Message), args.Bool(1), args.Error(2)
}

func (m *MockStorage) IsUserBanned(userID string) (bool, error) {
	args := m.Called(userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) BanUser(userID string, duration time.Duration) error {
	args := m.Called(userID, duration)
	return args.Error(0)
}

func (m *MockStorage) UnbanUser(userID string) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockStorage) PublishNewUser(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockStorage) SubscribeNewUsers() *redis.PubSub {
	args := m.Called()
	return args.Get(0).(*redis.PubSub)
}

// MockNotifier records offline notification calls.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyNewMessage(receiverID, senderID, content string) {
	m.Called(receiverID, senderID, content)
}

// MockClient is a plain test double for the chathub.Client interface. Recv is
// buffered so hub sends never hit the slow-session path in tests.
type MockClient struct {
	userID   string
	username string
	Recv     chan models.Event
	Closed   bool
}

func newMockClient(id string) *MockClient {
	return &MockClient{
		userID:   id,
		username: "user-" + id,
		Recv:     make(chan models.Event, 10),
	}
}

func (c *MockClient) GetUserID() string                   { return c.userID }
func (c *MockClient) GetUsername() string                 { return c.username }
func (c *MockClient) GetSendChannel() chan<- models.Event { return c.Recv }
func (c *MockClient) Run()                                {}
func (c *MockClient) Close()                              { c.Closed = true }

// drain pops one event or returns a zero Event if none arrived in time.
func (c *MockClient) drain(timeout time.Duration) (models.Event, bool) {
	select {
	case ev := <-c.Recv:
		return ev, true
	case <-time.After(timeout):
		return models.Event{}, false
	}
}

var _ chathub.Client = (*MockClient)(nil)
