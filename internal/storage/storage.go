package storage

import (
	"context"
	"errors"
	"time"

	"datelink/backend/internal/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// Storage is the narrow persistence interface the rest of the application
// depends on. Handlers and the chat hub never touch gorm or redis directly,
// which keeps them testable with a mock.
type Storage interface {
	CreateUser(user *models.User) error
	UpdateUser(user *models.User) error
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	SearchUsers(search models.UserSearch) ([]models.User, int64, error)

	SaveToken(userID, token string) error
	DeleteToken(token string) error
	DeleteOtherTokens(userID, keep string) error
	GetUserByToken(token string) (*models.User, error)

	SaveMessage(msg *models.Message) error
	SaveMediaFile(file *models.MediaFile) error
	ListConversations(userID string) ([]models.ConversationSummary, error)
	GetConversation(userID, otherUserID string, page, pageSize int) ([]models.Message, bool, error)

	IsUserBanned(userID string) (bool, error)
	BanUser(userID string, duration time.Duration) error
	UnbanUser(userID string) error

	PublishNewUser(user *models.User) error
	SubscribeNewUsers() *redis.PubSub
}

// Service implements Storage on top of PostgreSQL (gorm) and Redis.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService Constructor
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{
		DB:    db,
		Redis: rdb,
		Ctx:   context.Background(),
	}
}

// CreateUser inserts a new user row. The BeforeCreate hook fills the UUID.
func (s *Service) CreateUser(user *models.User) error {
	return s.DB.Create(user).Error
}

// UpdateUser persists profile changes.
func (s *Service) UpdateUser(user *models.User) error {
	return s.DB.Save(user).Error
}

func (s *Service) GetUserByID(id string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Service) GetUserByUsername(username string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SearchUsers applies the profile filters and returns one page plus the total
// match count. A meeting type of "Both" matches any requested type.
func (s *Service) SearchUsers(search models.UserSearch) ([]models.User, int64, error) {
	q := s.DB.Model(&models.User{}).
		Where("id <> ?", search.RequesterID).
		Where("age BETWEEN ? AND ?", search.MinAge, search.MaxAge)

	if len(search.Genders) > 0 {
		q = q.Where("gender IN ?", search.Genders)
	}
	if len(search.MeetingTypes) > 0 {
		q = q.Where("(meeting_type IN ? OR meeting_type = ?)", search.MeetingTypes, "Both")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := 0
	if search.Page > 1 {
		offset = (search.Page - 1) * search.PageSize
	}

	var users []models.User
	err := q.Order("created_at DESC").
		Limit(search.PageSize).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// SaveToken stores a freshly issued session token.
func (s *Service) SaveToken(userID, token string) error {
	return s.DB.Create(&models.Token{UserID: userID, Token: token}).Error
}

// DeleteToken revokes a single token (logout).
func (s *Service) DeleteToken(token string) error {
	return s.DB.Where("token = ?", token).Delete(&models.Token{}).Error
}

// DeleteOtherTokens removes every token of the user except the one just
// issued. Login calls this so stale sessions do not pile up.
func (s *Service) DeleteOtherTokens(userID, keep string) error {
	return s.DB.Where("user_id = ? AND token <> ?", userID, keep).
		Delete(&models.Token{}).Error
}

// GetUserByToken resolves a session token to its user, joining the tokens
// table so the username is recovered in the same query.
func (s *Service) GetUserByToken(token string) (*models.User, error) {
	var user models.User
	err := s.DB.
		Joins("JOIN tokens ON tokens.user_id = users.id").
		Where("tokens.token = ?", token).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// IsUserBanned checks the ban flag in Redis.
func (s *Service) IsUserBanned(userID string) (bool, error) {
	status, err := s.Redis.Get(s.Ctx, "ban:"+userID).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return status != "", nil
}

// BanUser sets the ban flag. A zero duration bans until an explicit unban.
func (s *Service) BanUser(userID string, duration time.Duration) error {
	return s.Redis.Set(s.Ctx, "ban:"+userID, "banned", duration).Err()
}

// UnbanUser clears the ban flag.
func (s *Service) UnbanUser(userID string) error {
	return s.Redis.Del(s.Ctx, "ban:"+userID).Err()
}
