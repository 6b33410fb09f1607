package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User is a registered profile. The PIN hash is never serialized; everything
// else is what the search and conversation endpoints project.
type User struct {
	ID          string         `gorm:"primaryKey" json:"id"`
	Username    string         `gorm:"uniqueIndex;not null" json:"username"`
	PinHash     string         `gorm:"not null" json:"-"`
	PhotoURL    string         `json:"photoUrl"`
	Gender      string         `json:"gender"`
	Age         int            `json:"age"`
	MeetingType string         `json:"meetingType"`
	Description string         `json:"description"`
	Interests   pq.StringArray `gorm:"type:text[]" json:"interests"`
	// TelegramChatID links the profile to a Telegram chat for offline
	// message notifications. Empty when the user never linked one.
	TelegramChatID string    `gorm:"index" json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
}

// BeforeCreate generates a UUID for the user if ID is not already set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}

// PublicProfile is the projection of a user that other people may see.
type PublicProfile struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	PhotoURL    string         `json:"photoUrl"`
	Gender      string         `json:"gender"`
	Age         int            `json:"age"`
	MeetingType string         `json:"meetingType"`
	Description string         `json:"description"`
	Interests   pq.StringArray `json:"interests"`
}

// Public strips the credential and notification fields from a user.
func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:          u.ID,
		Username:    u.Username,
		PhotoURL:    u.PhotoURL,
		Gender:      u.Gender,
		Age:         u.Age,
		MeetingType: u.MeetingType,
		Description: u.Description,
		Interests:   u.Interests,
	}
}

// UserSearch carries the filters from POST /api/users/search.
type UserSearch struct {
	RequesterID  string
	Genders      []string
	MeetingTypes []string
	MinAge       int
	MaxAge       int
	Page         int
	PageSize     int
}
