package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Message is a persisted direct message between two users.
// A row is immutable once written, except for IsRead which only ever
// transitions false to true.
type Message struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	SenderID      string    `gorm:"index:idx_msg_pair;not null" json:"senderId"`
	ReceiverID    string    `gorm:"index:idx_msg_pair;not null" json:"receiverId"`
	Content       string    `gorm:"type:text" json:"content"`
	Type          string    `gorm:"not null" json:"type"` // "text", "image", "gif", "audio"
	MediaURL      string    `json:"mediaUrl,omitempty"`
	GifID         string    `json:"gifId,omitempty"`
	MediaDuration int       `json:"mediaDuration,omitempty"`
	IsRead        bool      `gorm:"default:false" json:"isRead"`
	CreatedAt     time.Time `gorm:"index" json:"createdAt"`
}

// BeforeCreate generates a UUID for the message if ID is not already set.
func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// MediaFile records the stored file behind an image or audio message.
type MediaFile struct {
	ID        uint      `gorm:"primaryKey"`
	MessageID string    `gorm:"index;not null"`
	FilePath  string    `gorm:"not null"`
	FileType  string    `gorm:"not null"`
	CreatedAt time.Time
}

// ConversationSummary is one row of the conversation list: the counterpart,
// the most recent message exchanged with them and how many of their messages
// are still unread.
type ConversationSummary struct {
	OtherUser   PublicProfile `json:"otherUser"`
	LastMessage *LastMessage  `json:"lastMessage,omitempty"`
	UnreadCount int           `json:"unreadCount"`
}

// LastMessage is the preview of the newest message in a conversation.
type LastMessage struct {
	Content   string    `json:"content"`
	Type      string    `json:"type"`
	SenderID  string    `json:"senderId"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
