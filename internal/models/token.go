package models

import "time"

// Token is a persisted session credential. A user may hold several tokens at
// once; login prunes the others so that in practice one device stays signed in.
type Token struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"index;not null"`
	Token     string    `gorm:"uniqueIndex;not null"`
	CreatedAt time.Time
}
