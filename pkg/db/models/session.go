package models

import (
	"time"
)

// Session represents a login session. The token doubles as the cookie value
// handed to the client; expired rows are ignored on lookup and swept lazily.
type Session struct {
	Token     string    `gorm:"primaryKey;type:text"`
	UserID    uint      `gorm:"not null;index"`
	ExpiresAt time.Time `gorm:"not null"`

	CreatedAt time.Time

	// Relationships
	User User `gorm:"foreignKey:UserID;references:ID"`
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
