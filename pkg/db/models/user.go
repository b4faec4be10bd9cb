package models

import (
	"time"
)

// User represents a registered account that owns folders and files
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string `gorm:"type:text;not null"`

	// Display preference
	ThemeDark bool `gorm:"default:false"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Folders []Folder `gorm:"foreignKey:UserID"`
	Files   []File   `gorm:"foreignKey:UserID"`
}
