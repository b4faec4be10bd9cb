package models

import (
	"time"
)

// File represents metadata for an uploaded file. The raw bytes live in the
// blob store under StoragePath, which is unique across the whole store, not
// just within a folder. A nil FolderID places the file at the root level.
type File struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"type:text;not null"`
	StoragePath string `gorm:"type:text;not null;uniqueIndex"`

	// File metadata
	Size       int64     `gorm:"not null"`
	UploadedAt time.Time `gorm:"autoCreateTime"`

	UserID   uint  `gorm:"not null;index"`
	FolderID *uint `gorm:"index"`

	// Relationships
	Folder *Folder `gorm:"foreignKey:FolderID"`
}
