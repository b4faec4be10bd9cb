package models

import (
	"time"
)

// Folder represents a node in a user's folder tree. A nil ParentID marks a
// root-level folder for that user. Folder names are not required to be
// unique, even within the same parent.
type Folder struct {
	ID       uint   `gorm:"primaryKey"`
	Name     string `gorm:"type:text;not null"`
	UserID   uint   `gorm:"not null;index"`
	ParentID *uint  `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time

	// Relationships
	Parent   *Folder  `gorm:"foreignKey:ParentID"`
	Children []Folder `gorm:"foreignKey:ParentID"`
	Files    []File   `gorm:"foreignKey:FolderID"`
}

// IsRoot returns true if the folder sits at the root level of its owner's tree.
func (f *Folder) IsRoot() bool {
	return f.ParentID == nil
}
