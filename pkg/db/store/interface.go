package store

import (
	"context"
	"time"

	"github.com/mwantia/godrive/pkg/db/models"
)

// MetadataStore defines the interface for database operations
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Transaction runs fn against a store bound to a single transaction,
	// committing when fn returns nil and rolling back otherwise.
	Transaction(ctx context.Context, fn func(MetadataStore) error) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (*models.User, error)
	GetUserByName(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	ListUsers(ctx context.Context) ([]models.User, error)

	// Folder operations
	CreateFolder(ctx context.Context, folder *models.Folder) error
	GetFolder(ctx context.Context, id uint) (*models.Folder, error)
	ListFolders(ctx context.Context, userID uint, parentID *uint) ([]models.Folder, error)
	DeleteFolder(ctx context.Context, id uint) error

	// File operations
	CreateFile(ctx context.Context, file *models.File) error
	GetFile(ctx context.Context, id uint) (*models.File, error)
	ListFiles(ctx context.Context, userID uint, folderID *uint) ([]models.File, error)
	DeleteFile(ctx context.Context, id uint) error

	// Session operations
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) error
}
