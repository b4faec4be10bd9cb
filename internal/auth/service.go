// Package auth handles account registration, credential verification and
// persisted login sessions. The rest of the service never sees passwords;
// it only receives the authenticated user resolved from a session token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	config "github.com/mwantia/godrive/internal/config/server"
	"github.com/mwantia/godrive/pkg/db/models"
	"github.com/mwantia/godrive/pkg/db/store"
	"github.com/mwantia/godrive/pkg/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Service provides authentication-related operations
type Service struct {
	store      store.MetadataStore
	log        log.LoggerService
	sessionTTL time.Duration
	bcryptCost int
}

func NewService(metadata store.MetadataStore, logger log.LoggerService, cfg config.AuthServerConfig) *Service {
	ttl, err := time.ParseDuration(cfg.SessionTTL)
	if err != nil || ttl <= 0 {
		ttl = 24 * time.Hour
	}

	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		store:      metadata,
		log:        logger.Named("auth"),
		sessionTTL: ttl,
		bcryptCost: cost,
	}
}

// SessionTTL returns the configured session lifetime, used for cookie expiry.
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Register creates a new account. Usernames are unique; the password is
// stored only as a bcrypt hash.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("username and password are required: %w", ErrValidation)
	}

	if _, err := s.store.GetUserByName(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("registered user %q (id %d)", user.Username, user.ID)
	return user, nil
}

// Login verifies the credentials and mints a new session on success.
func (s *Service) Login(ctx context.Context, username, password string) (*models.Session, *models.User, error) {
	user, err := s.store.GetUserByName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("failed to load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session := &models.Session{
		Token:     uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Lazy sweep of expired sessions; failures only cost storage.
	if err := s.store.DeleteExpiredSessions(ctx, time.Now()); err != nil {
		s.log.Warn("failed to sweep expired sessions: %v", err)
	}

	s.log.Info("user %q (id %d) logged in", user.Username, user.ID)
	return session, user, nil
}

// Logout invalidates the session token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, token); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// Authenticate resolves a session token into its user. Missing or expired
// sessions yield ErrUnauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}

	session, err := s.store.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if session.Expired(time.Now()) {
		if err := s.store.DeleteSession(ctx, session.Token); err != nil {
			s.log.Warn("failed to delete expired session: %v", err)
		}
		return nil, ErrUnauthenticated
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load user %d: %w", session.UserID, err)
	}

	return user, nil
}

// ToggleTheme flips the user's dark-theme preference and returns the new
// value.
func (s *Service) ToggleTheme(ctx context.Context, userID uint) (bool, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	user.ThemeDark = !user.ThemeDark
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return false, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	return user.ThemeDark, nil
}
