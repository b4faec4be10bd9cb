// Package server exposes the storage service over a JSON HTTP API with
// cookie-based session authentication.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mwantia/godrive/internal/auth"
	config "github.com/mwantia/godrive/internal/config/server"
	"github.com/mwantia/godrive/internal/drive"
	"github.com/mwantia/godrive/pkg/db/store"
	"github.com/mwantia/godrive/pkg/log"
)

// Server wires the HTTP listener to the auth and drive services
type Server struct {
	cfg   config.HTTPServerConfig
	log   log.LoggerService
	auth  *auth.Service
	drive *drive.Service
	store store.MetadataStore

	http *http.Server
}

func New(cfg config.HTTPServerConfig, logger log.LoggerService, authSvc *auth.Service, driveSvc *drive.Service, metadata store.MetadataStore) *Server {
	s := &Server{
		cfg:   cfg,
		log:   logger.Named("http"),
		auth:  authSvc,
		drive: driveSvc,
		store: metadata,
	}

	s.http = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.routes(),
		ReadTimeout:  parseTimeout(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout: parseTimeout(cfg.WriteTimeout, 30*time.Second),
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("POST /api/register", s.handleRegister)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("POST /api/logout", s.withUser(s.handleLogout))

	mux.HandleFunc("GET /api/dashboard", s.withUser(s.handleDashboard))
	mux.HandleFunc("POST /api/folders", s.withUser(s.handleCreateFolder))
	mux.HandleFunc("DELETE /api/folders/{id}", s.withUser(s.handleDeleteFolder))

	mux.HandleFunc("POST /api/upload", s.withUser(s.handleUpload))
	mux.HandleFunc("GET /api/files/{id}/download", s.withUser(s.handleDownload))
	mux.HandleFunc("DELETE /api/files/{id}", s.withUser(s.handleDeleteFile))

	mux.HandleFunc("POST /api/theme", s.withUser(s.handleToggleTheme))

	return mux
}

// Handler returns the routed handler, used by tests to drive requests
// without a listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start begins serving in a background goroutine and reports startup
// failures on the returned channel.
func (s *Server) Start() <-chan error {
	errs := make(chan error, 1)

	go func() {
		s.log.Info("listening on %s", s.cfg.Address)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("http server failed: %w", err)
		}
		close(errs)
	}()

	return errs
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down http server")
	return s.http.Shutdown(ctx)
}

func parseTimeout(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
