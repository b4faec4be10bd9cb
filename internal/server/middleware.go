package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mwantia/godrive/internal/auth"
	"github.com/mwantia/godrive/internal/drive"
	"github.com/mwantia/godrive/pkg/db/models"
)

const sessionCookie = "session_token"

type userHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// withUser resolves the session cookie into a user before calling next.
// Requests without a valid session are rejected with 401.
func (s *Server) withUser(next userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			s.writeError(w, auth.ErrUnauthenticated)
			return
		}

		user, err := s.auth.Authenticate(r.Context(), cookie.Value)
		if err != nil {
			s.writeError(w, err)
			return
		}

		next(w, r, user)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, session *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("failed to encode response: %v", err)
	}
}

// writeError maps service errors onto HTTP statuses. Every failure carries a
// human-readable message distinguishable from success.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, drive.ErrValidation), errors.Is(err, auth.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, drive.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, drive.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, auth.ErrUsernameTaken):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed: %v", err)
		s.writeJSON(w, status, map[string]any{"error": "internal error"})
		return
	}

	s.writeJSON(w, status, map[string]any{"error": err.Error()})
}
