package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mwantia/godrive/internal/auth"
	"github.com/mwantia/godrive/internal/drive"
	"github.com/mwantia/godrive/pkg/db/models"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type folderRequest struct {
	Name     string `json:"name"`
	ParentID *uint  `json:"parent_id"`
}

type userResponse struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	DarkTheme bool   `json:"dark_theme"`
}

type folderResponse struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

type fileResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploaded_at"`
	FolderID   *uint     `json:"folder_id,omitempty"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Username: u.Username, DarkTheme: u.ThemeDark}
}

func toFolderResponse(f *models.Folder) folderResponse {
	return folderResponse{ID: f.ID, Name: f.Name, ParentID: f.ParentID}
}

func toFileResponse(f *models.File) fileResponse {
	return fileResponse{ID: f.ID, Name: f.Name, Size: f.Size, UploadedAt: f.UploadedAt, FolderID: f.FolderID}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Health(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unhealthy"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("invalid request body: %w", auth.ErrValidation))
		return
	}

	if _, err := s.auth.Register(r.Context(), req.Username, req.Password); err != nil {
		s.writeError(w, err)
		return
	}

	// Log the fresh account straight in, matching the register flow of the
	// web frontend.
	session, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.setSessionCookie(w, session)
	s.writeJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("invalid request body: %w", auth.ErrValidation))
		return
	}

	session, user, err := s.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.setSessionCookie(w, session)
	s.writeJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request, user *models.User) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if err := s.auth.Logout(r.Context(), cookie.Value); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.clearSessionCookie(w)
	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, user *models.User) {
	folderID, err := optionalID(r.URL.Query().Get("folder"))
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid folder id: %w", drive.ErrValidation))
		return
	}

	listing, err := s.drive.Dashboard(r.Context(), user.ID, folderID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	folders := make([]folderResponse, 0, len(listing.Folders))
	for i := range listing.Folders {
		folders = append(folders, toFolderResponse(&listing.Folders[i]))
	}

	files := make([]fileResponse, 0, len(listing.Files))
	for i := range listing.Files {
		files = append(files, toFileResponse(&listing.Files[i]))
	}

	crumbs := make([]folderResponse, 0, len(listing.Breadcrumbs))
	for i := range listing.Breadcrumbs {
		crumbs = append(crumbs, toFolderResponse(&listing.Breadcrumbs[i]))
	}

	payload := map[string]any{
		"folders":     folders,
		"files":       files,
		"breadcrumbs": crumbs,
		"dark_theme":  user.ThemeDark,
	}
	if listing.Current != nil {
		payload["current"] = toFolderResponse(listing.Current)
	}

	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request, user *models.User) {
	var req folderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("invalid request body: %w", drive.ErrValidation))
		return
	}

	folder, err := s.drive.CreateFolder(r.Context(), user.ID, req.Name, req.ParentID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, toFolderResponse(folder))
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.drive.DeleteFolder(r.Context(), user.ID, id); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, user *models.User) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadSize)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, fmt.Errorf("invalid multipart request: %w", drive.ErrValidation))
		return
	}

	folderID, err := optionalID(r.FormValue("folder_id"))
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid folder id: %w", drive.ErrValidation))
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		s.writeError(w, fmt.Errorf("no files selected: %w", drive.ErrValidation))
		return
	}

	var uploads []drive.Upload
	var opened []io.Closer
	defer func() {
		for _, c := range opened {
			c.Close()
		}
	}()

	for _, header := range headers {
		content, err := header.Open()
		if err != nil {
			s.log.Error("failed to open upload part %q: %v", header.Filename, err)
			continue
		}
		opened = append(opened, content)
		uploads = append(uploads, drive.Upload{Name: header.Filename, Content: content})
	}

	uploaded, err := s.drive.Upload(r.Context(), user.ID, folderID, uploads)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if uploaded == 0 {
		s.writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"uploaded": 0,
			"error":    "no files could be uploaded, check the file formats",
		})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"uploaded": uploaded})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	file, content, err := s.drive.Download(r.Context(), user.ID, id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Name))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))

	if _, err := io.Copy(w, content); err != nil {
		s.log.Error("failed to stream file %d: %v", file.ID, err)
	}
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request, user *models.User) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.drive.DeleteFile(r.Context(), user.ID, id); err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request, user *models.User) {
	dark, err := s.auth.ToggleTheme(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"success": true, "dark_theme": dark})
}

// pathID parses the {id} segment of the request path.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id: %w", drive.ErrValidation)
	}
	return uint(id), nil
}

// optionalID parses an optional id value, mapping the empty string to nil.
func optionalID(value string) (*uint, error) {
	if value == "" {
		return nil, nil
	}
	id, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil, err
	}
	parsed := uint(id)
	return &parsed, nil
}
