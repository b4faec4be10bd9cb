package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mwantia/godrive/internal/auth"
	config "github.com/mwantia/godrive/internal/config/server"
	"github.com/mwantia/godrive/internal/drive"
	"github.com/mwantia/godrive/pkg/blob"
	"github.com/mwantia/godrive/pkg/db/store"
	"github.com/mwantia/godrive/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	metadata, err := store.NewSQLiteStore(store.SQLiteConfig{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = metadata.Close() })

	ctx := context.Background()
	require.NoError(t, metadata.Connect(ctx))
	require.NoError(t, metadata.Migrate(ctx))

	blobs, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	logger := log.NewLoggerService("test", config.LogServerConfig{
		Level:      "FATAL",
		TimeFormat: "15:04:05",
		NoColor:    true,
	})

	authSvc := auth.NewService(metadata, logger, config.AuthServerConfig{
		SessionTTL: "1h",
		BcryptCost: 4,
	})
	driveSvc := drive.NewService(metadata, blobs, logger)

	return New(config.HTTPServerConfig{
		Address:       "127.0.0.1:0",
		ReadTimeout:   "5s",
		WriteTimeout:  "5s",
		MaxUploadSize: 8 << 20,
	}, logger, authSvc, driveSvc, metadata)
}

// doJSON sends a JSON request through the routed handler. A non-nil cookie
// authenticates the request.
func doJSON(t *testing.T, s *Server, method, target string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func registerUser(t *testing.T, s *Server, username string) *http.Cookie {
	t.Helper()

	rec := doJSON(t, s, http.MethodPost, "/api/register", map[string]string{
		"username": username,
		"password": "secret",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == sessionCookie {
			return cookie
		}
	}
	t.Fatalf("no session cookie set for %s", username)
	return nil
}

func uploadFiles(t *testing.T, s *Server, cookie *http.Cookie, folderID string, names ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if folderID != "" {
		require.NoError(t, writer.WriteField("folder_id", folderID))
	}
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("content of " + name))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRegister_SetsSessionCookie(t *testing.T) {
	s := newTestServer(t)

	cookie := registerUser(t, s, "alice")
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/register", map[string]string{
		"username": "alice",
		"password": "other",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	s := newTestServer(t)
	registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/login", map[string]string{
		"username": "alice",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboard_RequiresSession(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/dashboard", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, &http.Cookie{
		Name: sessionCookie, Value: "bogus",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_InvalidatesSession(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateFolder_AndDashboardListing(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/folders", map[string]any{"name": "Documents"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "Documents", created["name"])

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	folders := payload["folders"].([]any)
	require.Len(t, folders, 1)
	assert.Equal(t, "Documents", folders[0].(map[string]any)["name"])
	assert.Empty(t, payload["breadcrumbs"])
	assert.NotContains(t, payload, "current")
}

func TestCreateFolder_EmptyName(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/folders", map[string]any{"name": "  "}, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboard_NestedFolderBreadcrumbs(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/folders", map[string]any{"name": "Docs"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	parentID := uint(decodeBody(t, rec)["id"].(float64))

	rec = doJSON(t, s, http.MethodPost, "/api/folders", map[string]any{"name": "Sub", "parent_id": parentID}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	childID := uint(decodeBody(t, rec)["id"].(float64))

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/dashboard?folder=%d", childID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	payload := decodeBody(t, rec)
	assert.Equal(t, "Sub", payload["current"].(map[string]any)["name"])

	crumbs := payload["breadcrumbs"].([]any)
	require.Len(t, crumbs, 1)
	assert.Equal(t, "Docs", crumbs[0].(map[string]any)["name"])
}

func TestUpload_ThenDownload(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := uploadFiles(t, s, cookie, "", "notes.txt")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decodeBody(t, rec)["uploaded"])

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	files := decodeBody(t, rec)["files"].([]any)
	require.Len(t, files, 1)
	fileID := uint(files[0].(map[string]any)["id"].(float64))

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/files/%d/download", fileID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "content of notes.txt", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "notes.txt")
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
}

func TestUpload_CollisionGetsSuffix(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := uploadFiles(t, s, cookie, "", "report.pdf")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = uploadFiles(t, s, cookie, "", "report.pdf")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	files := decodeBody(t, rec)["files"].([]any)
	require.Len(t, files, 2)

	names := make(map[string]bool)
	for _, f := range files {
		names[f.(map[string]any)["name"].(string)] = true
	}
	assert.True(t, names["report.pdf"])
	assert.True(t, names["report_1.pdf"])
}

func TestUpload_RejectedExtension(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := uploadFiles(t, s, cookie, "", "script.sh")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["uploaded"])
}

func TestUpload_PartialBatch(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := uploadFiles(t, s, cookie, "", "ok.txt", "bad.sh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["uploaded"])
}

func TestUpload_IntoMissingFolder(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := uploadFiles(t, s, cookie, "999", "notes.txt")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFile(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := uploadFiles(t, s, cookie, "", "notes.txt")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, cookie)
	files := decodeBody(t, rec)["files"].([]any)
	fileID := uint(files[0].(map[string]any)["id"].(float64))

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/files/%d", fileID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/files/%d", fileID), nil, cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteFolder_Cascades(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/folders", map[string]any{"name": "Docs"}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	folderID := uint(decodeBody(t, rec)["id"].(float64))

	rec = uploadFiles(t, s, cookie, fmt.Sprintf("%d", folderID), "inside.txt")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/folders/%d", folderID), nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	assert.Empty(t, payload["folders"])
	assert.Empty(t, payload["files"])
}

func TestCrossUserAccessForbidden(t *testing.T) {
	s := newTestServer(t)
	alice := registerUser(t, s, "alice")
	bob := registerUser(t, s, "bob")

	rec := doJSON(t, s, http.MethodPost, "/api/folders", map[string]any{"name": "Private"}, alice)
	require.Equal(t, http.StatusCreated, rec.Code)
	folderID := uint(decodeBody(t, rec)["id"].(float64))

	rec = uploadFiles(t, s, alice, "", "secret.txt")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, s, http.MethodGet, "/api/dashboard", nil, alice)
	files := decodeBody(t, rec)["files"].([]any)
	fileID := uint(files[0].(map[string]any)["id"].(float64))

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/dashboard?folder=%d", folderID), nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodGet, fmt.Sprintf("/api/files/%d/download", fileID), nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/folders/%d", folderID), nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, s, http.MethodDelete, fmt.Sprintf("/api/files/%d", fileID), nil, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestToggleTheme(t *testing.T) {
	s := newTestServer(t)
	cookie := registerUser(t, s, "alice")

	rec := doJSON(t, s, http.MethodPost, "/api/theme", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeBody(t, rec)["dark_theme"])

	rec = doJSON(t, s, http.MethodPost, "/api/theme", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["dark_theme"])
}
