package handlers_test

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"

	"confique.app/backend/database"
	"confique.app/backend/models"
	"confique.app/backend/routes"
)

func newTestServer(t *testing.T) (*sql.DB, http.Handler) {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.InitSchema(db))
	t.Cleanup(func() { db.Close() })

	router := mux.NewRouter()
	routes.CreatePostRoutes(db, router)
	routes.CreateUserRoutes(db, router)
	routes.CreateNotificationRoutes(db, router)
	return db, router
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
}

func signup(t *testing.T, h http.Handler, name, email string) (token, userID string) {
	t.Helper()

	w := doJSON(t, h, http.MethodPost, "/users/signup", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	decodeJSON(t, w, &resp)
	require.NotEmpty(t, resp.Token)
	return resp.Token, resp.User.ID
}

func makeAdmin(t *testing.T, db *sql.DB, userID string) {
	t.Helper()
	_, err := db.Exec(`UPDATE users SET is_admin = $1 WHERE id = $2`, true, userID)
	require.NoError(t, err)
}

func createPost(t *testing.T, h http.Handler, token string, body map[string]any) models.Post {
	t.Helper()
	w := doJSON(t, h, http.MethodPost, "/posts", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var p models.Post
	decodeJSON(t, w, &p)
	return p
}

// approvePost flips an event straight to approved, bypassing the admin
// endpoint; the moderation tests exercise the real flow.
func approvePost(t *testing.T, db *sql.DB, postID string) {
	t.Helper()
	_, err := db.Exec(`UPDATE posts SET status = $1 WHERE id = $2`, models.StatusApproved, postID)
	require.NoError(t, err)
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}
