package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"blogapi/internal/middleware"
	"blogapi/internal/models"
	"blogapi/internal/repository"
)

type mockUserRepo struct {
	users map[string]*models.User
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
}
func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u := m.users[id]
	if u == nil {
		return nil, fmt.Errorf("user: %w", repository.ErrNotFound)
	}
	return u, nil
}
func (m *mockUserRepo) UpdatePasswordHash(ctx context.Context, userID string, passwordHash string) error {
	return nil
}

const aliceID = "0b7c4a1e-2f3d-4e5f-8a9b-0c1d2e3f4a5b"

func userRouter() http.Handler {
	repo := &mockUserRepo{users: map[string]*models.User{
		aliceID: {ID: aliceID, Username: "alice", Email: "a@b.com", PasswordHash: "secret-hash"},
	}}
	h := NewUserHandler(repo)
	r := chi.NewRouter()
	r.With(middleware.JWTAuth(testSecret)).Get("/api/user/me", h.Me)
	r.Get("/api/user/{id}", h.GetUser)
	return r
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		path   string
		status int
	}{
		{path: "/api/user/" + aliceID, status: http.StatusOK},
		{path: "/api/user/7d2a5c1b-0000-4000-8000-000000000000", status: http.StatusNotFound},
		{path: "/api/user/not-a-uuid", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		userRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if w.Code != tt.status {
			t.Fatalf("%s: expected %d got %d (%s)", tt.path, tt.status, w.Code, w.Body.String())
		}
		if tt.status == http.StatusOK {
			if decodeBody(t, w)["username"] != "alice" {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
			if strings.Contains(w.Body.String(), "secret-hash") {
				t.Fatalf("password hash leaked")
			}
			if _, ok := decodeBody(t, w)["email"]; ok || strings.Contains(w.Body.String(), "a@b.com") {
				t.Fatalf("public profile must not carry the email: %s", w.Body.String())
			}
		}
	}
}

func TestMe(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/user/me", nil)
	req.Header.Set("Authorization", bearer(t, aliceID))
	w := httptest.NewRecorder()
	userRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK || decodeBody(t, w)["id"] != aliceID {
		t.Fatalf("expected alice got %d (%s)", w.Code, w.Body.String())
	}
	if decodeBody(t, w)["email"] != "a@b.com" {
		t.Fatalf("own profile should include the email: %s", w.Body.String())
	}

	w = httptest.NewRecorder()
	userRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/user/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401 got %d", w.Code)
	}
}
