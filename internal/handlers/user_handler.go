package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogapi/internal/models"
	"blogapi/internal/repository"
)

type UserHandler struct {
	users repository.UserRepository
}

func NewUserHandler(users repository.UserRepository) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) lookup(w http.ResponseWriter, r *http.Request, id string) (*models.User, bool) {
	if _, err := uuid.Parse(id); err != nil {
		writeServiceError(w, "get user", fmt.Errorf("user %s: %w", id, repository.ErrNotFound))
		return nil, false
	}
	u, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "get user", err)
		return nil, false
	}
	return u, true
}

// Me handles GET /api/user/me
// @Tags Users
// @Summary Current user profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.UserSummary
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/user/me [get]
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := currentUser(w, r)
	if !ok {
		return
	}
	u, ok := h.lookup(w, r, id)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email})
}

// GetUser handles GET /api/user/{id}
// @Tags Users
// @Summary Get a user profile
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.PublicUser
// @Failure 404 {object} map[string]interface{}
// @Router /api/user/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	u, ok := h.lookup(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.PublicUser{ID: u.ID, Username: u.Username})
}
