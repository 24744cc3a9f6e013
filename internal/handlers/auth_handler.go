package handlers

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"

	"blogapi/internal/models"
)

// AuthService is the account workflow used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

type AuthHandler struct {
	svc AuthService
	v   *validator.Validate
}

func NewAuthHandler(svc AuthService) *AuthHandler {
	return &AuthHandler{svc: svc, v: validator.New()}
}

func authResponse(message, token string, u *models.User) models.AuthResponse {
	return models.AuthResponse{
		Message: message,
		Token:   token,
		User: models.UserSummary{
			ID:       u.ID,
			Username: u.Username,
			Email:    u.Email,
		},
	}
}

// Register handles POST /api/user/register
// @Tags Users
// @Summary Register a new user
// @Accept json
// @Produce json
// @Param body body models.RegisterRequest true "Registration"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/user/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, "register", err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, token, err := h.svc.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse("User registered successfully", token, u))
}

// Login handles POST /api/user/login
// @Tags Users
// @Summary Log in and receive a session token
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/user/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, "login", err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse("Login successful", token, u))
}

// ForgotPassword handles POST /api/user/forget-password
// @Tags Users
// @Summary Email a password reset code
// @Description Responds identically whether or not the email is registered.
// @Accept json
// @Produce json
// @Param body body models.ForgotPasswordRequest true "Email"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/user/forget-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, "forgot-password", err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, "forgot-password", err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "If the email is registered, a reset code has been sent")
}

// ResetPassword handles POST /api/user/reset-password
// @Tags Users
// @Summary Redeem a reset code and set a new password
// @Accept json
// @Produce json
// @Param body body models.ResetPasswordRequest true "Reset"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /api/user/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeServiceError(w, "reset-password", err)
		return
	}
	if err := h.v.Struct(req); err != nil {
		// A malformed code can never match, so it reads as an invalid token.
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) == 1 && verrs[0].Field() == "Token" && verrs[0].Tag() != "required" {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
			return
		}
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		writeServiceError(w, "reset-password", err)
		return
	}
	writeJSONMessage(w, http.StatusOK, "Password reset successfully")
}
