package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"blogapi/internal/repository"
	"blogapi/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

func writeJSONErrorResponse(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, map[string]any{"error": code, "message": message})
}

// writeServiceError maps service and repository sentinels onto HTTP errors.
// Anything unrecognised is logged with op and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, services.ErrInvalidImage):
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_image", err.Error())
	case errors.Is(err, services.ErrInvalidOrExpiredToken):
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_token", "Invalid or expired token")
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
	case errors.Is(err, repository.ErrConflict):
		writeJSONErrorResponse(w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, repository.ErrNotFound):
		writeJSONErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	default:
		log.Printf("%s: %v", op, err)
		writeJSONErrorResponse(w, http.StatusInternalServerError, "internal_error", "Internal server error")
	}
}
