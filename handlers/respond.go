package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/milbratheduardo/task-manager/logging"
	"github.com/milbratheduardo/task-manager/services"
)

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Message: message})
}

// respondError maps service errors onto the HTTP taxonomy. Anything outside
// the known sentinels is reported as a server error with the underlying
// detail attached.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrForbidden):
		respondJSON(w, http.StatusForbidden, errorResponse{Message: "Not authorized"})
	case errors.Is(err, services.ErrValidation):
		respondJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, services.ErrEmailTaken):
		respondJSON(w, http.StatusConflict, errorResponse{Message: "User already exists"})
	case errors.Is(err, services.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid email or password"})
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %v", err)
		respondJSON(w, http.StatusInternalServerError, errorResponse{Message: "Server error", Error: err.Error()})
	}
}
