package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/milbratheduardo/task-manager/middleware"
	"github.com/milbratheduardo/task-manager/models"
	"github.com/milbratheduardo/task-manager/services"
)

type AuthHandler struct {
	AuthService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{AuthService: authService}
}

type authResponse struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Role            models.UserRole `json:"role"`
	ProfileImageURL string          `json:"profileImageUrl"`
	Token           string          `json:"token"`
}

func newAuthResponse(user *models.User, token string) authResponse {
	return authResponse{
		ID:              user.ID.Hex(),
		Name:            user.Name,
		Email:           user.Email,
		Role:            user.Role,
		ProfileImageURL: user.ProfileImageURL,
		Token:           token,
	}
}

// Register creates a new account and returns it with a signed token.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	user, token, err := h.AuthService.Register(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, newAuthResponse(user, token))
}

// Login verifies credentials and returns the account with a fresh token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	user, token, err := h.AuthService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newAuthResponse(user, token))
}

// GetProfile returns the acting user's record.
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateProfile applies the provided profile fields and returns the updated
// record together with a fresh token.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		respondMessage(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	var input services.ProfileUpdateInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	user, token, err := h.AuthService.UpdateProfile(r.Context(), identity.ID, input)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, newAuthResponse(user, token))
}
