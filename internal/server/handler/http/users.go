package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cristianszwarc/ludmin/internal/middleware"
	"github.com/cristianszwarc/ludmin/internal/models"
	"github.com/cristianszwarc/ludmin/internal/service"
	"github.com/cristianszwarc/ludmin/internal/token"
)

// UserService defines the account operations required by the user handlers.
type UserService interface {
	Register(ctx context.Context, bearer *token.Bearer, fullName, email, password, confirmation string) error
	List(ctx context.Context, bearer *token.Bearer) ([]models.User, error)
	Profile(ctx context.Context, bearer *token.Bearer, userID string) (*service.Profile, error)
	Update(ctx context.Context, bearer *token.Bearer, userID string, in service.UpdateInput) error
}

// UsersHandler handles registration and profile routes.
type UsersHandler struct {
	// Users performs the underlying account operations.
	Users UserService
}

// RegisterRequest is the JSON payload for registration.
type RegisterRequest struct {
	FullName             string `json:"full_name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// UpdateRequest is the JSON payload for profile updates; all fields are
// optional.
type UpdateRequest struct {
	FullName             string `json:"full_name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
	CurrentPassword      string `json:"current_password"`
}

// Register handles POST /users.
func (h *UsersHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.FullName == "" || req.Email == "" || req.Password == "" || req.PasswordConfirmation == "" {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	bearer := middleware.BearerFromContext(r.Context())
	if err := h.Users.Register(r.Context(), bearer, req.FullName, req.Email, req.Password, req.PasswordConfirmation); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// List handles GET /users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	bearer := middleware.BearerFromContext(r.Context())

	users, err := h.Users.List(r.Context(), bearer)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"users":   users,
	})
}

// Profile handles GET /users/{user_id}, where user_id may be "me".
func (h *UsersHandler) Profile(w http.ResponseWriter, r *http.Request) {
	bearer := middleware.BearerFromContext(r.Context())
	userID := chi.URLParam(r, "user_id")

	profile, err := h.Users.Profile(r.Context(), bearer, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"profile": profile,
	})
}

// Update handles PUT /users/{user_id}, where user_id may be "me".
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	bearer := middleware.BearerFromContext(r.Context())
	userID := chi.URLParam(r, "user_id")

	err := h.Users.Update(r.Context(), bearer, userID, service.UpdateInput{
		FullName:             req.FullName,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
		CurrentPassword:      req.CurrentPassword,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
