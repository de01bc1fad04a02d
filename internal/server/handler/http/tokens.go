package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cristianszwarc/ludmin/internal/middleware"
	"github.com/cristianszwarc/ludmin/internal/service"
	"github.com/cristianszwarc/ludmin/internal/token"
)

// SessionService defines the session operations required by the token
// handlers.
type SessionService interface {
	// PublicToken issues an anonymous token, generating a device id when
	// the supplied one is unusable. Returns the token and the device id.
	PublicToken(deviceID string) (string, string, error)
	// Login verifies credentials and attaches the bearer's device.
	Login(ctx context.Context, bearer *token.Bearer, email, password, description string) (string, error)
	// Refresh rotates or degrades the session of a device. Returns the
	// token and a type hint ("Refresh" or "Public").
	Refresh(ctx context.Context, bearer *token.Bearer, deviceID string) (string, string, error)
	// Logout detaches a device from the bearer's user.
	Logout(ctx context.Context, bearer *token.Bearer, deviceID string) error
}

// TokensHandler handles the token issuance and session routes.
type TokensHandler struct {
	// Sessions performs the underlying session operations.
	Sessions SessionService
}

// PublicTokenRequest is the JSON payload for the public bootstrap route.
type PublicTokenRequest struct {
	// DeviceID is optional; anything but a 32-character id is replaced.
	DeviceID string `json:"device_id"`
}

// LoginRequest is the JSON payload for login.
type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Description string `json:"description"`
}

// PublicToken handles POST /tokens/public. It always succeeds, issuing an
// anonymous device-scoped token.
func (h *TokensHandler) PublicToken(w http.ResponseWriter, r *http.Request) {
	var req PublicTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	raw, deviceID, err := h.Sessions.PublicToken(req.DeviceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"device_id": deviceID,
		"token":     raw,
	})
}

// Login handles POST /tokens. The device id comes from the caller's own
// token, not the body.
func (h *TokensHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Email == "" || req.Password == "" || req.Description == "" {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	bearer := middleware.BearerFromContext(r.Context())
	raw, err := h.Sessions.Login(r.Context(), bearer, req.Email, req.Password, req.Description)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"token":   raw,
		"type":    service.TypeLogin,
	})
}

// Refresh handles GET /tokens/{device_id}.
func (h *TokensHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	bearer := middleware.BearerFromContext(r.Context())
	deviceID := chi.URLParam(r, "device_id")

	raw, typ, err := h.Sessions.Refresh(r.Context(), bearer, deviceID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"token":   raw,
		"type":    typ,
	})
}

// Logout handles DELETE /tokens/{device_id}.
func (h *TokensHandler) Logout(w http.ResponseWriter, r *http.Request) {
	bearer := middleware.BearerFromContext(r.Context())
	deviceID := chi.URLParam(r, "device_id")

	if err := h.Sessions.Logout(r.Context(), bearer, deviceID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
