package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/cristianszwarc/ludmin/internal/middleware"
	"github.com/cristianszwarc/ludmin/internal/models"
	"github.com/cristianszwarc/ludmin/internal/token"
)

// ResetService defines the password reset operations required by the
// reset handlers.
type ResetService interface {
	List(ctx context.Context, bearer *token.Bearer) ([]models.ResetRequest, error)
	Request(ctx context.Context, bearer *token.Bearer, email string) error
	Complete(ctx context.Context, bearer *token.Bearer, email, code, password, confirmation string) error
}

// ResetHandler handles the password reset routes.
type ResetHandler struct {
	// Resets performs the underlying reset operations.
	Resets ResetService
}

// ResetRequestPayload is the JSON payload asking for a reset code.
type ResetRequestPayload struct {
	Email string `json:"email"`
}

// ResetCompletePayload is the JSON payload redeeming a reset code.
type ResetCompletePayload struct {
	Email                string `json:"email"`
	Code                 string `json:"code"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// List handles GET /reset_password.
func (h *ResetHandler) List(w http.ResponseWriter, r *http.Request) {
	bearer := middleware.BearerFromContext(r.Context())

	resets, err := h.Resets.List(r.Context(), bearer)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"reset_requests": resets,
	})
}

// Request handles POST /reset_password.
func (h *ResetHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	bearer := middleware.BearerFromContext(r.Context())
	if err := h.Resets.Request(r.Context(), bearer, req.Email); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// Complete handles PUT /reset_password.
func (h *ResetHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req ResetCompletePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil ||
		req.Email == "" || req.Code == "" || req.Password == "" || req.PasswordConfirmation == "" {
		respondError(w, http.StatusBadRequest, "Invalid request.")
		return
	}

	bearer := middleware.BearerFromContext(r.Context())
	if err := h.Resets.Complete(r.Context(), bearer, req.Email, req.Code, req.Password, req.PasswordConfirmation); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}
