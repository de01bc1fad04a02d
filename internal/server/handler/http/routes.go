// Package http provides HTTP routing and middleware configuration
// for the identity service.
package http

import (
	"net/http"

	"github.com/cristianszwarc/ludmin/internal/middleware"
	"github.com/cristianszwarc/ludmin/internal/token"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// identity API. It applies JSON content-type enforcement, request
// logging, and the token access gate, and mounts the session, account,
// and password reset endpoints.
//
// Routes:
//
//	POST   /tokens/public       → tokensHandler.PublicToken
//	POST   /tokens              → tokensHandler.Login
//	GET    /tokens/{device_id}  → tokensHandler.Refresh
//	DELETE /tokens/{device_id}  → tokensHandler.Logout
//	GET    /users               → usersHandler.List
//	POST   /users               → usersHandler.Register
//	GET    /users/{user_id}     → usersHandler.Profile
//	PUT    /users/{user_id}     → usersHandler.Update
//	GET    /reset_password      → resetHandler.List
//	POST   /reset_password      → resetHandler.Request
//	PUT    /reset_password      → resetHandler.Complete
//
// Middleware chain (applied in order):
//  1. AllowContentType("application/json") — rejects non-JSON requests
//  2. WithRequestLogging(logger)           — logs incoming requests
//  3. WithAccessGate(tokens, routed)       — body check and token decoding
func NewRouter(
	tokensHandler *TokensHandler,
	usersHandler *UsersHandler,
	resetHandler *ResetHandler,
	tokens *token.Service,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Decode the bearer token and guard everything outside /tokens;
	// requests matching no route fall through to the 404 handler
	routed := func(req *http.Request) bool {
		return r.Match(chi.NewRouteContext(), req.Method, req.URL.Path)
	}
	r.Use(middleware.WithAccessGate(tokens, routed))

	r.Route("/tokens", func(r chi.Router) {
		r.Post("/public", tokensHandler.PublicToken)
		r.Post("/", tokensHandler.Login)
		r.Get("/{device_id}", tokensHandler.Refresh)
		r.Delete("/{device_id}", tokensHandler.Logout)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", usersHandler.List)
		r.Post("/", usersHandler.Register)
		r.Get("/{user_id}", usersHandler.Profile)
		r.Put("/{user_id}", usersHandler.Update)
	})

	r.Route("/reset_password", func(r chi.Router) {
		r.Get("/", resetHandler.List)
		r.Post("/", resetHandler.Request)
		r.Put("/", resetHandler.Complete)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
