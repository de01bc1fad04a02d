// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/cristianszwarc/ludmin/internal/token"
)

type ctxKey string

const bearerKey ctxKey = "bearer"

// WithAccessGate is the per-request authorization pre-check.
//
// It rejects non-GET/DELETE requests that arrive without a JSON object
// body, decodes the bearer token best-effort into the request context, and
// requires a strictly valid token for every route outside /tokens. The
// /tokens routes bootstrap or refresh identity, so an absent or expired
// token must be able to reach them.
//
// routed reports whether the request matches a registered route; requests
// that match nothing pass through untouched so the router can answer 404
// regardless of token state. A nil routed enforces everywhere.
//
// Capability checks are not performed here; each operation consults the
// decoded claims itself.
func WithAccessGate(tokens *token.Service, routed func(*http.Request) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet && r.Method != http.MethodDelete {
				body, err := io.ReadAll(r.Body)
				if err != nil || !isJSONObject(body) {
					writeError(w, http.StatusBadRequest, "Invalid request.")
					return
				}
				// hand the buffered body to the handler
				r.Body = io.NopCloser(bytes.NewReader(body))
			}

			bearer := tokens.Bearer(r.Header.Get("Authorization"))
			ctx := ContextWithBearer(r.Context(), bearer)

			if !strings.HasPrefix(r.URL.Path, "/tokens") && (routed == nil || routed(r)) {
				if _, err := bearer.DecodeOrFail(true); err != nil {
					writeError(w, http.StatusUnauthorized, err.Error())
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// isJSONObject reports whether the body is a valid JSON object. Bare null,
// arrays and scalars count as an absent body.
func isJSONObject(body []byte) bool {
	body = bytes.TrimSpace(body)
	return len(body) > 0 && body[0] == '{' && json.Valid(body)
}

// BearerFromContext extracts the per-request token state stored by the
// access gate. Returns nil when the gate did not run.
func BearerFromContext(ctx context.Context) *token.Bearer {
	val := ctx.Value(bearerKey)
	if b, ok := val.(*token.Bearer); ok {
		return b
	}
	return nil
}

// ContextWithBearer stores the per-request token state; used by the gate
// and by handler tests.
func ContextWithBearer(ctx context.Context, b *token.Bearer) context.Context {
	return context.WithValue(ctx, bearerKey, b)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
