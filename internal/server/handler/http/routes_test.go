package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/cristianszwarc/ludmin/internal/token"
)

func testRouter(t *testing.T, tokens *token.Service) http.Handler {
	t.Helper()
	return NewRouter(
		&TokensHandler{Sessions: &fakeSessionService{publicToken: "tok", publicDevice: "dev", refreshToken: "tok", refreshType: "Refresh"}},
		&UsersHandler{Users: &fakeUserService{}},
		&ResetHandler{Resets: &fakeResetService{}},
		tokens,
		zap.NewNop(),
	)
}

func TestRouter_Gate(t *testing.T) {
	tokens := token.NewService("test-secret", 300)
	router := testRouter(t, tokens)

	public, err := tokens.IssuePublic("d1", []string{token.AreaPublic})
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}

	tests := []struct {
		name         string
		method       string
		target       string
		body         string
		contentType  string
		authHeader   string
		expectedCode int
	}{
		{
			name:         "public bootstrap without token",
			method:       "POST",
			target:       "/tokens/public",
			body:         `{}`,
			contentType:  "application/json",
			expectedCode: http.StatusOK,
		},
		{
			name:         "non-JSON content type rejected",
			method:       "POST",
			target:       "/tokens/public",
			body:         `{}`,
			contentType:  "text/plain",
			expectedCode: http.StatusUnsupportedMediaType,
		},
		{
			name:         "malformed body rejected before routing",
			method:       "POST",
			target:       "/users",
			body:         `{broken`,
			contentType:  "application/json",
			authHeader:   "Bearer " + public,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "guarded route without token",
			method:       "GET",
			target:       "/users/me",
			expectedCode: http.StatusUnauthorized,
		},
		{
			name:         "guarded route with token reaches handler",
			method:       "GET",
			target:       "/users/me",
			authHeader:   "Bearer " + public,
			expectedCode: http.StatusOK,
		},
		{
			name:         "refresh without token reaches handler",
			method:       "GET",
			target:       "/tokens/d1",
			expectedCode: http.StatusOK,
		},
		{
			name:         "unknown route with token",
			method:       "GET",
			target:       "/nope",
			authHeader:   "Bearer " + public,
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "unknown route without token",
			method:       "GET",
			target:       "/nope",
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "null body rejected",
			method:       "PUT",
			target:       "/users/me",
			body:         `null`,
			contentType:  "application/json",
			authHeader:   "Bearer " + public,
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.body != "" {
				req = httptest.NewRequest(tt.method, tt.target, bytes.NewBufferString(tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.target, nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d (body %s)", tt.expectedCode, rec.Code, rec.Body.String())
			}
		})
	}
}
