package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// recordingHandler counts how often the protected handler is reached.
type recordingHandler struct {
	calls int
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.calls++
	w.WriteHeader(http.StatusOK)
}

func Test_NewAuthMiddleware_Cases(t *testing.T) {
	const token = "s3cret-token"

	tests := []struct {
		name       string
		token      string
		method     string
		path       string
		authHeader string
		wantStatus int
	}{
		{name: "health is open without a header", token: token, method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "health is open with a bad header", token: token, method: http.MethodGet, path: "/health", authHeader: "Bearer nope", wantStatus: http.StatusOK},
		{name: "operation list needs a token", token: token, method: http.MethodGet, path: "/api/operations", wantStatus: http.StatusUnauthorized},
		{name: "operation list with token", token: token, method: http.MethodGet, path: "/api/operations", authHeader: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "run with token", token: token, method: http.MethodPost, path: "/api/operations/query_ping", authHeader: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "mcp endpoint needs a token", token: token, method: http.MethodPost, path: "/mcp", wantStatus: http.StatusUnauthorized},
		{name: "mcp endpoint with token", token: token, method: http.MethodPost, path: "/mcp", authHeader: "Bearer " + token, wantStatus: http.StatusOK},
		{name: "same length wrong token", token: token, method: http.MethodPost, path: "/mcp", authHeader: "Bearer s3cret-tokeX", wantStatus: http.StatusUnauthorized},
		{name: "token prefix only", token: token, method: http.MethodPost, path: "/mcp", authHeader: "Bearer s3cret", wantStatus: http.StatusUnauthorized},
		{name: "empty bearer value", token: token, method: http.MethodGet, path: "/api/operations", authHeader: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "lowercase scheme", token: token, method: http.MethodGet, path: "/api/operations", authHeader: "bearer " + token, wantStatus: http.StatusUnauthorized},
		{name: "exempt match is exact", token: token, method: http.MethodGet, path: "/health/extra", wantStatus: http.StatusUnauthorized},
		{name: "no configured token disables auth", token: "", method: http.MethodPost, path: "/mcp", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &recordingHandler{}
			handler := NewAuthMiddleware(tt.token, "/health")(next)

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("%s %s status = %d, want %d", tt.method, tt.path, rr.Code, tt.wantStatus)
			}
			wantCalls := 0
			if tt.wantStatus == http.StatusOK {
				wantCalls = 1
			}
			if next.calls != wantCalls {
				t.Errorf("next handler called %d times, want %d", next.calls, wantCalls)
			}
		})
	}
}

func Test_NewAuthMiddleware_NoExemptPaths(t *testing.T) {
	next := &recordingHandler{}
	handler := NewAuthMiddleware("tok")(next)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusUnauthorized || next.calls != 0 {
		t.Errorf("status = %d, calls = %d; want 401 and 0 when nothing is exempt", rr.Code, next.calls)
	}
}
