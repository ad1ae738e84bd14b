package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/afabl/decision-matrix/internal/middleware"
)

// call wraps a simple 200-OK inner handler in the CORS middleware and records the response.
func call(t *testing.T, method, origin string) *httptest.ResponseRecorder {
	t.Helper()

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.CORS([]string{"http://localhost:5173", "https://matrix.afabl.com/"})(inner)
	req := httptest.NewRequest(method, "/auth/me", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// TestCORS_AllowedOrigin verifies that an allow-listed origin is echoed back with credentials.
func TestCORS_AllowedOrigin(t *testing.T) {
	rec := call(t, http.MethodGet, "https://matrix.afabl.com")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://matrix.afabl.com" {
		t.Errorf("expected origin to be echoed, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected credentials allowed, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Expose-Headers"); got != "X-Session-Token" {
		t.Errorf("expected X-Session-Token to be exposed, got %q", got)
	}
}

// TestCORS_UnknownOrigin verifies that origins off the allow-list get no CORS headers.
func TestCORS_UnknownOrigin(t *testing.T) {
	rec := call(t, http.MethodGet, "https://evil.example")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no Allow-Origin header, got %q", got)
	}
}

// TestCORS_Preflight verifies that OPTIONS requests are answered without reaching the handler.
func TestCORS_Preflight(t *testing.T) {
	rec := call(t, http.MethodOptions, "http://localhost:5173")

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got == "" {
		t.Error("expected Allow-Methods on preflight")
	}
}
