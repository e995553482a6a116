package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func corsProbe(t *testing.T, allow []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	okHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	req := httptest.NewRequest(method, "/api/products", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	CORS(allow)(okHandler).ServeHTTP(rec, req)
	return rec
}

func TestCORS(t *testing.T) {
	// Wildcard reflects the caller's origin.
	rec := corsProbe(t, []string{"*"}, http.MethodGet, "https://shop.example.com")
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)

	// Preflight short-circuits with 204.
	rec = corsProbe(t, []string{"*"}, http.MethodOptions, "https://shop.example.com")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))

	// Allow list is enforced.
	rec = corsProbe(t, []string{"https://shop.example.com"}, http.MethodGet, "https://evil.example.com")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	rec = corsProbe(t, []string{"https://shop.example.com"}, http.MethodGet, "https://shop.example.com")
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	// Non-browser requests pass through untouched.
	rec = corsProbe(t, []string{"*"}, http.MethodGet, "")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}
