package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/unrolled/secure"
)

func TestDefaultCORSConfig(t *testing.T) {
	config := DefaultCORSConfig()

	if !slices.Contains(config.AllowedMethods, http.MethodPost) {
		t.Error("Expected POST to be allowed for /invoke")
	}

	if !slices.Contains(config.ExposedHeaders, "X-Correlation-ID") {
		t.Error("Expected correlation header to be exposed to browsers")
	}

	if config.MaxAge <= 0 {
		t.Error("Expected default CORS config to have positive MaxAge")
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORS(DefaultCORSConfig())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/invoke", nil)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, req)

	if recorder.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Expected Access-Control-Allow-Origin header to be set")
	}
}

func TestSecurityMiddleware(t *testing.T) {
	handler := Security(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

	if recorder.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", recorder.Code)
	}

	want := map[string]string{
		"X-Frame-Options":         "DENY",
		"X-Content-Type-Options":  "nosniff",
		"Referrer-Policy":         "no-referrer",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
	}
	for header, value := range want {
		if got := recorder.Header().Get(header); got != value {
			t.Errorf("Expected %s %q, got %q", header, value, got)
		}
	}
}

func TestSecurityMiddleware_CustomOptions(t *testing.T) {
	handler := Security(&secure.Options{ContentTypeNosniff: true})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/invoke", nil))

	if got := recorder.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("Expected no X-Frame-Options with custom options, got %q", got)
	}
	if got := recorder.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff, got %q", got)
	}
}
