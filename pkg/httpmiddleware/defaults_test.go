package httpmiddleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Timeout != 60*time.Second {
		t.Errorf("Expected timeout to be 60s, got %v", config.Timeout)
	}
	if config.CORS == nil {
		t.Error("Expected CORS config to be set")
	}
	if !config.EnableCorrelationID || !config.EnableRecovery {
		t.Error("Expected correlation ID and recovery to be enabled by default")
	}
	if config.EnableLogging {
		t.Error("Expected logging to be disabled by default (requires logger)")
	}
}

func newTestRouter(buf *bytes.Buffer, mutate func(*Config)) chi.Router {
	config := DefaultConfig()
	config.Logger = logger.NewLogger(logger.Config{Level: logger.DebugLevel, Format: "json", Output: buf})
	config.EnableLogging = true
	if mutate != nil {
		mutate(&config)
	}

	router := chi.NewRouter()
	ApplyToRouter(router, config)
	router.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("test response"))
	})
	router.Get("/panic", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	return router
}

func TestApplyToRouter(t *testing.T) {
	var buf bytes.Buffer
	router := newTestRouter(&buf, nil)

	t.Run("processes request and logs it with correlation id", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/test", nil))

		if recorder.Code != http.StatusOK || recorder.Body.String() != "test response" {
			t.Fatalf("Unexpected response %d %q", recorder.Code, recorder.Body.String())
		}
		id := recorder.Header().Get(logger.CorrelationIDHeader)
		if id == "" {
			t.Fatal("Expected correlation ID on response")
		}
		if !strings.Contains(buf.String(), id) {
			t.Error("Expected request log line to carry the correlation ID")
		}
		if !strings.Contains(buf.String(), "HTTP response sent") {
			t.Error("Expected response log line")
		}
	})

	t.Run("heartbeat endpoint", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if recorder.Code != http.StatusOK {
			t.Errorf("Expected /ping to return 200, got %d", recorder.Code)
		}
	})

	t.Run("recovers from panics", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/panic", nil))
		if recorder.Code != http.StatusInternalServerError {
			t.Errorf("Expected 500 after panic, got %d", recorder.Code)
		}
	})
}

func TestCustomRecoverer(t *testing.T) {
	var buf bytes.Buffer
	called := false
	router := newTestRouter(&buf, func(c *Config) {
		c.Recoverer = func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				defer func() {
					if recover() != nil {
						called = true
						w.WriteHeader(http.StatusTeapot)
					}
				}()
				next.ServeHTTP(w, r)
			})
		}
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/panic", nil))

	if !called || recorder.Code != http.StatusTeapot {
		t.Errorf("Expected custom recoverer to handle the panic, got %d", recorder.Code)
	}
}
