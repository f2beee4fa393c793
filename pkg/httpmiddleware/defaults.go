// Package httpmiddleware bundles the chi middleware stack used by the HTTP server.
package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lewisedginton/weather_agent/pkg/logger"
	"github.com/unrolled/secure"
)

// Config holds configuration for HTTP middleware application.
// Use DefaultConfig() for sensible defaults, then customize as needed.
type Config struct {
	Logger   logger.Logger   // Required for logging middleware
	CORS     *CORSConfig     // CORS configuration
	Security *secure.Options // nil means APISecurityOptions
	Timeout  time.Duration   // Request timeout duration

	// Recoverer replaces chi's middleware.Recoverer when set
	Recoverer func(http.Handler) http.Handler

	EnableCorrelationID bool
	EnableLogging       bool // requires Logger
	EnableRecovery      bool
	EnableCORS          bool
	EnableSecurity      bool
	EnableHeartbeat     bool // adds /ping
	EnableRealIP        bool
	EnableTimeout       bool
}

// DefaultConfig returns a production-ready middleware configuration.
// Logging is disabled by default - set Logger and EnableLogging=true to enable.
func DefaultConfig() Config {
	corsConfig := DefaultCORSConfig()
	return Config{
		CORS:    &corsConfig,
		Timeout: 60 * time.Second,

		EnableCorrelationID: true,
		EnableLogging:       false,
		EnableRecovery:      true,
		EnableCORS:          true,
		EnableSecurity:      true,
		EnableHeartbeat:     true,
		EnableRealIP:        true,
		EnableTimeout:       true,
	}
}

// ApplyToRouter applies the configured middleware to a Chi router.
// First applied is outermost:
//
//  1. CorrelationID
//  2. Security
//  3. RealIP
//  4. Logging
//  5. Recovery
//  6. CORS
//  7. Timeout
//  8. Heartbeat (/ping)
func ApplyToRouter(router chi.Router, config Config) {
	if config.EnableCorrelationID {
		router.Use(CorrelationID())
	}

	if config.EnableSecurity {
		router.Use(Security(config.Security))
	}

	if config.EnableRealIP {
		router.Use(middleware.RealIP)
	}

	if config.EnableLogging && config.Logger != nil {
		router.Use(NewHTTPLogger(config.Logger).Middleware)
	}

	if config.EnableRecovery {
		if config.Recoverer != nil {
			router.Use(config.Recoverer)
		} else {
			router.Use(middleware.Recoverer)
		}
	}

	if config.EnableCORS && config.CORS != nil {
		router.Use(CORS(*config.CORS))
	}

	if config.EnableTimeout {
		router.Use(middleware.Timeout(config.Timeout))
	}

	if config.EnableHeartbeat {
		router.Use(middleware.Heartbeat("/ping"))
	}
}

// WithLogger applies DefaultConfig() with logging enabled.
func WithLogger(router chi.Router, log logger.Logger) {
	config := DefaultConfig()
	config.Logger = log
	config.EnableLogging = true
	ApplyToRouter(router, config)
}
