package httpmiddleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/unrolled/secure"
)

// CORSConfig is the subset of cors.Options the server exposes.
type CORSConfig struct {
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowedOrigins   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// DefaultCORSConfig lets browsers call POST /invoke and the probes from any
// origin and read the correlation ID of the response.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Authorization"},
		AllowedOrigins: []string{"https://*", "http://*"},
		ExposedHeaders: []string{"X-Correlation-ID"},
		MaxAge:         300,
	}
}

func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedMethods:   config.AllowedMethods,
		AllowedHeaders:   config.AllowedHeaders,
		AllowedOrigins:   config.AllowedOrigins,
		ExposedHeaders:   config.ExposedHeaders,
		AllowCredentials: config.AllowCredentials,
		MaxAge:           config.MaxAge,
	})
}

// APISecurityOptions suits a service that only ever returns JSON: nothing
// may be framed, sniffed or loaded from its responses.
func APISecurityOptions() secure.Options {
	return secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		ReferrerPolicy:        "no-referrer",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	}
}

// Security sets response security headers. nil opts means APISecurityOptions.
func Security(opts *secure.Options) func(http.Handler) http.Handler {
	o := APISecurityOptions()
	if opts != nil {
		o = *opts
	}
	return secure.New(o).Handler
}
