// Package middleware provides HTTP middleware specific to the weather agent.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// RecoveryConfig holds configuration for the recovery middleware
type RecoveryConfig struct {
	Logger              logger.Logger
	EnableStackTrace    bool   // Whether to log full stack traces
	ResponseMessage     string // Body returned to clients
	ResponseContentType string
}

// DefaultRecoveryConfig returns a config whose response body matches the
// {"error": ...} shape of the /invoke endpoint.
func DefaultRecoveryConfig(log logger.Logger) RecoveryConfig {
	return RecoveryConfig{
		Logger:              log,
		EnableStackTrace:    true,
		ResponseMessage:     `{"error":"internal server error"}`,
		ResponseContentType: "application/json",
	}
}

// Recovery returns a middleware that turns handler panics into a logged 500.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recovery(config RecoveryConfig) func(http.Handler) http.Handler {
	if config.Logger == nil {
		config.Logger = logger.NewNopLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					handlePanic(w, r, rec, config)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func handlePanic(w http.ResponseWriter, r *http.Request, rec any, config RecoveryConfig) {
	var stackTrace string
	if config.EnableStackTrace {
		stackTrace = string(debug.Stack())
	}

	logPanic(r, rec, stackTrace, config.Logger)

	w.Header().Set("Content-Type", config.ResponseContentType)
	w.Header().Set("Connection", "close")
	w.WriteHeader(http.StatusInternalServerError)
	if config.ResponseMessage != "" {
		_, _ = w.Write([]byte(config.ResponseMessage))
	}
}

func logPanic(r *http.Request, rec any, stackTrace string, log logger.Logger) {
	fields := []logger.LogField{
		logger.StringField("panic_error", fmt.Sprintf("%v", rec)),
		logger.HTTPMethodField(r.Method),
		logger.HTTPPathField(r.URL.Path),
		logger.ClientIPField(getClientIP(r)),
		logger.StringField("user_agent", r.UserAgent()),
	}
	if stackTrace != "" {
		fields = append(fields, logger.StringField("stack_trace", stackTrace))
	}
	if r.ContentLength > 0 {
		fields = append(fields, logger.Int64Field("content_length", r.ContentLength))
	}

	logger.GetLoggerFromContext(r.Context(), log).Error("HTTP request panic recovered", fields...)
}

// getClientIP prefers proxy headers over RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
