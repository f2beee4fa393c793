package httpmiddleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/lewisedginton/weather_agent/pkg/logger"
)

// CorrelationID middleware gives every request a fresh correlation ID.
// Client-provided correlation headers are ignored. The ID is set on the
// request header, echoed on the response and stored in the request context
// so that it follows work handed off to background tasks.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := uuid.New().String()

			r.Header.Set(logger.CorrelationIDHeader, correlationID)
			w.Header().Set(logger.CorrelationIDHeader, correlationID)

			ctx := logger.WithCorrelationIDContext(r.Context(), correlationID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
