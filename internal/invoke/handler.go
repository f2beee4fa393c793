package invoke

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/lewisedginton/weather_agent/pkg/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves POST /invoke on top of a Service.
type Handler struct {
	service  *Service
	maxBytes int64
	log      logger.Logger
}

// NewHandler creates a Handler. Request bodies larger than maxBytes are rejected.
func NewHandler(service *Service, maxBytes int64, log logger.Logger) *Handler {
	return &Handler{service: service, maxBytes: maxBytes, log: log}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := logger.GetLoggerFromContext(r.Context(), h.log)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	var req AgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: decodeError(err)})
		return
	}

	resp, err := h.service.Invoke(r.Context(), req)
	switch {
	case errors.Is(err, ErrInvalidRequest):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	case err != nil:
		log.Error("Invoke failed", logger.ErrorField(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func decodeError(err error) string {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)
	}
	return fmt.Sprintf("invalid request body: %v", err)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error("Failed to encode response", logger.ErrorField(err))
	}
}
