package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/syntenic/services/internal/services"
)

const badRequestReason = "Required arguments are missing or have invalid values"

type errorEnvelope struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (s *Server) respond(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("write response", zap.Error(err))
	}
}

func (s *Server) fail(w http.ResponseWriter, code int, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorEnvelope{Status: "failed", Reason: reason}); err != nil {
		s.logger.Error("write error response", zap.Error(err))
	}
}

// serviceError maps a service error onto the wire. Internal errors are
// logged with context and returned opaque.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		s.fail(w, http.StatusBadRequest, badRequestReason)
	case errors.Is(err, services.ErrNotFound):
		s.fail(w, http.StatusNotFound, "not found")
	default:
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		s.fail(w, http.StatusInternalServerError, "internal server error")
	}
}

// decode reads a JSON request body; a malformed body is a client error.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, into any) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.fail(w, http.StatusBadRequest, badRequestReason)
		return false
	}
	return true
}
