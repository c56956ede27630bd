package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/randalmurphal/mltrack/artifact"
	"github.com/randalmurphal/mltrack/registry"
	"github.com/randalmurphal/mltrack/tracking"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encode response", "error", err)
	}
}

// writeError maps error kinds to status codes. Every handler funnels its
// failures through here so the mapping lives in exactly one place.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		escape  *artifact.PathEscapeError
		quota   *artifact.QuotaError
		invalid *registry.ValidationError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, artifact.ErrNotFound),
		errors.Is(err, tracking.ErrExperimentNotFound),
		errors.Is(err, tracking.ErrRunNotFound),
		errors.Is(err, registry.ErrModelNotFound):
		status = http.StatusNotFound
	case errors.As(err, &escape), errors.As(err, &invalid):
		status = http.StatusBadRequest
	case errors.As(err, &quota):
		status = http.StatusRequestEntityTooLarge
	}

	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
