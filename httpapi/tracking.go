package httpapi

import (
	"net/http"
	"strings"
)

func (s *Server) handleCreateExperiment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.badRequest(w, "name is required")
		return
	}
	exp, err := s.tracker.CreateExperiment(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, exp)
}

func (s *Server) handleListExperiments(w http.ResponseWriter, r *http.Request) {
	exps, err := s.tracker.ListExperiments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"experiments": exps})
}

func (s *Server) handleGetExperiment(w http.ResponseWriter, r *http.Request) {
	exp, err := s.tracker.GetExperiment(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, exp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.tracker.GetExperiment(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	runs, err := s.tracker.ListRuns(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExperimentID string `json:"experiment_id"`
		Name         string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.ExperimentID == "" {
		s.badRequest(w, "experiment_id is required")
		return
	}
	run, err := s.tracker.CreateRun(r.Context(), req.ExperimentID, req.Name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, run)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.tracker.GetRun(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleFinishRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.tracker.FinishRun(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	run, err := s.tracker.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleLogParam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.Key == "" {
		s.badRequest(w, "key is required")
		return
	}
	if err := s.tracker.LogParam(r.Context(), r.PathValue("id"), req.Key, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.tracker.GetRun(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	params, err := s.tracker.Params(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"params": params})
}

func (s *Server) handleLogMetric(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key   string  `json:"key"`
		Value float64 `json:"value"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, "invalid request body")
		return
	}
	if req.Key == "" {
		s.badRequest(w, "key is required")
		return
	}
	if err := s.tracker.LogMetric(r.Context(), r.PathValue("id"), req.Key, req.Value); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
}

func (s *Server) handleGetMetrics(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.tracker.GetRun(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics, err := s.tracker.Metrics(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"metrics": metrics})
}
