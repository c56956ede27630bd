package httpapi

import (
	"net/http"
)

const recentRunLimit = 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	experiments, err := s.tracker.ListExperiments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	runs, err := s.tracker.RecentRuns(r.Context(), recentRunLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.renderPage(w, "index.html", map[string]any{
		"Experiments": experiments,
		"Runs":        runs,
	})
}

func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := s.tracker.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	params, err := s.tracker.Params(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	metrics, err := s.tracker.Metrics(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	artifacts, err := s.artifacts.List(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.renderPage(w, "run.html", map[string]any{
		"Run":       run,
		"Params":    params,
		"Metrics":   metrics,
		"Artifacts": artifacts,
	})
}

func (s *Server) renderPage(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render page", "template", name, "error", err)
	}
}
