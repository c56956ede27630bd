package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/randalmurphal/mltrack/registry"
)

func (s *Server) handleSaveModel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if isBodyTooLarge(err) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		s.badRequest(w, "multipart form expected")
		return
	}

	raw := r.FormValue("manifest")
	if raw == "" {
		s.badRequest(w, "multipart field \"manifest\" is required")
		return
	}
	var manifest registry.Manifest
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&manifest); err != nil {
		s.badRequest(w, "invalid manifest: "+err.Error())
		return
	}

	payload, _, err := r.FormFile("payload")
	if err != nil {
		s.badRequest(w, "multipart field \"payload\" is required")
		return
	}
	defer payload.Close()

	saved, err := s.models.Save(manifest, payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	manifests, err := s.models.List()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"models": manifests})
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	manifest, err := s.models.Load(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, manifest)
}

func (s *Server) handleModelPayload(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	rc, size, err := s.models.Open(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".bin"))
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Error("stream model payload", "model", name, "error", err)
	}
}
