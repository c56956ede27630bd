package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"

	"github.com/randalmurphal/mltrack/artifact"
)

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")
	if _, err := s.tracker.GetRun(r.Context(), runID); err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		s.badRequest(w, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	relPath := r.FormValue("path")
	if relPath == "" {
		relPath = header.Filename
	}

	res, err := s.artifacts.Put(runID, relPath, file)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"path":   relPath,
		"bytes":  res.Bytes,
		"digest": res.Digest,
	})
}

func (s *Server) handleImportArchive(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")
	if _, err := s.tracker.GetRun(r.Context(), runID); err != nil {
		s.writeError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	file, _, err := r.FormFile("zip")
	if err != nil {
		if isBodyTooLarge(err) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "upload too large"})
			return
		}
		s.badRequest(w, "multipart field \"zip\" is required")
		return
	}
	defer file.Close()

	blob, size, err := readerAt(file)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("read archive: %w", err))
		return
	}
	zr, err := artifact.OpenZip(blob, size)
	if err != nil {
		s.badRequest(w, "not a valid zip archive")
		return
	}

	imported, err := s.importer.ImportZip(runID, zr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"imported": imported})
}

// readerAt sizes a multipart file for random access. The multipart reader
// spools large parts to disk, so both forms already satisfy io.ReaderAt.
func readerAt(file multipart.File) (io.ReaderAt, int64, error) {
	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, err
	}
	return file, size, nil
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")
	if _, err := s.tracker.GetRun(r.Context(), runID); err != nil {
		s.writeError(w, r, err)
		return
	}
	paths, err := s.artifacts.List(runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"artifacts": paths})
}

func (s *Server) handleDownloadArtifact(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("runID")
	relPath := r.PathValue("path")

	rc, size, err := s.retriever.Fetch(runID, relPath)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(relPath)))
	if _, err := io.Copy(w, rc); err != nil {
		s.log.Error("stream artifact", "run", runID, "path", relPath, "error", err)
	}
}

func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
