package httpapi

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/randalmurphal/mltrack/artifact"
	"github.com/randalmurphal/mltrack/registry"
	"github.com/randalmurphal/mltrack/tracking"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server holds the handler dependencies. Construct with NewServer and mount
// Routes on an http.Server.
type Server struct {
	tracker   *tracking.Store
	artifacts *artifact.Store
	importer  *artifact.Importer
	retriever *artifact.Retriever
	models    *registry.Registry

	maxUploadBytes int64
	log            *slog.Logger
	tmpl           *template.Template
}

// Options configures a Server. All store fields are required.
type Options struct {
	Tracker   *tracking.Store
	Artifacts *artifact.Store
	Importer  *artifact.Importer
	Retriever *artifact.Retriever
	Models    *registry.Registry

	// MaxUploadBytes caps request bodies on upload endpoints.
	// Zero means 50 MiB.
	MaxUploadBytes int64

	Logger *slog.Logger
}

// NewServer wires the stores into a Server.
func NewServer(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Server{
		tracker:        opts.Tracker,
		artifacts:      opts.Artifacts,
		importer:       opts.Importer,
		retriever:      opts.Retriever,
		models:         opts.Models,
		maxUploadBytes: opts.MaxUploadBytes,
		log:            opts.Logger,
		tmpl:           template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

// Routes returns the full handler tree with request logging applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/experiments", s.handleCreateExperiment)
	mux.HandleFunc("GET /api/experiments", s.handleListExperiments)
	mux.HandleFunc("GET /api/experiments/{id}", s.handleGetExperiment)
	mux.HandleFunc("GET /api/experiments/{id}/runs", s.handleListRuns)

	mux.HandleFunc("POST /api/runs", s.handleCreateRun)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("POST /api/runs/{id}/finish", s.handleFinishRun)
	mux.HandleFunc("POST /api/runs/{id}/params", s.handleLogParam)
	mux.HandleFunc("GET /api/runs/{id}/params", s.handleGetParams)
	mux.HandleFunc("POST /api/runs/{id}/metrics", s.handleLogMetric)
	mux.HandleFunc("GET /api/runs/{id}/metrics", s.handleGetMetrics)

	mux.HandleFunc("POST /api/artifacts/{runID}/file", s.handleUploadFile)
	mux.HandleFunc("POST /api/artifacts/{runID}/archive", s.handleImportArchive)
	mux.HandleFunc("GET /api/artifacts/{runID}", s.handleListArtifacts)
	mux.HandleFunc("GET /api/artifacts/{runID}/{path...}", s.handleDownloadArtifact)

	mux.HandleFunc("POST /api/models", s.handleSaveModel)
	mux.HandleFunc("GET /api/models", s.handleListModels)
	mux.HandleFunc("GET /api/models/{name}", s.handleGetModel)
	mux.HandleFunc("GET /api/models/{name}/payload", s.handleModelPayload)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /runs/{id}", s.handleRunPage)

	return s.logRequests(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).Round(time.Microsecond))
	})
}
