package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/docedit/internal/config"
	"github.com/dgallion1/docedit/internal/editor"
	"github.com/dgallion1/docedit/internal/pipeline"
	"github.com/dgallion1/docedit/internal/stats"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for docedit. It holds no documents; every
// request carries the tree it operates on.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	editor       *editor.Editor
	stats        *stats.Set
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, ed *editor.Editor, st *stats.Set, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		editor:       ed,
		stats:        st,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/documents/normalize", s.handleNormalize)
		r.Post("/api/documents/apply", s.handleApply)
		r.Post("/api/documents/markdown", s.handleMarkdown)
		r.Post("/api/documents/outline", s.handleOutline)

		r.Post("/api/drag/begin", s.handleDragBegin)
		r.Post("/api/drag/drop", s.handleDragDrop)

		r.Post("/api/import", s.handleImport)
		r.Post("/api/import/batch", s.handleBatchImport)
		r.Get("/api/import/{jobID}/status", s.handleImportStatus)

		r.Get("/api/stats/latency", s.handleLatencyStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLatencyStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"stats":       s.stats.Snapshot(),
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
