// Package server is the HTTP + WebSocket API surface for the requirements
// risk analyzer: document uploads, analysis jobs with live progress, report
// retrieval in every supported format, and rules management.
package server

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/avendel/reqstress/internal/app"
	"github.com/avendel/reqstress/internal/logging"
	"github.com/avendel/reqstress/internal/registry"
	"github.com/avendel/reqstress/internal/report"

	_ "modernc.org/sqlite" // SQLite driver
)

// maxUploadBytes bounds requirement document uploads.
const maxUploadBytes = 8 << 20

// Server exposes the orchestrator over HTTP.
type Server struct {
	cfg          Config
	orchestrator *app.Orchestrator
	router       chi.Router
	upgrader     websocket.Upgrader
	logger       logging.Logger
	db           *sql.DB
}

// NewServer creates a Server with its own Orchestrator and storage.
func NewServer(cfg Config) (*Server, error) {
	if cfg.AppConfig == nil {
		cfg.AppConfig = app.DefaultConfig()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewStdoutLogger("Server")
	}

	var (
		db    *sql.DB
		store *registry.Store
		err   error
	)
	if cfg.AppConfig.DatabasePath != "" {
		db, err = sql.Open("sqlite", cfg.AppConfig.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		store, err = registry.NewStore(db, logger)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("creating store: %w", err)
		}
	}

	orch, err := app.NewOrchestrator(cfg.AppConfig, store, logger)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	s := &Server{
		cfg:          cfg,
		orchestrator: orch,
		router:       chi.NewRouter(),
		logger:       logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// TODO: tighten for production
				return true
			},
		},
		db: db,
	}

	s.routes()
	return s, nil
}

// Orchestrator returns the underlying orchestrator for advanced use (tests, etc.).
func (s *Server) Orchestrator() *app.Orchestrator {
	return s.orchestrator
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/uploads", s.optionsHandler("GET, POST"))
	r.Options("/uploads/{uploadID}", s.optionsHandler("GET, DELETE"))
	r.Options("/uploads/{uploadID}/analyses", s.optionsHandler("POST"))
	r.Options("/analyses", s.optionsHandler("GET"))
	r.Options("/analyses/{jobID}", s.optionsHandler("GET, DELETE"))
	r.Options("/analyses/{jobID}/report", s.optionsHandler("GET"))
	r.Options("/rules", s.optionsHandler("GET"))
	r.Options("/rules/categories/{category}", s.optionsHandler("PATCH"))

	// Uploads
	r.Post("/uploads", s.handleCreateUpload)
	r.Get("/uploads", s.handleListUploads)
	r.Get("/uploads/{uploadID}", s.handleGetUpload)
	r.Delete("/uploads/{uploadID}", s.handleDeleteUpload)

	// Analysis jobs over REST
	r.Post("/uploads/{uploadID}/analyses", s.handleStartAnalysis)
	r.Get("/analyses", s.handleListJobs)
	r.Get("/analyses/{jobID}", s.handleGetJob)
	r.Delete("/analyses/{jobID}", s.handleCancelJob)
	r.Get("/analyses/{jobID}/report", s.handleGetReport)

	// WebSocket: start an analysis and stream its progress
	r.Get("/ws/uploads/{uploadID}/analyze", s.handleAnalyzeWS)

	// Rules
	r.Get("/rules", s.handleGetRules)
	r.Patch("/rules/categories/{category}", s.handleToggleCategory)
	r.Post("/rules/reload", s.handleReloadRules)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("http_request",
		logging.Field{Key: "method", Value: r.Method},
		logging.Field{Key: "path", Value: r.URL.Path})
	s.router.ServeHTTP(w, r)
}

// Close releases the underlying database.
func (s *Server) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // allow streaming
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// --- HTTP handlers ---

// Uploads

// handleCreateUpload accepts either a multipart form with a "file" part or a
// JSON body {"filename": ..., "content": ...}.
func (s *Server) handleCreateUpload(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "no storage configured")
		return
	}

	filename, content, err := readUploadBody(r)
	if err != nil {
		s.logger.Warn("reading upload body", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	up, err := store.SaveUpload(r.Context(), filename, content)
	if err != nil {
		s.logger.Warn("saving upload", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("created upload",
		logging.Field{Key: "upload_id", Value: up.ID},
		logging.Field{Key: "filename", Value: up.Filename})
	writeJSON(w, http.StatusCreated, up)
}

func readUploadBody(r *http.Request) (filename string, content []byte, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, fmt.Errorf("multipart form is missing a %q part", "file")
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return "", nil, err
		}
		return hdr.Filename, content, nil
	}

	var body struct {
		Filename string `json:"filename"`
		Content  string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", nil, fmt.Errorf("invalid JSON")
	}
	if body.Filename == "" || body.Content == "" {
		return "", nil, fmt.Errorf("filename and content are required")
	}
	return body.Filename, []byte(body.Content), nil
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "no storage configured")
		return
	}

	ups, err := store.ListUploads(r.Context())
	if err != nil {
		s.logger.Warn("listing uploads", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ups)
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "no storage configured")
		return
	}

	up, err := store.GetUpload(r.Context(), chi.URLParam(r, "uploadID"))
	if err != nil {
		if errors.Is(err, registry.ErrUploadNotFound) {
			writeError(w, http.StatusNotFound, "upload not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, up)
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "no storage configured")
		return
	}

	err := store.DeleteUpload(r.Context(), chi.URLParam(r, "uploadID"))
	if err != nil {
		if errors.Is(err, registry.ErrUploadNotFound) {
			writeError(w, http.StatusNotFound, "upload not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analysis jobs

func (s *Server) handleStartAnalysis(w http.ResponseWriter, r *http.Request) {
	job, err := s.orchestrator.StartAnalysisJob(r.Context(), chi.URLParam(r, "uploadID"))
	if err != nil {
		if errors.Is(err, registry.ErrUploadNotFound) {
			writeError(w, http.StatusNotFound, "upload not found")
			return
		}
		s.logger.Warn("starting analysis job", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// REST clients poll; nobody reads the event channel so drain it to let
	// the job close it when done.
	go func() {
		for range job.Events {
		}
	}()

	s.logger.Info("started analysis job", logging.Field{Key: "job_id", Value: job.ID})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.ListJobs())
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if s.orchestrator.GetJob(jobID) == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.orchestrator.CancelJob(jobID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancel requested"})
}

// handleGetReport renders a finished job's report in the requested format
// (?format=markdown|csv|json|html, default json).
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	store := s.orchestrator.Store()
	if store == nil {
		writeError(w, http.StatusServiceUnavailable, "no storage configured")
		return
	}

	jobID := chi.URLParam(r, "jobID")
	rep, err := store.GetReportByJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, registry.ErrReportNotFound) {
			writeError(w, http.StatusNotFound, "report not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	renderer, err := report.New(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := renderer.Render(&buf, rep); err != nil {
		s.logger.Warn("rendering report",
			logging.Field{Key: "job_id", Value: jobID},
			logging.Field{Key: "format", Value: format},
			logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(renderer.Format()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func contentTypeFor(format string) string {
	switch format {
	case "markdown":
		return "text/markdown; charset=utf-8"
	case "csv":
		return "text/csv; charset=utf-8"
	case "html":
		return "text/html; charset=utf-8"
	default:
		return "application/json"
	}
}

// WebSocket

// handleAnalyzeWS starts an analysis of the upload and streams job events
// until the job finishes or the client disconnects.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	uploadID := chi.URLParam(r, "uploadID")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Field{Key: "error", Value: err.Error()})
		return
	}
	defer conn.Close()

	job, err := s.orchestrator.StartAnalysisJob(r.Context(), uploadID)
	if err != nil {
		_ = conn.WriteJSON(map[string]string{"error": err.Error()})
		s.logger.Warn("starting analysis job", logging.Field{Key: "error", Value: err.Error()})
		return
	}

	s.logger.Info("started analysis job", logging.Field{Key: "job_id", Value: job.ID})
	_ = conn.WriteJSON(job)

	for ev := range job.Events {
		if err := conn.WriteJSON(ev); err != nil {
			// Assume client disconnected; cancel job
			s.orchestrator.CancelJob(job.ID)
			return
		}
	}
}

// Rules

func (s *Server) handleGetRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.Rules())
}

func (s *Server) handleToggleCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		writeError(w, http.StatusBadRequest, `body must be {"enabled": true|false}`)
		return
	}

	cfg, err := s.orchestrator.SetCategoryEnabled(category, *body.Enabled)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleReloadRules(w http.ResponseWriter, r *http.Request) {
	if err := s.orchestrator.ReloadRules(); err != nil {
		s.logger.Warn("reloading rules", logging.Field{Key: "error", Value: err.Error()})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"source": s.orchestrator.Rules().Source()})
}
