package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/nurulfaradila/pcb-defect-detection/internal/core"
	"github.com/nurulfaradila/pcb-defect-detection/internal/service"
	"github.com/nurulfaradila/pcb-defect-detection/internal/shared/logging"
)

// Server exposes the submission gateway and the status/history query API
// over HTTP.
type Server struct {
	inspections *service.InspectionService
	uploadsDir  string
	maxUpload   int64
	logger      logging.Logger

	httpServer *http.Server
}

type ServerOptions struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// MaxUploadBytes bounds the multipart form kept in memory per request.
	MaxUploadBytes int64
	// UploadsDir is served read-only under /uploads/.
	UploadsDir string
}

func NewServer(inspections *service.InspectionService, opts ServerOptions, logger logging.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 16 << 20
	}

	s := &Server{
		inspections: inspections,
		uploadsDir:  opts.UploadsDir,
		maxUpload:   opts.MaxUploadBytes,
		logger:      logger,
	}

	s.httpServer = &http.Server{
		Addr: opts.Addr,
		Handler: ChainMiddleware(s.Routes(),
			RecoveryMiddleware(logger),
			LoggingMiddleware(logger),
			CORSMiddleware,
		),
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		IdleTimeout:  opts.IdleTimeout,
	}
	return s
}

// Routes builds the router; split out so tests can drive handlers without
// binding a socket.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/predict", s.handlePredict).Methods(http.MethodPost)
	r.HandleFunc("/status/{task_id}", s.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)

	if s.uploadsDir != "" {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(s.uploadsDir))),
		)
	}
	return r
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to PCB Defect Detection API",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	contentType := header.Header.Get("Content-Type")

	job, err := s.inspections.Submit(r.Context(), data, contentType, header.Filename)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidInput):
			s.respondError(w, http.StatusBadRequest, "Invalid file type. Please upload an image.")
		case errors.Is(err, core.ErrQueueUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "Inspection queue is unavailable")
		default:
			s.logger.Error("Submission failed", "error", err)
			s.respondError(w, http.StatusInternalServerError, "Failed to submit image")
		}
		return
	}

	s.respondJSON(w, http.StatusOK, toSubmitResponse(job))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	taskID := mux.Vars(r)["task_id"]

	job, err := s.inspections.GetJob(r.Context(), taskID)
	if err != nil {
		if errors.Is(err, core.ErrJobNotFound) {
			s.respondError(w, http.StatusNotFound, "Task not found")
			return
		}
		s.logger.Error("Status lookup failed", "task_id", taskID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to fetch task")
		return
	}

	s.respondJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := core.JobFilter{Limit: core.DefaultListLimit}
	if v := query.Get("skip"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}
	if v := query.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	jobs, err := s.inspections.ListJobs(r.Context(), filter)
	if err != nil {
		s.logger.Error("History listing failed", "error", err)
		s.respondError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}

	s.respondJSON(w, http.StatusOK, toJobResponses(jobs))
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, ErrorResponse{Detail: detail})
}
