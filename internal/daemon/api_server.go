package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"transsrt/internal/api"
	"transsrt/internal/config"
	"transsrt/internal/jobs"
	"transsrt/internal/language"
	"transsrt/internal/logging"
	"transsrt/internal/pipeline"
	"transsrt/internal/services"
)

const (
	defaultJobLimit = 50
	maxJobLimit     = 500
	// multipartOverhead covers form boundaries and headers around the file.
	multipartOverhead = 1 << 20
	maxFormMemory     = 8 << 20
)

var uploadExtensions = []string{".srt", ".sbv"}

type apiServer struct {
	bind        string
	token       string
	corsOrigins []string
	maxFileSize int64
	logger      *slog.Logger
	daemon      *Daemon
	jobSvc      *api.JobService

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:        strings.TrimSpace(cfg.Paths.APIBind),
		token:       cfg.Paths.APIToken,
		corsOrigins: cfg.Server.CORSOrigins,
		maxFileSize: cfg.MaxFileSizeBytes(),
		logger:      logging.NewComponentLogger(logger, "api-server"),
		daemon:      d,
		jobSvc:      api.NewJobService(d.store),
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		// Translating a large file takes several engine round trips.
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/translate", s.authMiddleware(s.token, s.handleTranslate))
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/jobs", s.authMiddleware(s.token, s.handleJobs))
	mux.HandleFunc("/api/jobs/", s.authMiddleware(s.token, s.handleJob))
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening",
		logging.String(logging.FieldEventType, "api_listening"),
		logging.String("address", listener.Addr().String()),
		logging.Bool("auth", s.token != ""),
	)
	return nil
}

func (s *apiServer) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleTranslate(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	switch r.Method {
	case http.MethodOptions:
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	case http.MethodPost:
	default:
		s.writeError(w, http.StatusMethodNotAllowed, api.CodeMethodNotAllowed, "method not allowed")
		return
	}

	requestID := uuid.NewString()
	ctx := services.WithRequestID(r.Context(), requestID)
	logger := logging.WithContext(ctx, s.logger)
	w.Header().Set("X-Request-ID", requestID)

	req, err := s.readUpload(w, r)
	if err != nil {
		s.fail(w, logger, err)
		return
	}
	logger.Info("translation request received",
		logging.String(logging.FieldEventType, "translate_request"),
		logging.String("file", req.FileName),
		logging.String("size", humanize.IBytes(uint64(len(req.Data)))),
	)

	result, err := s.daemon.Translate(ctx, req)
	if err != nil {
		s.fail(w, logger, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": result.OutputName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Content)))
	w.Header().Set("X-Job-ID", result.JobID)
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, result.Content); err != nil {
		logger.Warn("failed to write translated file", logging.Error(err))
	}
}

// readUpload validates the multipart request and returns the pipeline input.
func (s *apiServer) readUpload(w http.ResponseWriter, r *http.Request) (pipeline.Request, error) {
	limit := s.maxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return pipeline.Request{}, &api.RequestError{
				Code:    api.CodeFileTooLarge,
				Message: fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(limit))),
				Status:  http.StatusRequestEntityTooLarge,
			}
		}
		return pipeline.Request{}, api.NewRequestError(api.CodeNoFile, "No file part in request")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return pipeline.Request{}, api.NewRequestError(api.CodeNoFile, "No file part in request")
	}
	defer file.Close()

	if strings.TrimSpace(header.Filename) == "" {
		return pipeline.Request{}, api.NewRequestError(api.CodeInvalidFile, "No file selected")
	}
	if !slices.Contains(uploadExtensions, strings.ToLower(filepath.Ext(header.Filename))) {
		return pipeline.Request{}, api.NewRequestError(api.CodeInvalidFile, "Invalid file format. Only .srt and .sbv files are accepted")
	}
	if header.Size > limit {
		return pipeline.Request{}, api.NewRequestError(api.CodeInvalidFile,
			fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(limit))))
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return pipeline.Request{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return pipeline.Request{}, api.NewRequestError(api.CodeInvalidFile,
			fmt.Sprintf("File size exceeds %s limit", humanize.IBytes(uint64(limit))))
	}

	req := pipeline.Request{FileName: header.Filename, Data: data}
	for field, dst := range map[string]*string{
		"source_language": &req.SourceLanguage,
		"target_language": &req.TargetLanguage,
	} {
		value := strings.TrimSpace(r.FormValue(field))
		if value == "" {
			continue
		}
		if _, err := language.Normalize(value); err != nil {
			return pipeline.Request{}, api.NewRequestError(api.CodeInvalidLanguage,
				fmt.Sprintf("Unsupported %s %q", strings.ReplaceAll(field, "_", " "), value))
		}
		*dst = value
	}
	return req, nil
}

func (s *apiServer) fail(w http.ResponseWriter, logger *slog.Logger, err error) {
	status, body := api.ErrorFor(err)
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logger.Log(context.Background(), level, "translation request failed",
		logging.Args(
			logging.String(logging.FieldEventType, "translate_failed"),
			logging.String("code", body.Error.Code),
			logging.Int("status", status),
			logging.Kind(string(services.KindOf(err))),
			logging.Error(err),
		)...,
	)
	s.writeJSON(w, status, body)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, api.CodeMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.HealthResponse{
		Status:   "healthy",
		Service:  api.ServiceName,
		Version:  api.Version,
		Provider: status.Provider,
		Breaker:  status.Breaker,
	}
	if status.Breaker == "open" {
		payload.Status = "degraded"
	}
	if status.Jobs != nil {
		payload.Jobs = api.MergeJobStats(status.Jobs)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, api.CodeMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()
	var statuses []jobs.Status
	for _, value := range query["status"] {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := jobs.ParseStatus(trimmed)
		if !ok {
			s.writeError(w, http.StatusBadRequest, api.CodeInvalidJobQuery, fmt.Sprintf("unknown status %q", trimmed))
			return
		}
		statuses = append(statuses, status)
	}
	limit := defaultJobLimit
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, api.CodeInvalidJobQuery, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxJobLimit)
	}

	list, err := s.jobSvc.List(r.Context(), limit, statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, api.CodeInternal, err.Error())
		return
	}
	if list == nil {
		list = []api.Job{}
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: list})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	s.applyCORS(w, r)
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, api.CodeMethodNotAllowed, "method not allowed")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
		return
	}
	job, err := s.jobSvc.Describe(r.Context(), id)
	if err != nil {
		if errors.Is(err, jobs.ErrAmbiguousID) {
			s.writeError(w, http.StatusBadRequest, api.CodeInvalidJobQuery, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, api.CodeInternal, err.Error())
		return
	}
	if job == nil {
		s.writeError(w, http.StatusNotFound, api.CodeNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *job})
}

// applyCORS sets Access-Control-Allow-Origin from the configured origins. A
// "*" entry allows any origin; otherwise a matching request origin is echoed.
func (s *apiServer) applyCORS(w http.ResponseWriter, r *http.Request) {
	if len(s.corsOrigins) == 0 {
		return
	}
	if slices.Contains(s.corsOrigins, "*") {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		return
	}
	origin := r.Header.Get("Origin")
	if origin != "" && slices.Contains(s.corsOrigins, origin) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, code, message string) {
	s.writeJSON(w, status, api.NewErrorBody(code, message))
}
