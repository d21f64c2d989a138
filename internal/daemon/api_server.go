package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"tunely/internal/api"
	"tunely/internal/config"
	"tunely/internal/logging"
	"tunely/internal/queue"
	"tunely/internal/services"
)

// multipartMemory bounds how much of an upload is buffered in memory; the
// rest spills to temporary files.
const multipartMemory = 8 << 20

type apiServer struct {
	bind      string
	maxUpload int64
	logger    *slog.Logger
	daemon    *Daemon
	requests  *api.RequestService
	handler   http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:      strings.TrimSpace(cfg.Paths.APIBind),
		maxUpload: cfg.MaxUploadBytes(),
		logger:    logging.NewComponentLogger(logger, "api-server"),
		daemon:    d,
		requests:  api.NewRequestService(d.store),
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/karaoke", srv.requireToken(token, srv.handleSubmit))
	mux.HandleFunc("GET /api/requests", srv.requireToken(token, srv.handleRequests))
	mux.HandleFunc("GET /api/requests/{id}", srv.requireToken(token, srv.handleRequest))
	mux.HandleFunc("GET /api/health", srv.requireToken(token, srv.handleHealth))
	mux.HandleFunc("GET /api/logs", srv.requireToken(token, srv.handleLogs))
	mux.HandleFunc("GET "+api.OutputsPath+"{file}", srv.requireToken(token, srv.handleOutput))
	srv.handler = mux
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		s.logger.Info("api server disabled (no api_bind)")
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}
	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func (s *apiServer) address() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if s.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+multipartMemory)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		s.writeError(w, http.StatusBadRequest, "expected a multipart form with a file field")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	req, err := s.daemon.Submit(r.Context(), api.Upload{
		FileName:   header.Filename,
		Body:       file,
		Background: r.FormValue("background"),
	})
	if err != nil {
		if errors.Is(err, services.ErrInputInvalid) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("failed to accept upload", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	s.writeJSON(w, http.StatusAccepted, api.SubmitResponse{
		RequestID: req.ID,
		StatusURL: "/api/requests/" + req.ID,
	})
}

func (s *apiServer) handleRequests(w http.ResponseWriter, r *http.Request) {
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := queue.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, status)
	}
	reqs, err := s.requests.List(r.Context(), statuses...)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reqs == nil {
		reqs = []api.Request{}
	}
	s.writeJSON(w, http.StatusOK, api.RequestListResponse{Requests: reqs})
}

func (s *apiServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	dto, err := s.requests.Describe(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if dto == nil {
		s.writeError(w, http.StatusNotFound, "request not found")
		return
	}
	s.writeJSON(w, http.StatusOK, dto)
}

// handleOutput serves <id>.mp4 and <id>.ass, but only for DONE requests so a
// failed run's partial output is never exposed.
func (s *apiServer) handleOutput(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("file")
	ext := strings.ToLower(filepath.Ext(name))
	id := strings.TrimSuffix(name, filepath.Ext(name))
	if id == "" || filepath.Base(name) != name || (ext != ".mp4" && ext != ".ass") {
		s.writeError(w, http.StatusNotFound, "output not found")
		return
	}
	req, err := s.daemon.Request(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !req.VideoReady() {
		s.writeError(w, http.StatusNotFound, "output not found")
		return
	}
	path := req.Artifacts.OutputVideo
	if ext == ".ass" {
		path = req.Artifacts.SubtitleFile
	}
	if path == "" || filepath.Base(path) != name {
		s.writeError(w, http.StatusNotFound, "output not found")
		return
	}
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{
		"filename": api.DownloadName(req, path),
	}))
	if ext == ".ass" {
		w.Header().Set("Content-Type", "text/x-ssa; charset=utf-8")
	}
	http.ServeFile(w, r, path)
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	dependencies := api.FromDependencies(status.Dependencies)
	s.writeJSON(w, http.StatusOK, api.HealthResponse{
		Healthy:      status.Running && api.Healthy(dependencies),
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: dependencies,
		Checks:       api.FromChecks(status.Checks),
	})
}

func (s *apiServer) handleLogs(w http.ResponseWriter, r *http.Request) {
	hub := s.daemon.LogStream()
	if hub == nil {
		s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: []api.LogEvent{}})
		return
	}

	query := r.URL.Query()
	since, _ := strconv.ParseUint(query.Get("since"), 10, 64)
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit <= 0 {
		limit = 200
	}
	follow := query.Get("follow") == "1" || strings.EqualFold(query.Get("follow"), "true")
	tail := query.Get("tail") == "1" || strings.EqualFold(query.Get("tail"), "true")
	requestID := strings.TrimSpace(query.Get("request"))
	component := strings.TrimSpace(query.Get("component"))

	var (
		events []logging.LogEvent
		next   uint64
	)
	if tail && since == 0 && !follow {
		events, next = hub.Tail(limit)
	} else {
		var err error
		events, next, err = hub.Fetch(r.Context(), since, limit, follow)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			s.writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	events = logging.FilterByRequest(events, requestID)
	filtered := make([]api.LogEvent, 0, len(events))
	for _, evt := range api.FromLogEvents(events) {
		if component != "" && !strings.EqualFold(component, evt.Component) {
			continue
		}
		filtered = append(filtered, evt)
	}
	s.writeJSON(w, http.StatusOK, api.LogStreamResponse{Events: filtered, Next: next})
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

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}
