package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"helixprint/internal/api"
	"helixprint/internal/config"
	"helixprint/internal/helix"
	"helixprint/internal/logging"
	"helixprint/internal/phase"
	"helixprint/internal/services"
)

const requestIDHeader = "X-Request-ID"

// jobLister is the slice of the history store the API reads.
type jobLister interface {
	ListJobs(ctx context.Context, limit int) ([]helix.JobRecord, error)
}

type apiServer struct {
	bind   string
	token  string
	logger *slog.Logger
	engine *helix.Engine
	jobs   jobLister

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, engine *helix.Engine, jobs jobLister, logger *slog.Logger) *apiServer {
	if cfg == nil || engine == nil {
		return nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil
	}
	srv := &apiServer{
		bind:   bind,
		token:  strings.TrimSpace(cfg.Paths.APIToken),
		logger: logging.NewComponentLogger(logger, "api-server"),
		engine: engine,
		jobs:   jobs,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/server/helix/print_modified", s.method(http.MethodPost, s.handlePrintModified))
	mux.HandleFunc("/server/helix/status", s.method(http.MethodGet, s.handleStatus))
	mux.HandleFunc("/server/helix/phase_tracking/enable", s.method(http.MethodPost, s.handlePhaseTracking(true)))
	mux.HandleFunc("/server/helix/phase_tracking/disable", s.method(http.MethodPost, s.handlePhaseTracking(false)))
	mux.HandleFunc("/server/helix/phase_tracking/status", s.method(http.MethodGet, s.handlePhaseTrackingStatus))
	mux.HandleFunc("/server/helix/active_prints", s.method(http.MethodGet, s.handleActivePrints))
	mux.HandleFunc("/server/helix/cleanup", s.method(http.MethodPost, s.handleCleanup))
	mux.HandleFunc("/server/helix/instrument", s.method(http.MethodPost, s.handleTransform(phase.Instrument)))
	mux.HandleFunc("/server/helix/strip", s.method(http.MethodPost, s.handleTransform(phase.Strip)))
	mux.HandleFunc("/server/helix/history", s.method(http.MethodGet, s.handleHistory))
	return s.withRequestID(authMiddleware(s.token, mux.ServeHTTP))
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) withRequestID(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next(w, r.WithContext(logging.WithCorrelationID(r.Context(), id)))
	})
}

func (s *apiServer) method(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		next(w, r)
	}
}

func (s *apiServer) handlePrintModified(w http.ResponseWriter, r *http.Request) {
	if !s.engine.Settings().Enabled {
		s.fail(w, r, helix.ErrDisabled)
		return
	}
	p, err := readParams(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	mods, err := p.list("modifications")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	req := helix.PrintRequest{
		OriginalFilename: p.str("original_filename"),
		TempFilePath:     p.str("temp_file_path"),
		Modifications:    mods,
	}
	if req.OriginalFilename == "" || req.TempFilePath == "" {
		s.fail(w, r, services.Wrap(services.ErrValidation, "api", "", "original_filename and temp_file_path are required", nil))
		return
	}
	res, err := s.engine.PrintModified(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeResult(w, api.FromPrintResult(res))
}

func (s *apiServer) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeResult(w, api.FromEngineStatus(s.engine.Status()))
}

func (s *apiServer) handlePhaseTracking(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			status helix.PhaseTrackingStatus
			err    error
		)
		if enabled {
			status, err = s.engine.EnablePhaseTracking(r.Context())
		} else {
			status, err = s.engine.DisablePhaseTracking(r.Context())
		}
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.writeResult(w, api.PhaseTracking{Enabled: status.Enabled})
	}
}

func (s *apiServer) handlePhaseTrackingStatus(w http.ResponseWriter, r *http.Request) {
	status := s.engine.PhaseTrackingStatus(r.Context())
	s.writeResult(w, api.PhaseTracking{Enabled: status.Enabled})
}

func (s *apiServer) handleActivePrints(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.engine.Registry().Snapshot()
	prints := make([]api.ActivePrint, 0, len(snapshot))
	for _, info := range snapshot {
		prints = append(prints, api.FromPrintInfo(info))
	}
	s.writeResult(w, api.ActivePrintsResponse{Prints: prints})
}

func (s *apiServer) handleCleanup(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cleaned, err := s.engine.Cleanup(r.Context(), p.str("print_filename"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeResult(w, api.CleanupResponse{Cleaned: cleaned})
}

func (s *apiServer) handleTransform(transform func(string) string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := readParams(w, r)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		text, ok := p.raw("gcode")
		if !ok {
			s.fail(w, r, services.Wrap(services.ErrValidation, "api", "", "gcode is required", nil))
			return
		}
		s.writeResult(w, api.Gcode{Gcode: transform(text)})
	}
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	limit, err := p.intValue("limit", 50)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	jobs := []api.HistoryJob{}
	if s.jobs != nil {
		records, err := s.jobs.ListJobs(r.Context(), limit)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		for _, record := range records {
			jobs = append(jobs, api.FromJobRecord(record))
		}
	}
	s.writeResult(w, api.HistoryResponse{Jobs: jobs})
}

func (s *apiServer) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := services.HTTPStatus(err)
	logger := logging.WithContext(r.Context(), s.log()).With(
		logging.String("path", r.URL.Path),
		logging.Int("status", status),
	)
	if status >= http.StatusInternalServerError {
		logging.WarnWithContext(logger, "api request failed", "api_request_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "request was not completed"),
		)
	} else {
		logger.Debug("api request rejected", logging.Error(err))
	}
	s.writeError(w, status, services.Code(err), err.Error())
}

func (s *apiServer) writeResult(w http.ResponseWriter, result any) {
	s.writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, reason, message string) {
	s.writeJSON(w, status, api.Envelope{Error: &api.ErrorBody{Code: status, Reason: reason, Message: message}})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return logging.NewNop()
}
