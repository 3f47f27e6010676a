package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"atelier/internal/api"
	"atelier/internal/config"
	"atelier/internal/ledger"
	"atelier/internal/logging"
	"atelier/internal/reminder"
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address is required")
	}

	srv := &apiServer{
		bind:   bind,
		logger: logger,
		daemon: d,
	}

	token := cfg.Paths.APIToken
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/artists", authMiddleware(token, srv.handleArtists))
	mux.HandleFunc("/api/artists/", authMiddleware(token, srv.handleArtist))
	mux.HandleFunc("/api/plans", authMiddleware(token, srv.handlePlans))
	mux.HandleFunc("/api/scan", authMiddleware(token, srv.handleScan))
	mux.HandleFunc("/api/notifications/test", authMiddleware(token, srv.handleTestNotification))
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
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

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	s.writeJSON(w, http.StatusOK, api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		Health:       api.FromHealth(status.Health),
		LastScan:     api.FromScanReport(status.LastScan),
	})
}

func (s *apiServer) handleArtists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	records, err := s.daemon.ListArtists(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRecords(records))
}

// handleArtist serves /api/artists/{id} and its commit, events, and reset
// subresources.
func (s *apiServer) handleArtist(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/artists/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	userID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || userID <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid artist id")
		return
	}

	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == http.MethodGet:
		s.serveArtist(w, r, userID)
	case action == "commit" && r.Method == http.MethodPost:
		s.serveCommit(w, r, userID)
	case action == "events" && r.Method == http.MethodPost:
		s.serveEvent(w, r, userID)
	case action == "reset" && r.Method == http.MethodPost:
		s.serveReset(w, r, userID)
	case action == "":
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		s.writeError(w, http.StatusNotFound, "unknown artist action")
	}
}

func (s *apiServer) serveArtist(w http.ResponseWriter, r *http.Request, userID int64) {
	rec, err := s.daemon.GetArtist(r.Context(), userID)
	if errors.Is(err, ledger.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "artist not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRecord(rec))
}

func (s *apiServer) serveCommit(w http.ResponseWriter, r *http.Request, userID int64) {
	var req api.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid commit payload")
		return
	}
	rec, err := s.daemon.SetCommitment(r.Context(), userID, req.Committed)
	if errors.Is(err, ledger.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "artist not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRecord(rec))
}

func (s *apiServer) serveEvent(w http.ResponseWriter, r *http.Request, userID int64) {
	var req api.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	var occurredAt time.Time
	if strings.TrimSpace(req.OccurredAt) != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid occurredAt timestamp")
			return
		}
		occurredAt = parsed
	}
	rec, err := s.daemon.SubmitEvent(r.Context(), userID, occurredAt)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRecord(rec))
}

func (s *apiServer) serveReset(w http.ResponseWriter, r *http.Request, userID int64) {
	rec, err := s.daemon.ResetCompliance(r.Context(), userID)
	if errors.Is(err, ledger.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "artist not found")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromRecord(rec))
}

func (s *apiServer) handlePlans(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid plan payload")
		return
	}
	if req.UserID <= 0 {
		s.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	plan := api.ToPlan(req)
	reminders, err := s.daemon.SchedulePlan(r.Context(), plan)
	if errors.Is(err, reminder.ErrPlanAlreadyScheduled) {
		s.writeError(w, http.StatusConflict, "plan already scheduled")
		return
	}
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, api.PlanResponse{
		PlanID:    plan.ID,
		UserID:    plan.UserID,
		Timezone:  plan.Timezone,
		Reminders: reminders,
	})
}

func (s *apiServer) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	report, err := s.daemon.RunScan(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromScanReport(report))
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.daemon.TestNotification(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health, err := s.daemon.store.Health(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromHealth(health))
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

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return logging.NewComponentLogger(s.logger, "api-server")
	}
	return logging.NewNop()
}
