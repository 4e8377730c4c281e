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

	"github.com/gorilla/mux"

	"orderbell/internal/api"
	"orderbell/internal/config"
	"orderbell/internal/logging"
	"orderbell/internal/toast"
)

const defaultHistoryLimit = 50

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon
	router *mux.Router

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logging.NewComponentLogger(logger, "api"),
		daemon: d,
	}

	r := mux.NewRouter()
	r.Use(authMiddleware(strings.TrimSpace(cfg.Paths.APIToken)))
	r.HandleFunc("/api/status", srv.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/orders", srv.handleOrders).Methods(http.MethodGet)
	r.HandleFunc("/api/orders/{id}/status", srv.handleOrderStatus).Methods(http.MethodPatch, http.MethodPost)
	r.HandleFunc("/api/visibility", srv.handleGetVisibility).Methods(http.MethodGet)
	r.HandleFunc("/api/visibility", srv.handleSetVisibility).Methods(http.MethodPut, http.MethodPost)
	r.HandleFunc("/api/reset", srv.handleReset).Methods(http.MethodPost)
	r.HandleFunc("/api/test-notification", srv.handleTestNotification).Methods(http.MethodPost)
	r.HandleFunc("/api/toasts", srv.handleToasts).Methods(http.MethodGet)
	r.HandleFunc("/api/toasts/{id}/action", srv.handleToastAction).Methods(http.MethodPost)
	r.HandleFunc("/api/toasts/{id}", srv.handleToastDismiss).Methods(http.MethodDelete)
	r.HandleFunc("/api/navigation", srv.handleNavigation).Methods(http.MethodGet)
	r.HandleFunc("/api/audio/preload", srv.handleAudioPreload).Methods(http.MethodPost)
	r.HandleFunc("/api/audio/test", srv.handleAudioTest).Methods(http.MethodPost)
	r.HandleFunc("/api/history", srv.handleHistory).Methods(http.MethodGet)
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		srv.writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		srv.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	srv.router = r
	return srv
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil || s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	s.listener = listener
	s.server = server

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
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
		s.server = nil
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr returns the bound address while the server is listening.
func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()).Payload())
}

func (s *apiServer) handleOrders(w http.ResponseWriter, r *http.Request) {
	filter := OrderFilter(r.URL.Query().Get("filter"))
	list, fetchedAt, err := s.daemon.Orders(filter)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.NewOrderListResponse(list, fetchedAt))
}

func (s *apiServer) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req api.OrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	updated, err := s.daemon.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], req.Status)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, ErrInvalidRequest) {
			code = http.StatusBadRequest
		}
		s.writeError(w, code, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromOrder(updated))
}

func (s *apiServer) handleGetVisibility(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.VisibilityResponse{Visible: s.daemon.Visible()})
}

func (s *apiServer) handleSetVisibility(w http.ResponseWriter, r *http.Request) {
	var req api.VisibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	changed := s.daemon.SetVisibility(req.Visible)
	s.writeJSON(w, http.StatusOK, api.VisibilityResponse{Visible: req.Visible, Changed: changed})
}

func (s *apiServer) handleReset(w http.ResponseWriter, r *http.Request) {
	session := parseBool(r.URL.Query().Get("session"))
	var dropped int
	if session {
		dropped = s.daemon.ResetSession()
	} else {
		dropped = s.daemon.ResetCounter()
	}
	s.writeJSON(w, http.StatusOK, api.ResetResponse{Dropped: dropped, Session: session})
}

func (s *apiServer) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.TestNotificationResponse{Sent: sent, Message: message})
}

func (s *apiServer) handleToasts(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.ToastListResponse{Toasts: api.FromToasts(s.daemon.Toasts())})
}

func (s *apiServer) handleToastAction(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.ActivateToast(mux.Vars(r)["id"]); err != nil {
		s.writeToastError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleToastDismiss(w http.ResponseWriter, r *http.Request) {
	if err := s.daemon.DismissToast(mux.Vars(r)["id"]); err != nil {
		s.writeToastError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) writeToastError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, toast.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, toast.ErrExpired):
		s.writeError(w, http.StatusGone, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *apiServer) handleNavigation(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.NavigationResponse{Requests: api.FromNavigation(s.daemon.NavigationRequests())})
}

func (s *apiServer) handleAudioPreload(w http.ResponseWriter, r *http.Request) {
	s.writeAudio(w, s.daemon.PreloadAudio(r.Context()))
}

func (s *apiServer) handleAudioTest(w http.ResponseWriter, r *http.Request) {
	s.writeAudio(w, s.daemon.AudioTest(r.Context()))
}

func (s *apiServer) writeAudio(w http.ResponseWriter, err error) {
	resp := api.AudioResponse{Ready: s.daemon.AudioReady(), Player: s.daemon.AudioPlayer()}
	status := http.StatusOK
	if err != nil {
		resp.Error = err.Error()
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, resp)
}

func (s *apiServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	entries, err := s.daemon.History(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, api.HistoryResponse{Entries: api.FromHistory(entries)})
}

func parseBool(value string) bool {
	return value == "1" || strings.EqualFold(value, "true")
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
	s.writeJSON(w, status, map[string]string{"error": message})
}
