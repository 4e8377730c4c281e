package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"sync"

	"orderbell/internal/api"
	"orderbell/internal/daemon"
	"orderbell/internal/logging"
)

// ServiceName is the JSON-RPC service the daemon registers.
const ServiceName = "Orderbell"

const defaultHistoryLimit = 20

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName(ServiceName, srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "IPC clients may fail to connect"),
					logging.String(logging.FieldErrorHint, "check socket permissions and restart the daemon if needed"))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		logging.WarnWithContext(s.logger, "failed to remove socket", "ipc_socket_cleanup_failed",
			logging.String("socket", s.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale IPC socket may block future starts"),
			logging.String(logging.FieldErrorHint, "remove the socket file manually or rerun orderbell stop"))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) Start(_ StartRequest, resp *StartResponse) error {
	s.logger.Debug("daemon start requested")
	if err := s.daemon.Start(s.ctx); err != nil {
		resp.Started = false
		resp.Message = err.Error()
		return nil
	}
	resp.Started = true
	resp.Message = "daemon started"
	s.logger.Info("daemon started via IPC", logging.String(logging.FieldEventType, "daemon_start"))
	return nil
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	s.logger.Debug("daemon stop requested")
	s.daemon.Stop()
	resp.Stopped = true
	s.logger.Info("daemon stopped via IPC", logging.String(logging.FieldEventType, "daemon_stop"))
	return nil
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	resp.Status = s.daemon.Status(s.ctx).Payload()
	return nil
}

func (s *service) Reset(req ResetRequest, resp *ResetResponse) error {
	if req.Session {
		return s.ResetSession(req, resp)
	}
	resp.Dropped = s.daemon.ResetCounter()
	return nil
}

func (s *service) ResetSession(_ ResetRequest, resp *ResetResponse) error {
	resp.Dropped = s.daemon.ResetSession()
	resp.Session = true
	s.logger.Info("session reset via IPC", logging.String(logging.FieldEventType, "session_reset"))
	return nil
}

func (s *service) Visibility(req VisibilityRequest, resp *VisibilityResponse) error {
	resp.Changed = s.daemon.SetVisibility(req.Visible)
	resp.Visible = req.Visible
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	sent, message, err := s.daemon.TestNotification(s.ctx)
	resp.Sent = sent
	resp.Message = message
	return err
}

func (s *service) PreloadAudio(_ AudioRequest, resp *AudioResponse) error {
	s.fillAudio(resp, s.daemon.PreloadAudio(s.ctx))
	return nil
}

func (s *service) AudioTest(_ AudioRequest, resp *AudioResponse) error {
	s.fillAudio(resp, s.daemon.AudioTest(s.ctx))
	return nil
}

func (s *service) fillAudio(resp *AudioResponse, err error) {
	resp.Ready = s.daemon.AudioReady()
	resp.Player = s.daemon.AudioPlayer()
	if err != nil {
		resp.Error = err.Error()
	}
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	entries, err := s.daemon.History(s.ctx, limit)
	if err != nil {
		return err
	}
	resp.Entries = api.FromHistory(entries)
	return nil
}

func (s *service) Orders(req OrdersRequest, resp *OrdersResponse) error {
	list, fetchedAt, err := s.daemon.Orders(daemon.OrderFilter(req.Filter))
	if err != nil {
		return err
	}
	*resp = api.NewOrderListResponse(list, fetchedAt)
	return nil
}

func (s *service) SetOrderStatus(req SetOrderStatusRequest, resp *SetOrderStatusResponse) error {
	updated, err := s.daemon.UpdateOrderStatus(s.ctx, req.ID, req.Status)
	if err != nil {
		return err
	}
	resp.Order = api.FromOrder(updated)
	return nil
}

func (s *service) Toasts(_ ToastsRequest, resp *ToastsResponse) error {
	resp.Toasts = api.FromToasts(s.daemon.Toasts())
	return nil
}
