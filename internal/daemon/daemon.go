package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"

	"orderbell/internal/alerts"
	"orderbell/internal/api"
	"orderbell/internal/audio"
	"orderbell/internal/config"
	"orderbell/internal/history"
	"orderbell/internal/logging"
	"orderbell/internal/navigate"
	"orderbell/internal/orders"
	"orderbell/internal/poller"
	"orderbell/internal/toast"
	"orderbell/internal/visibility"
)

// ErrInvalidRequest marks operator input rejected before reaching the backend.
var ErrInvalidRequest = errors.New("invalid request")

// OrderSource reads and updates orders on the restaurant backend.
type OrderSource interface {
	FetchOrders(ctx context.Context) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, id string, status orders.Status) (orders.Order, error)
}

// Options configures a Daemon. Config, Logger, and Orders are required.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	Clock  clockwork.Clock
	Orders OrderSource
	Player audio.Player
	// Channels receive every alert in addition to the in-memory toast center.
	Channels      []toast.Channel
	History       history.Store
	HistoryDriver string
	// Closers are released by Close after the pipeline drains.
	Closers []io.Closer
}

// Daemon coordinates polling and alerting and enforces single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	clock  clockwork.Clock

	source        OrderSource
	player        audio.Player
	hub           *visibility.Hub
	center        *toast.Center
	navigator     *navigate.Navigator
	snapshot      *orders.Snapshot
	pipeline      *alerts.Pipeline
	poller        *poller.Poller
	history       history.Store
	historyDriver string
	closers       []io.Closer
	api           *apiServer

	lockPath string
	lock     *flock.Flock

	mu          sync.Mutex
	running     atomic.Bool
	cancel      context.CancelFunc
	unsubscribe func()
	closeOnce   sync.Once
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Poller        poller.Stats
	Visible       bool
	PendingCount  int
	AlertsEmitted int64
	AudioCycles   int64
	AudioReady    bool
	ActiveToasts  int
	LockFilePath  string
	HistoryDriver string
}

// Payload converts the status to its API representation.
func (s Status) Payload() api.DaemonStatus {
	return api.DaemonStatus{
		Running:       s.Running,
		PID:           s.PID,
		Poller:        api.FromPollerStats(s.Poller),
		Visible:       s.Visible,
		PendingCount:  s.PendingCount,
		AlertsEmitted: s.AlertsEmitted,
		AudioCycles:   s.AudioCycles,
		AudioReady:    s.AudioReady,
		ActiveToasts:  s.ActiveToasts,
		LockFilePath:  s.LockFilePath,
		HistoryDriver: s.HistoryDriver,
	}
}

// OrderFilter narrows the order snapshot.
type OrderFilter string

const (
	OrdersAll     OrderFilter = ""
	OrdersOngoing OrderFilter = "ongoing"
	OrdersHistory OrderFilter = "history"
)

// New constructs a daemon with initialized dependencies.
func New(opts Options) (*Daemon, error) {
	if opts.Config == nil || opts.Logger == nil || opts.Orders == nil {
		return nil, errors.New("daemon requires config, logger, and order source")
	}
	cfg := opts.Config
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	store := opts.History
	driver := opts.HistoryDriver
	if store == nil {
		store = history.Nop{}
		driver = "none"
	}

	center := toast.NewCenter(clock)
	navigator := navigate.New(cfg.Backend.AdminURL, clock)
	channels := append([]toast.Channel{center}, opts.Channels...)
	pipeline := alerts.New(alerts.Options{
		Toasts:        toast.Multi(channels...),
		Audio:         opts.Player,
		Navigator:     navigator,
		Recorder:      store,
		Clock:         clock,
		Logger:        opts.Logger,
		RepeatCount:   cfg.Audio.RepeatCount,
		Gap:           cfg.AudioGap(),
		ToastDuration: cfg.ToastDuration(),
		ActionLabel:   cfg.Toast.ActionLabel,
		Severity:      toast.ParseSeverity(cfg.Toast.Severity),
	})
	snapshot := &orders.Snapshot{}
	p := poller.New(poller.Options{
		Fetcher:      opts.Orders,
		Sink:         pipeline,
		Clock:        clock,
		Logger:       opts.Logger,
		Interval:     cfg.PollInterval(),
		FetchTimeout: cfg.FetchTimeout(),
		Snapshot:     snapshot,
	})

	lockPath := filepath.Join(cfg.Paths.LogDir, "orderbell.lock")
	d := &Daemon{
		cfg:           cfg,
		logger:        logging.NewComponentLogger(opts.Logger, "daemon"),
		clock:         clock,
		source:        opts.Orders,
		player:        opts.Player,
		hub:           visibility.NewHub(),
		center:        center,
		navigator:     navigator,
		snapshot:      snapshot,
		pipeline:      pipeline,
		poller:        p,
		history:       store,
		historyDriver: driver,
		closers:       opts.Closers,
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, opts.Logger)
	return d, nil
}

// Start acquires the daemon lock, subscribes the pipeline to visibility
// changes, preloads audio, and starts polling.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another orderbell daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.unsubscribe = d.hub.Watch(d.pipeline.SetVisible)

	if err := d.PreloadAudio(runCtx); err != nil {
		logging.WarnWithContext(d.logger, "audio preload failed; alerts will be silent until preloaded", "audio_preload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check audio.sound_path and audio.player, then run 'orderbell audio preload'"),
			logging.String(logging.FieldImpact, "urgent bell unavailable"),
		)
	}

	if err := d.api.start(runCtx); err != nil {
		d.unsubscribe()
		d.unsubscribe = nil
		cancel()
		_ = d.lock.Unlock()
		return err
	}

	d.poller.Start(runCtx)
	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("orderbell daemon started",
		logging.String("lock", d.lockPath),
		logging.String(logging.FieldEventType, "daemon_started"),
	)
	return nil
}

// Stop stops polling, detaches the visibility subscription, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return
	}

	d.poller.Stop()
	if d.unsubscribe != nil {
		d.unsubscribe()
		d.unsubscribe = nil
	}
	d.api.stop()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("orderbell daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases resources held by it.
func (d *Daemon) Close() error {
	var err error
	d.closeOnce.Do(func() {
		d.Stop()
		d.pipeline.Close()
		var errs []error
		for _, closer := range d.closers {
			if closer != nil {
				errs = append(errs, closer.Close())
			}
		}
		if d.history != nil {
			errs = append(errs, d.history.Close())
		}
		err = errors.Join(errs...)
	})
	return err
}

// Status returns the current daemon status.
func (d *Daemon) Status(context.Context) Status {
	ready := false
	if d.player != nil {
		ready = d.player.Ready()
	}
	return Status{
		Running:       d.running.Load(),
		PID:           os.Getpid(),
		Poller:        d.poller.Stats(),
		Visible:       d.hub.Visible(),
		PendingCount:  d.pipeline.PendingCount(),
		AlertsEmitted: d.pipeline.Emitted(),
		AudioCycles:   d.pipeline.AudioCycles(),
		AudioReady:    ready,
		ActiveToasts:  d.center.Len(),
		LockFilePath:  d.lockPath,
		HistoryDriver: d.historyDriver,
	}
}

// ResetCounter clears the new-orders counter and drops queued alerts.
func (d *Daemon) ResetCounter() int {
	return d.poller.ResetCounter()
}

// ResetSession forgets every known order so the next seed repopulates it.
func (d *Daemon) ResetSession() int {
	return d.poller.ResetSession()
}

// SetVisibility reports the operator surface visibility and whether it changed.
func (d *Daemon) SetVisibility(visible bool) bool {
	return d.hub.Set(visible)
}

// Visible reports the operator surface visibility.
func (d *Daemon) Visible() bool {
	return d.hub.Visible()
}

// TestNotification emits the fixed test alert and plays one urgent cycle.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	d.pipeline.TestNotification(ctx)
	if d.player == nil || !d.player.Ready() {
		return true, "test notification sent without sound (audio not preloaded)", nil
	}
	return true, "test notification sent", nil
}

// PreloadAudio prepares the bell player.
func (d *Daemon) PreloadAudio(ctx context.Context) error {
	if d.player == nil {
		return audio.ErrNoPlayer
	}
	if err := d.player.Preload(ctx); err != nil {
		return err
	}
	d.logger.Info("audio preloaded",
		logging.String("player", d.AudioPlayer()),
		logging.String(logging.FieldEventType, "audio_preloaded"),
	)
	return nil
}

// AudioTest plays the bell once, preloading first when needed.
func (d *Daemon) AudioTest(ctx context.Context) error {
	if d.player == nil {
		return audio.ErrNoPlayer
	}
	if !d.player.Ready() {
		if err := d.PreloadAudio(ctx); err != nil {
			return err
		}
	}
	if err := d.player.Play(ctx); err != nil {
		return fmt.Errorf("play bell: %w", err)
	}
	return nil
}

// AudioReady reports whether the bell player is preloaded.
func (d *Daemon) AudioReady() bool {
	return d.player != nil && d.player.Ready()
}

// AudioPlayer returns the resolved player binary when known.
func (d *Daemon) AudioPlayer() string {
	if named, ok := d.player.(interface{ Binary() string }); ok {
		return named.Binary()
	}
	return ""
}

// History lists recorded alerts, newest first.
func (d *Daemon) History(ctx context.Context, limit int) ([]history.Entry, error) {
	return d.history.List(ctx, limit)
}

// Orders returns the last order snapshot narrowed by filter.
func (d *Daemon) Orders(filter OrderFilter) ([]orders.Order, time.Time, error) {
	list, at := d.poller.Snapshot()
	switch OrderFilter(strings.ToLower(strings.TrimSpace(string(filter)))) {
	case OrdersAll:
		return list, at, nil
	case OrdersOngoing:
		return orders.Filter(list, orders.Status.IsOngoing), at, nil
	case OrdersHistory:
		return orders.Filter(list, orders.Status.IsHistory), at, nil
	default:
		return nil, time.Time{}, fmt.Errorf("unknown order filter %q", filter)
	}
}

// UpdateOrderStatus changes an order's delivery status on the backend and
// refreshes the snapshot copy.
func (d *Daemon) UpdateOrderStatus(ctx context.Context, id, status string) (orders.Order, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return orders.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(status) == "" {
		return orders.Order{}, fmt.Errorf("%w: status is required", ErrInvalidRequest)
	}
	parsed, ok := orders.LookupStatus(status)
	if !ok {
		return orders.Order{}, fmt.Errorf("%w: unknown status %q", ErrInvalidRequest, status)
	}
	if timeout := d.cfg.BackendTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	updated, err := d.source.UpdateStatus(ctx, id, parsed)
	if err != nil {
		return orders.Order{}, fmt.Errorf("update order %s: %w", id, err)
	}
	d.snapshot.Replace(updated)
	d.logger.Info("order status updated",
		logging.String(logging.FieldOrderID, id),
		logging.String("status", string(updated.Status)),
		logging.String(logging.FieldEventType, "order_status_updated"),
	)
	return updated, nil
}

// Toasts lists active toasts in the order they were shown.
func (d *Daemon) Toasts() []toast.Toast {
	return d.center.List()
}

// ActivateToast runs a toast's action at most once.
func (d *Daemon) ActivateToast(id string) error {
	return d.center.Activate(id)
}

// DismissToast closes a toast without running its action.
func (d *Daemon) DismissToast(id string) error {
	return d.center.Dismiss(id)
}

// NavigationRequests drains pending navigation requests.
func (d *Daemon) NavigationRequests() []navigate.Request {
	return d.navigator.Drain()
}

// LockPath returns the daemon lock file location.
func (d *Daemon) LockPath() string {
	return d.lockPath
}
