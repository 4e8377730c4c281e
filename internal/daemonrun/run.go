package daemonrun

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"orderbell/internal/audio"
	"orderbell/internal/broadcast"
	"orderbell/internal/config"
	"orderbell/internal/daemon"
	"orderbell/internal/daemonctl"
	"orderbell/internal/deps"
	"orderbell/internal/history"
	"orderbell/internal/ipc"
	"orderbell/internal/logging"
	"orderbell/internal/orders"
	"orderbell/internal/preflight"
	"orderbell/internal/toast"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the orderbell daemon runtime loop and blocks until SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("orderbell-%s.log", runID))

	level := opts.LogLevel
	if strings.TrimSpace(level) == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
		SessionID:   uuid.NewString(),
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logDependencySnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update orderbell.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "orderbell-*.log", Exclude: []string{logPath}},
	)
	pidPath := filepath.Join(cfg.Paths.LogDir, daemonctl.PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, driver, err := history.Open(signalCtx, cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	if pruned, pruneErr := history.PruneExpired(signalCtx, store, cfg.History.RetentionDays, time.Now()); pruneErr != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed",
			logging.Error(pruneErr),
			logging.String(logging.FieldImpact, "old alert history entries remain"),
		)
	} else if pruned > 0 {
		logger.Info("history pruned", logging.Int64("removed", pruned), logging.String(logging.FieldEventType, "history_pruned"))
	}

	channels := []toast.Channel{toast.NewLogChannel(logger), toast.NewNtfyChannel(cfg)}
	var closers []io.Closer
	bus, err := broadcast.Open(cfg, nil, logger)
	if err != nil {
		logging.WarnWithContext(logger, "broker unavailable; alerts stay local", "broker_connect_failed",
			logging.String("kind", cfg.Broker.Kind),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check broker.url and that the broker is running"),
			logging.String(logging.FieldImpact, "alert events are not published"),
		)
	} else if bus != nil {
		channels = append(channels, bus)
		closers = append(closers, bus)
	}

	d, err := daemon.New(daemon.Options{
		Config:        cfg,
		Logger:        logger,
		Orders:        orders.NewClient(cfg),
		Player:        audio.NewFromConfig(cfg),
		Channels:      channels,
		History:       store,
		HistoryDriver: driver,
		Closers:       closers,
	})
	if err != nil {
		_ = store.Close()
		for _, c := range closers {
			_ = c.Close()
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		logger.Warn("daemon start failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_start_failed"),
			logging.String(logging.FieldErrorHint, "check configuration and that no other orderbell daemon holds the lock"),
			logging.String(logging.FieldImpact, "new orders are not being polled"),
		)
	}

	<-signalCtx.Done()
	logger.Info("orderbell daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "orderbell.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logDependencySnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	statuses := preflight.CheckSystemDeps(cfg.Audio.Player)
	player, ok := deps.FirstAvailable(statuses)
	_, soundErr := os.Stat(cfg.Audio.SoundPath)
	logger.Info("dependency snapshot",
		logging.String(logging.FieldEventType, "dependency_snapshot"),
		logging.Bool("player_available", ok),
		logging.String("player_binary", player.Command),
		logging.Bool("sound_present", soundErr == nil),
		logging.String("sound_path", cfg.Audio.SoundPath),
		logging.Bool("backend_token_present", strings.TrimSpace(cfg.Backend.AuthToken) != ""),
		logging.Bool("ntfy_enabled", strings.TrimSpace(cfg.Toast.NtfyTopic) != ""),
		logging.String("history_driver", cfg.History.Driver),
		logging.String("broker_kind", cfg.Broker.Kind),
		logging.Bool("api_enabled", strings.TrimSpace(cfg.Paths.APIBind) != ""),
	)
}
