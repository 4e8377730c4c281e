package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"orderbell/internal/audio"
	"orderbell/internal/broadcast"
	"orderbell/internal/config"
	"orderbell/internal/deps"
	"orderbell/internal/history"
)

// Pinger reports whether the order backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSoundFile verifies that the bell sound exists and is readable.
func CheckSoundFile(path string) Result {
	const name = "Bell sound"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "audio.sound_path not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckAudioPlayer verifies that a bell player binary is installed.
func CheckAudioPlayer(configured string) Result {
	const name = "Audio player"
	statuses := CheckSystemDeps(configured)
	if found, ok := deps.FirstAvailable(statuses); ok {
		return Result{Name: name, Passed: true, Detail: found.Command}
	}
	if strings.TrimSpace(configured) != "" {
		return Result{Name: name, Detail: statuses[0].Detail}
	}
	return Result{Name: name, Detail: fmt.Sprintf("none of %s found on PATH", strings.Join(audio.Candidates(), ", "))}
}

// CheckSystemDeps evaluates the bell player binaries. Both the daemon startup
// snapshot and the preflight command use it.
func CheckSystemDeps(configuredPlayer string) []deps.Status {
	return deps.CheckBinaries(deps.PlayerRequirements(configuredPlayer, audio.Candidates()))
}

// CheckBackend verifies that the restaurant order endpoint answers.
func CheckBackend(ctx context.Context, backend Pinger) Result {
	const name = "Order backend"
	if backend == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := backend.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckHistory opens the configured history store.
func CheckHistory(ctx context.Context, cfg *config.Config) Result {
	const name = "Alert history"
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	store, driver, err := history.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	defer store.Close()
	if _, err := store.List(checkCtx, 1); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", driver, err)}
	}
	return Result{Name: name, Passed: true, Detail: driver}
}

// CheckBroker connects to the configured broker and disconnects.
func CheckBroker(cfg *config.Config) Result {
	const name = "Broker"
	ch, err := broadcast.Open(cfg, nil, nil)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetError(err)}
	}
	if ch == nil {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	_ = ch.Close()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", cfg.Broker.Kind)}
}

// summarizeNetError produces a human-readable summary for connectivity failures.
func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return err.Error()
}
