package daemonctl

import (
	"context"
	"fmt"
	"strings"

	"orderbell/internal/api"
	"orderbell/internal/config"
	"orderbell/internal/deps"
	"orderbell/internal/ipc"
	"orderbell/internal/preflight"
)

// StatusLine is one labelled row of the status view.
type StatusLine struct {
	Label    string
	Severity string
	Detail   string
}

// DependencySummary aggregates bell player readiness.
type DependencySummary struct {
	Total     int
	Available int
	Severity  string
	Detail    string
}

// Snapshot is the combined daemon and host status the CLI renders.
type Snapshot struct {
	Reachable    bool
	Daemon       api.DaemonStatus
	Dependencies []deps.Status
	Summary      DependencySummary
	SystemChecks []StatusLine
}

// BuildStatusSnapshot collects daemon status and applies offline fallbacks.
func BuildStatusSnapshot(_ context.Context, socketPath string, cfg *config.Config) (*Snapshot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not available")
	}
	snap := &Snapshot{}

	client, err := ipc.Dial(socketPath)
	if err == nil {
		defer client.Close()
		if resp, statusErr := client.Status(); statusErr == nil && resp != nil {
			snap.Reachable = true
			snap.Daemon = resp.Status
		}
	}

	snap.Dependencies = preflight.CheckSystemDeps(cfg.Audio.Player)
	snap.Summary = BuildDependencySummary(snap.Dependencies)
	snap.SystemChecks = BuildSystemChecks(cfg, snap.Reachable, snap.Daemon)
	return snap, nil
}

// BuildSystemChecks resolves status lines that combine runtime state and config checks.
func BuildSystemChecks(cfg *config.Config, reachable bool, status api.DaemonStatus) []StatusLine {
	lines := make([]StatusLine, 0, 6)
	switch {
	case !reachable:
		lines = append(lines, StatusLine{Label: "Orderbell", Severity: "warn", Detail: "Not running (run `orderbell start`)"})
	case status.Running:
		lines = append(lines, StatusLine{Label: "Orderbell", Severity: "ok", Detail: fmt.Sprintf("Running (pid %d)", status.PID)})
	default:
		lines = append(lines, StatusLine{Label: "Orderbell", Severity: "warn", Detail: "Daemon up, polling stopped"})
	}

	if reachable {
		poll := status.Poller
		switch {
		case poll.LastError != "":
			lines = append(lines, StatusLine{Label: "Poller", Severity: "warn", Detail: poll.LastError})
		case !poll.Initialized:
			lines = append(lines, StatusLine{Label: "Poller", Severity: "info", Detail: "Waiting for first fetch"})
		default:
			lines = append(lines, StatusLine{Label: "Poller", Severity: "ok",
				Detail: fmt.Sprintf("%d known, %d new", poll.KnownOrders, poll.NewOrders)})
		}

		if status.Visible {
			lines = append(lines, StatusLine{Label: "Surface", Severity: "ok", Detail: "Visible"})
		} else {
			detail := "Hidden"
			if status.PendingCount > 0 {
				detail = fmt.Sprintf("Hidden (%d queued)", status.PendingCount)
			}
			lines = append(lines, StatusLine{Label: "Surface", Severity: "info", Detail: detail})
		}

		if status.AudioReady {
			lines = append(lines, StatusLine{Label: "Audio", Severity: "ok", Detail: "Preloaded"})
		} else {
			lines = append(lines, StatusLine{Label: "Audio", Severity: "warn", Detail: "Not preloaded"})
		}
	}

	if strings.TrimSpace(cfg.Toast.NtfyTopic) != "" {
		lines = append(lines, StatusLine{Label: "Push", Severity: "ok", Detail: "Configured"})
	} else {
		lines = append(lines, StatusLine{Label: "Push", Severity: "info", Detail: "Not configured"})
	}

	if kind := strings.TrimSpace(cfg.Broker.Kind); kind != "" {
		lines = append(lines, StatusLine{Label: "Broker", Severity: "ok", Detail: kind})
	} else {
		lines = append(lines, StatusLine{Label: "Broker", Severity: "info", Detail: "Disabled"})
	}

	return lines
}

// BuildDependencySummary computes aggregate player readiness. Any single
// available player is sufficient.
func BuildDependencySummary(statuses []deps.Status) DependencySummary {
	if len(statuses) == 0 {
		return DependencySummary{Severity: "info", Detail: "No dependency checks configured"}
	}
	available := 0
	for _, s := range statuses {
		if s.Available {
			available++
		}
	}
	summary := DependencySummary{Total: len(statuses), Available: available}
	found, ok := deps.FirstAvailable(statuses)
	switch {
	case !ok:
		summary.Severity = "error"
		summary.Detail = fmt.Sprintf("no audio player available (0/%d)", len(statuses))
	default:
		summary.Severity = "ok"
		summary.Detail = fmt.Sprintf("using %s (%d/%d available)", found.Command, available, len(statuses))
	}
	return summary
}
