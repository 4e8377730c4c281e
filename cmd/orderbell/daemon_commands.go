package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"orderbell/internal/daemonctl"
	"orderbell/internal/deps"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start polling, launching the daemon if needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx), 10*time.Second)
			if err != nil {
				return err
			}
			printStartResult(stdout, result)
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the orderbell daemon (terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			} else {
				fmt.Fprintln(stdout, "Polling stopped")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the orderbell daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}
			stopResult, stopErr := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if stopErr != nil && !errors.Is(stopErr, daemonctl.ErrDaemonNotRunning) {
				return stopErr
			}
			if stopErr == nil {
				if stopResult.ForcedKill && stopResult.PID > 0 {
					fmt.Fprintf(stdout, "Killed daemon process (pid %d)\n", stopResult.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonLaunchOptions(ctx), 10*time.Second)
			if err != nil {
				return err
			}
			printStartResult(stdout, result)
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon, poller, and player status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			snap, err := daemonctl.BuildStatusSnapshot(cmd.Context(), ctx.socketPath(), cfg)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range snap.SystemChecks {
				fmt.Fprintln(stdout, renderStatusLine(line.Label, statusKindFromSeverity(line.Severity), line.Detail, colorize))
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Audio Players", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range dependencyLines(snap.Dependencies, snap.Summary, colorize) {
				fmt.Fprintln(stdout, line)
			}

			if !snap.Reachable {
				return nil
			}
			fmt.Fprintln(stdout)
			for _, line := range renderSectionHeader("Counters", colorize) {
				fmt.Fprintln(stdout, line)
			}
			d := snap.Daemon
			rows := [][]string{
				{"Known orders", fmt.Sprintf("%d", d.Poller.KnownOrders)},
				{"New orders", fmt.Sprintf("%d", d.Poller.NewOrders)},
				{"Alerts emitted", fmt.Sprintf("%d", d.AlertsEmitted)},
				{"Urgent cycles", fmt.Sprintf("%d", d.AudioCycles)},
				{"Queued while hidden", fmt.Sprintf("%d", d.PendingCount)},
				{"Active toasts", fmt.Sprintf("%d", d.ActiveToasts)},
				{"Polls", fmt.Sprintf("%d", d.Poller.Ticks)},
				{"Last poll", valueOrDash(d.Poller.LastPollAt)},
				{"History", valueOrDash(d.HistoryDriver)},
			}
			fmt.Fprint(stdout, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintln(stdout)
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func printStartResult(stdout io.Writer, result daemonctl.StartResult) {
	if result.Launched {
		fmt.Fprintln(stdout, "Daemon not running, launching...")
	}
	switch result.State {
	case daemonctl.StartStateStarted:
		fmt.Fprintln(stdout, "Daemon started")
	case daemonctl.StartStateAlreadyRunning:
		fmt.Fprintln(stdout, "Daemon already running")
	case daemonctl.StartStateRequested:
		if strings.TrimSpace(result.Message) != "" {
			fmt.Fprintln(stdout, result.Message)
			return
		}
		fmt.Fprintln(stdout, "Start request sent")
	}
}

func dependencyLines(statuses []deps.Status, summary daemonctl.DependencySummary, colorize bool) []string {
	lines := make([]string, 0, len(statuses)+1)
	lines = append(lines, renderStatusLine("Summary", statusKindFromSeverity(summary.Severity), summary.Detail, colorize))
	for _, dep := range statuses {
		if dep.Available {
			message := "Ready"
			if dep.Command != "" {
				message = fmt.Sprintf("Ready (command: %s)", dep.Command)
			}
			lines = append(lines, renderStatusLine(dep.Name, statusOK, message, colorize))
			continue
		}
		detail := strings.TrimSpace(dep.Detail)
		if detail == "" {
			detail = "not available"
		}
		kind := statusError
		if dep.Optional {
			kind = statusInfo
		}
		lines = append(lines, renderStatusLine(dep.Name, kind, detail, colorize))
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{ConfigPath: ctx.configPath()}
	if ctx.logLevelFlag != nil {
		opts.LogLevel = strings.TrimSpace(*ctx.logLevelFlag)
	}
	return opts
}

func valueOrDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}
