package main

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDaemonStartStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started")

	out, _, err = runCLI(t, []string{"start"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	requireContains(t, out, "Daemon already running")

	waitFor(t, 2*time.Second, func() bool {
		return env.daemon.Status(context.Background()).Poller.Initialized
	})

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "System Status")
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "2 known, 0 new")
	requireContains(t, out, "Audio Players")
	requireContains(t, out, "Ready (command: paplay)")
	requireContains(t, out, "Counters")
}

func TestStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	missing := filepath.Join(t.TempDir(), "missing.sock")

	out, _, err := runCLI(t, []string{"status"}, missing, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running (run `orderbell start`)")
	if strings.Contains(out, "Counters") {
		t.Fatalf("expected counters to be omitted when daemon is unreachable: %s", out)
	}

	_, _, err = runCLI(t, []string{"reset"}, missing, env.configPath)
	if err == nil {
		t.Fatal("expected reset to fail without daemon")
	}
	requireContains(t, err.Error(), "orderbell start")

	out, _, err = runCLI(t, []string{"stop"}, missing, env.configPath)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestOrdersCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"start"}, env.socketPath, env.configPath); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool {
		return env.daemon.Status(context.Background()).Poller.Initialized
	})

	out, _, err := runCLI(t, []string{"orders"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	requireContains(t, out, "ORDER0001XYZ")
	requireContains(t, out, "ORDER0002XYZ")
	requireContains(t, out, "Asha")

	out, _, err = runCLI(t, []string{"orders", "--ongoing", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("orders --ongoing: %v", err)
	}
	var payload struct {
		Orders []struct {
			ID string `json:"id"`
		} `json:"orders"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode orders json: %v\n%s", err, out)
	}
	if len(payload.Orders) != 1 || payload.Orders[0].ID != "ORDER0001XYZ" {
		t.Fatalf("unexpected ongoing orders %+v", payload.Orders)
	}

	if _, _, err := runCLI(t, []string{"orders", "--ongoing", "--history"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected mutually exclusive flags to fail")
	}

	out, _, err = runCLI(t, []string{"orders", "set-status", "ORDER0001XYZ", "Ready"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("set-status: %v", err)
	}
	requireContains(t, out, "Order ORDER0001XYZ is now")

	if _, _, err := runCLI(t, []string{"orders", "set-status", "ORDER0001XYZ", "teleported"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}

func TestControlCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"visibility", "hidden"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("visibility hidden: %v", err)
	}
	requireContains(t, out, "Surface marked hidden")
	if env.daemon.Visible() {
		t.Fatal("expected daemon to be hidden")
	}

	out, _, err = runCLI(t, []string{"visibility", "hidden"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("visibility hidden again: %v", err)
	}
	requireContains(t, out, "Surface already hidden")

	if _, _, err := runCLI(t, []string{"visibility", "sideways"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected invalid visibility to fail")
	}

	out, _, err = runCLI(t, []string{"visibility", "visible"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("visibility visible: %v", err)
	}
	requireContains(t, out, "Surface marked visible")

	out, _, err = runCLI(t, []string{"reset"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	requireContains(t, out, "New-orders counter cleared")

	out, _, err = runCLI(t, []string{"reset", "--session"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("reset --session: %v", err)
	}
	requireContains(t, out, "Session reset")
}

func TestNotificationAudioHistoryCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"audio", "preload"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("audio preload: %v", err)
	}
	requireContains(t, out, "Audio ready")

	out, _, err = runCLI(t, []string{"audio", "test"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("audio test: %v", err)
	}
	requireContains(t, out, "Bell played")

	out, _, err = runCLI(t, []string{"test-notify"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "test notification sent")

	out, _, err = runCLI(t, []string{"toasts"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("toasts: %v", err)
	}
	requireContains(t, strings.ToUpper(out), "SEVERITY")

	waitFor(t, 2*time.Second, func() bool {
		entries, err := env.daemon.History(context.Background(), 5)
		return err == nil && len(entries) > 0
	})
	out, _, err = runCLI(t, []string{"history", "--limit", "5"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, strings.ToUpper(out), "SOURCE")

	if _, _, err := runCLI(t, []string{"history", "--limit", "-1"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected negative limit to fail")
	}
}
