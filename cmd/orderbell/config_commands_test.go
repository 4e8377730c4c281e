package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "restaurant test-restaurant")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.socketPath, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, env.socketPath, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigValidateReportsErrors(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ORDERBELL_BACKEND_URL", "")
	t.Setenv("ORDERBELL_RESTAURANT_ID", "")

	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("[polling]\ninterval_seconds = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := runCLI(t, []string{"config", "validate"}, filepath.Join(t.TempDir(), "x.sock"), path)
	if err == nil {
		t.Fatal("expected validation error for missing backend")
	}
	requireContains(t, err.Error(), "load config")
}

func TestLogsCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	logPath := filepath.Join(env.cfg.Paths.LogDir, "orderbell.log")
	content := "INFO order alert emitted order_id=A1 event_type=order_alert_emitted\n" +
		"WARN order fetch failed event_type=order_fetch_failed\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "--lines", "5"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "order_alert_emitted")
	requireContains(t, out, "order_fetch_failed")

	out, _, err = runCLI(t, []string{"logs", "--order", "A1"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("logs --order: %v", err)
	}
	if strings.Contains(out, "order_fetch_failed") {
		t.Fatalf("expected order filter to drop unrelated lines: %s", out)
	}
}
