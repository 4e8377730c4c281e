package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"orderbell/internal/audio"
	"orderbell/internal/config"
	"orderbell/internal/daemon"
	"orderbell/internal/ipc"
	"orderbell/internal/logging"
	"orderbell/internal/orders"
	"orderbell/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
	cancel     context.CancelFunc
}

func newTestBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/orders/restaurant/test-restaurant":
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `[{"_id":"ORDER0001XYZ","deliveryStatus":"preparing","billAmount":320,"addressDetails":{"receiverName":"Asha"},"orderItems":[{"name":"Dosa","quantity":2,"price":160}]},
				{"_id":"ORDER0002XYZ","deliveryStatus":"completed","billAmount":90,"orderItems":[{"name":"Chai","quantity":3,"price":30}]}]`)
		case r.Method == http.MethodPatch && strings.HasPrefix(r.URL.Path, "/api/orders/"):
			id := strings.TrimPrefix(r.URL.Path, "/api/orders/")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprintf(w, `{"_id":%q,"deliveryStatus":"Ready","billAmount":320}`, id)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	backend := newTestBackend(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithBackend(backend.URL),
		testsupport.WithStubbedBinaries(),
		testsupport.WithSoundFile(),
	)
	cfg.Audio.Player = "paplay"

	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(homeDir, ".config", "orderbell", "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenHistory(t, cfg)
	logger := logging.NewNop()

	d, err := daemon.New(daemon.Options{
		Config:        cfg,
		Logger:        logger,
		Orders:        orders.NewClient(cfg),
		Player:        audio.NewFromConfig(cfg),
		History:       store,
		HistoryDriver: "sqlite",
	})
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.LogDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
		cancel:     cancel,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func waitFor(t *testing.T, duration time.Duration, fn func() bool) {
	t.Helper()
	deadline := time.Now().Add(duration)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("condition not met within %s", duration)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
