package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"orderbell/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The log directory exists, the API listener is disabled, and the audio gap
// is zero so urgent cycles never wait on a clock.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = ""
	cfgVal.Backend.BaseURL = "http://127.0.0.1:1"
	cfgVal.Backend.AdminURL = "http://admin.test"
	cfgVal.Backend.RestaurantID = "test-restaurant"
	cfgVal.Audio.SoundPath = filepath.Join(base, "sounds", "bell.mp3")
	cfgVal.Audio.GapMillis = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithBackend points the config at a test backend.
func WithBackend(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Backend.BaseURL = baseURL
	}
}

// WithAPIBind enables the HTTP API on the given address.
func WithAPIBind(bind, token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.APIBind = bind
		b.cfg.Paths.APIToken = token
	}
}

// WithSoundFile writes a small placeholder sound file at the configured path.
func WithSoundFile() ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.Audio.SoundPath, 512)
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, paplay is stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"paplay"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
