package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Backend describes the restaurant order API the poller reads from.
type Backend struct {
	BaseURL        string `toml:"base_url"`
	RestaurantID   string `toml:"restaurant_id"`
	AuthToken      string `toml:"auth_token"`
	AdminURL       string `toml:"admin_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Polling controls the order poller cadence.
type Polling struct {
	IntervalSeconds     int `toml:"interval_seconds"`
	FetchTimeoutSeconds int `toml:"fetch_timeout_seconds"`
}

// Audio configures the urgent notification bell.
type Audio struct {
	SoundPath   string `toml:"sound_path"`
	Player      string `toml:"player"`
	RepeatCount int    `toml:"repeat_count"`
	GapMillis   int    `toml:"gap_millis"`
}

// Toast configures per-order alerts and the optional ntfy push mirror.
type Toast struct {
	DurationSeconds int    `toml:"duration_seconds"`
	ActionLabel     string `toml:"action_label"`
	Severity        string `toml:"severity"`
	NtfyTopic       string `toml:"ntfy_topic"`
	RequestTimeout  int    `toml:"request_timeout"`
}

// History selects where delivered alerts are recorded.
type History struct {
	Driver        string `toml:"driver"`
	DSN           string `toml:"dsn"`
	RetentionDays int    `toml:"retention_days"`
}

// Broker configures fan-out of alert events to a message broker.
type Broker struct {
	Kind      string `toml:"kind"`
	URL       string `toml:"url"`
	Exchange  string `toml:"exchange"`
	Subject   string `toml:"subject"`
	ClusterID string `toml:"cluster_id"`
	ClientID  string `toml:"client_id"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for orderbell.
//
// Configuration sections by subsystem:
//   - Paths: log directory and API bind address
//   - Backend: restaurant order API
//   - Polling: poll interval and fetch timeout
//   - Audio: bell sound, player, repeat count and gap
//   - Toast: alert duration, action label, ntfy push topic
//   - History: alert history storage (sqlite or postgres)
//   - Broker: AMQP or NATS Streaming fan-out
//   - Logging: log format, level, and retention
type Config struct {
	Paths   Paths   `toml:"paths"`
	Backend Backend `toml:"backend"`
	Polling Polling `toml:"polling"`
	Audio   Audio   `toml:"audio"`
	Toast   Toast   `toml:"toast"`
	History History `toml:"history"`
	Broker  Broker  `toml:"broker"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("orderbell.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LogDir, err)
	}
	return nil
}

// PollInterval returns the configured poll cadence.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Polling.IntervalSeconds) * time.Second
}

// FetchTimeout bounds a single order fetch.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Polling.FetchTimeoutSeconds) * time.Second
}

// BackendTimeout bounds status updates and other one-off backend calls.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeout) * time.Second
}

// NtfyTimeout bounds a single ntfy push.
func (c *Config) NtfyTimeout() time.Duration {
	return time.Duration(c.Toast.RequestTimeout) * time.Second
}

// AudioGap returns the pause between consecutive bell playbacks.
func (c *Config) AudioGap() time.Duration {
	return time.Duration(c.Audio.GapMillis) * time.Millisecond
}

// ToastDuration returns how long an alert stays actionable.
func (c *Config) ToastDuration() time.Duration {
	return time.Duration(c.Toast.DurationSeconds) * time.Second
}

// SocketPath returns the daemon IPC socket location.
func (c *Config) SocketPath() string {
	return filepath.Join(c.Paths.LogDir, "orderbell.sock")
}

// HistoryDBPath returns the sqlite history database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.LogDir, "history.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
