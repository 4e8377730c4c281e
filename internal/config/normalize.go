package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeBackend()
	c.normalizePolling()
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	c.normalizeToast()
	c.normalizeHistory()
	c.normalizeBroker()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("ORDERBELL_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeBackend() {
	c.Backend.BaseURL = strings.TrimSpace(c.Backend.BaseURL)
	if c.Backend.BaseURL == "" {
		if value, ok := os.LookupEnv("ORDERBELL_BACKEND_URL"); ok {
			c.Backend.BaseURL = strings.TrimSpace(value)
		}
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	c.Backend.RestaurantID = strings.TrimSpace(c.Backend.RestaurantID)
	if c.Backend.RestaurantID == "" {
		if value, ok := os.LookupEnv("ORDERBELL_RESTAURANT_ID"); ok {
			c.Backend.RestaurantID = strings.TrimSpace(value)
		}
	}
	c.Backend.AuthToken = strings.TrimSpace(c.Backend.AuthToken)
	if c.Backend.AuthToken == "" {
		if value, ok := os.LookupEnv("ORDERBELL_BACKEND_TOKEN"); ok {
			c.Backend.AuthToken = strings.TrimSpace(value)
		}
	}
	c.Backend.AdminURL = strings.TrimRight(strings.TrimSpace(c.Backend.AdminURL), "/")
	if c.Backend.AdminURL == "" {
		c.Backend.AdminURL = c.Backend.BaseURL
	}
	if c.Backend.RequestTimeout <= 0 {
		c.Backend.RequestTimeout = defaultBackendRequestTimeout
	}
}

func (c *Config) normalizePolling() {
	if c.Polling.FetchTimeoutSeconds <= 0 {
		c.Polling.FetchTimeoutSeconds = defaultFetchTimeoutSeconds
	}
}

func (c *Config) normalizeAudio() error {
	var err error
	if strings.TrimSpace(c.Audio.SoundPath) == "" {
		c.Audio.SoundPath = defaultSoundPath
	}
	if c.Audio.SoundPath, err = expandPath(strings.TrimSpace(c.Audio.SoundPath)); err != nil {
		return fmt.Errorf("audio.sound_path: %w", err)
	}
	c.Audio.Player = strings.TrimSpace(c.Audio.Player)
	return nil
}

func (c *Config) normalizeToast() {
	if c.Toast.DurationSeconds <= 0 {
		c.Toast.DurationSeconds = defaultToastDurationSeconds
	}
	c.Toast.ActionLabel = strings.TrimSpace(c.Toast.ActionLabel)
	if c.Toast.ActionLabel == "" {
		c.Toast.ActionLabel = defaultToastActionLabel
	}
	c.Toast.Severity = strings.ToLower(strings.TrimSpace(c.Toast.Severity))
	if c.Toast.Severity == "" {
		c.Toast.Severity = defaultToastSeverity
	}
	c.Toast.NtfyTopic = strings.TrimSpace(c.Toast.NtfyTopic)
	if c.Toast.RequestTimeout <= 0 {
		c.Toast.RequestTimeout = defaultNtfyRequestTimeout
	}
}

func (c *Config) normalizeHistory() {
	c.History.Driver = strings.ToLower(strings.TrimSpace(c.History.Driver))
	if c.History.Driver == "" {
		c.History.Driver = defaultHistoryDriver
	}
	c.History.DSN = strings.TrimSpace(c.History.DSN)
	if c.History.DSN == "" {
		if value, ok := os.LookupEnv("ORDERBELL_HISTORY_DSN"); ok {
			c.History.DSN = strings.TrimSpace(value)
		}
	}
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
}

func (c *Config) normalizeBroker() {
	c.Broker.Kind = strings.ToLower(strings.TrimSpace(c.Broker.Kind))
	c.Broker.URL = strings.TrimSpace(c.Broker.URL)
	if c.Broker.URL == "" {
		if value, ok := os.LookupEnv("ORDERBELL_BROKER_URL"); ok {
			c.Broker.URL = strings.TrimSpace(value)
		}
	}
	c.Broker.Exchange = strings.TrimSpace(c.Broker.Exchange)
	if c.Broker.Exchange == "" {
		c.Broker.Exchange = defaultBrokerExchange
	}
	c.Broker.Subject = strings.TrimSpace(c.Broker.Subject)
	if c.Broker.Subject == "" {
		c.Broker.Subject = defaultBrokerSubject
	}
	c.Broker.ClusterID = strings.TrimSpace(c.Broker.ClusterID)
	c.Broker.ClientID = strings.TrimSpace(c.Broker.ClientID)
	if c.Broker.ClientID == "" {
		c.Broker.ClientID = defaultBrokerClientID
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
