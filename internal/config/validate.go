package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateBackend(); err != nil {
		return err
	}
	if err := c.validatePolling(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateToast(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateBroker(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateBackend() error {
	if c.Backend.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("backend.base_url is required. Set ORDERBELL_BACKEND_URL env var or edit %s (create with 'orderbell config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Backend.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("backend.base_url %q must be an absolute http(s) url", c.Backend.BaseURL)
	}
	if c.Backend.RestaurantID == "" {
		return errors.New("backend.restaurant_id is required (or set ORDERBELL_RESTAURANT_ID)")
	}
	return nil
}

func (c *Config) validatePolling() error {
	if c.Polling.IntervalSeconds <= 0 {
		return errors.New("polling.interval_seconds must be positive")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.RepeatCount < 1 {
		return errors.New("audio.repeat_count must be >= 1")
	}
	if c.Audio.GapMillis < 0 {
		return errors.New("audio.gap_millis must be >= 0")
	}
	return nil
}

func (c *Config) validateToast() error {
	switch c.Toast.Severity {
	case "success", "info", "warning", "error":
		return nil
	default:
		return fmt.Errorf("toast.severity %q must be one of success, info, warning, error", c.Toast.Severity)
	}
}

func (c *Config) validateHistory() error {
	switch c.History.Driver {
	case "sqlite", "none":
		return nil
	case "postgres":
		if c.History.DSN == "" {
			return errors.New("history.dsn must be set when history.driver is postgres (or set ORDERBELL_HISTORY_DSN)")
		}
		return nil
	default:
		return fmt.Errorf("history.driver %q must be one of sqlite, postgres, none", c.History.Driver)
	}
}

func (c *Config) validateBroker() error {
	switch c.Broker.Kind {
	case "":
		return nil
	case "amqp":
		if c.Broker.URL == "" {
			return errors.New("broker.url must be set when broker.kind is amqp")
		}
		return nil
	case "stan":
		if c.Broker.URL == "" {
			return errors.New("broker.url must be set when broker.kind is stan")
		}
		if strings.TrimSpace(c.Broker.ClusterID) == "" {
			return errors.New("broker.cluster_id must be set when broker.kind is stan")
		}
		return nil
	default:
		return fmt.Errorf("broker.kind %q must be empty, amqp, or stan", c.Broker.Kind)
	}
}
