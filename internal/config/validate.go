package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.URL == "" {
		return errors.New("server.url is required")
	}
	u, err := url.Parse(c.Server.URL)
	if err != nil {
		return fmt.Errorf("server.url is not a valid URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("server.url scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.Connection.ConnectTimeout < 0 {
		return errors.New("connection.connect_timeout must be >= 0")
	}
	if c.Connection.HeartbeatInterval < 0 {
		return errors.New("connection.heartbeat_interval must be >= 0")
	}
	if c.Connection.StaleThreshold < 0 {
		return errors.New("connection.stale_threshold must be >= 0")
	}
	if c.Connection.StaleThreshold > 0 && c.Connection.HeartbeatInterval > c.Connection.StaleThreshold {
		return fmt.Errorf("connection.heartbeat_interval (%v) cannot exceed stale_threshold (%v)",
			c.Connection.HeartbeatInterval, c.Connection.StaleThreshold)
	}
	if c.Connection.MaxAttempts < 0 {
		return errors.New("connection.max_attempts must be >= 0")
	}
	if c.Connection.QueueSize < 1 {
		return errors.New("connection.queue_size must be >= 1")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	return nil
}
