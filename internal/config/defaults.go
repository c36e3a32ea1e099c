package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultConnectTimeout    = 10 * time.Second
	DefaultHeartbeatInterval = 10 * time.Second
	DefaultStaleThreshold    = 45 * time.Second
	DefaultWriteTimeout      = 5 * time.Second
	DefaultQueueSize         = 100
	DefaultLogLevel          = "info"
)

func (c *Config) applyDefaults() {
	if c.Connection.ConnectTimeout == 0 {
		c.Connection.ConnectTimeout = DefaultConnectTimeout
	}
	if c.Connection.HeartbeatInterval == 0 {
		c.Connection.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Connection.StaleThreshold == 0 {
		c.Connection.StaleThreshold = DefaultStaleThreshold
	}
	if c.Connection.WriteTimeout == 0 {
		c.Connection.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connection.QueueSize == 0 {
		c.Connection.QueueSize = DefaultQueueSize
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
