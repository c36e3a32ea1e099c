package config

import "time"

// Config is the root configuration for the realtime client runtime.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Connection ConnectionConfig `yaml:"connection"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig identifies the WebSocket endpoint and credential.
type ServerConfig struct {
	URL   string `yaml:"url"`   // ws(s)://<host>/ws
	Token string `yaml:"token"` // opaque credential, usually ${AGENTCMD_TOKEN}
}

// ConnectionConfig holds the connection lifecycle settings.
type ConnectionConfig struct {
	ConnectTimeout    time.Duration `yaml:"connect_timeout"`    // dial + handshake deadline
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"` // staleness check cadence
	StaleThreshold    time.Duration `yaml:"stale_threshold"`    // max silence before forced close
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	MaxAttempts       int           `yaml:"max_attempts"` // 0 = retry forever
	QueueSize         int           `yaml:"queue_size"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}
