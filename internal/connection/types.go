package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no inbound traffic)")
	ErrConnectTimeout  = errors.New("connect timeout")
)

// State mirrors the underlying socket's native state. It is owned
// exclusively by the Manager.
type State int

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Config configures a Manager.
type Config struct {
	URL               string        // WebSocket endpoint, e.g. wss://host/ws
	Token             string        // opaque credential appended as ?token=
	ConnectTimeout    time.Duration // dial through handshake deadline
	HeartbeatInterval time.Duration // staleness check cadence
	StaleThreshold    time.Duration // max inbound silence before forced close
	WriteTimeout      time.Duration // write deadline for sends
	MaxAttempts       int           // reconnect cap, 0 = retry forever
	QueueSize         int           // outbound queue capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout:    10 * time.Second,
		HeartbeatInterval: 10 * time.Second,
		StaleThreshold:    45 * time.Second,
		WriteTimeout:      5 * time.Second,
		QueueSize:         100,
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = def.HeartbeatInterval
	}
	if c.StaleThreshold == 0 {
		c.StaleThreshold = def.StaleThreshold
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = def.WriteTimeout
	}
	if c.QueueSize == 0 {
		c.QueueSize = def.QueueSize
	}
}

// Stats is a snapshot of the manager's current state.
type Stats struct {
	State             State
	Ready             bool
	ReconnectAttempts int
	QueueDepth        int
	QueueDropped      int64
	LastMessageAt     time.Time
}
