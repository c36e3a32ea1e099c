package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/jnarowski/agentcmd-sub007/internal/backoff"
	"github.com/jnarowski/agentcmd-sub007/internal/bus"
	"github.com/jnarowski/agentcmd-sub007/internal/protocol"
	"github.com/jnarowski/agentcmd-sub007/internal/queue"
)

// Manager owns the single WebSocket connection. All mutable connection
// state (socket reference, flags, counters, timers, queue) lives behind one
// mutex; callbacks from a superseded socket carry a stale generation number
// and are suppressed instead of detached.
type Manager struct {
	cfg    Config
	logger *slog.Logger
	clock  clock.Clock
	dialer *websocket.Dialer

	bus    *bus.Bus
	queue  *queue.Queue
	policy backoff.Policy
	hb     *Monitor

	mu          sync.Mutex
	token       string
	state       State
	ready       bool
	intentional bool
	attempts    int

	// gen increments on every connect/teardown; at most one socket
	// generation is current at any instant.
	gen        uint64
	conn       *websocket.Conn
	cancelDial context.CancelFunc

	connectTimer   *clock.Timer
	reconnectTimer *clock.Timer
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithClock sets the clock used for all timers. Tests inject a mock.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// NewManager creates a Manager publishing inbound events on b.
func NewManager(cfg Config, b *bus.Bus, opts ...Option) *Manager {
	cfg.applyDefaults()

	m := &Manager{
		cfg:    cfg,
		logger: slog.Default(),
		clock:  clock.New(),
		bus:    b,
		policy: backoff.Policy{MaxAttempts: cfg.MaxAttempts},
		token:  cfg.Token,
		state:  StateClosed,
		dialer: &websocket.Dialer{
			Proxy: http.ProxyFromEnvironment,
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "connection")
	m.queue = queue.New(cfg.QueueSize, m.logger)
	m.hb = NewMonitor(m.clock, cfg.HeartbeatInterval, cfg.StaleThreshold, m.onStale)

	return m
}

// Connect opens a new socket. It is a no-op without a credential. An
// existing socket is closed intentionally before the replacement opens; if
// the predecessor is still dialing, its close is deferred to the dial
// result so a half-open socket is never closed mid-handshake.
func (m *Manager) Connect() {
	m.mu.Lock()
	m.connectLocked()
	m.mu.Unlock()
}

func (m *Manager) connectLocked() {
	if m.token == "" {
		m.logger.Debug("connect skipped, no credential")
		return
	}

	if m.conn != nil || m.cancelDial != nil {
		m.intentional = true
		m.teardownSocketLocked()
		// The predecessor's close callback is generation-suppressed and
		// cannot consume the flag, so consume it here.
		m.intentional = false
	}

	m.stopTimerLocked(&m.connectTimer)
	m.gen++
	gen := m.gen
	m.state = StateConnecting
	m.ready = false

	ctx, cancel := context.WithCancel(context.Background())
	m.cancelDial = cancel
	m.connectTimer = m.clock.AfterFunc(m.cfg.ConnectTimeout, func() {
		m.onConnectTimeout(gen)
	})

	target := m.dialTargetLocked()
	m.logger.Debug("connecting", "url", m.cfg.URL, "gen", gen)

	go func() {
		conn, resp, err := m.dialer.DialContext(ctx, target, nil)
		m.onDialResult(gen, conn, resp, err)
	}()
}

func (m *Manager) dialTargetLocked() string {
	sep := "?"
	if strings.Contains(m.cfg.URL, "?") {
		sep = "&"
	}
	return m.cfg.URL + sep + "token=" + url.QueryEscape(m.token)
}

// Disconnect intentionally tears the connection down: every timer is
// cancelled, the heartbeat stops, and no reconnection is scheduled.
func (m *Manager) Disconnect() {
	m.mu.Lock()

	m.intentional = true
	m.stopTimerLocked(&m.connectTimer)
	m.stopTimerLocked(&m.reconnectTimer)
	m.hb.Stop()

	if m.cancelDial != nil {
		// Still dialing: abort the dial and suppress its result. The dial
		// goroutine closes the socket if the handshake won the race.
		m.cancelDial()
		m.cancelDial = nil
		m.gen++
		m.intentional = false
		m.state = StateClosed
		m.ready = false
		m.mu.Unlock()
		return
	}

	if m.conn != nil {
		conn := m.conn
		m.state = StateClosing
		m.ready = false
		m.mu.Unlock()
		// The read loop observes the close and delivers it with the
		// current generation; the intentional flag is consumed there.
		sendCloseFrame(conn, websocket.CloseNormalClosure)
		conn.Close()
		return
	}

	m.intentional = false
	m.state = StateClosed
	m.ready = false
	m.mu.Unlock()
}

// Send transmits an event on a channel. Before the connection is ready the
// message is queued and flushed, in order, once the handshake completes.
func (m *Manager) Send(channel string, ev protocol.Event) error {
	m.mu.Lock()
	if !m.ready {
		m.queue.Enqueue(queue.Message{
			Channel:    channel,
			Event:      ev,
			EnqueuedAt: m.clock.Now(),
		})
		m.mu.Unlock()
		return nil
	}
	err := m.writeLocked(channel, ev)
	m.mu.Unlock()
	return err
}

// Subscribe requests server delivery for the given channels. The control
// messages go through Send, so they queue while offline and flush when the
// connection becomes ready.
func (m *Manager) Subscribe(channels ...string) error {
	for _, ch := range channels {
		env, err := protocol.NewSubscribe(ch)
		if err != nil {
			return err
		}
		if err := m.Send(ch, env.Event()); err != nil {
			return fmt.Errorf("subscribe %s: %w", ch, err)
		}
	}
	return nil
}

// Reconnect is the manual override: it resets the attempt counter, cancels
// any pending reconnect timer, and connects immediately.
func (m *Manager) Reconnect() {
	m.mu.Lock()
	m.attempts = 0
	m.stopTimerLocked(&m.reconnectTimer)
	m.connectLocked()
	m.mu.Unlock()
}

// Resume handles the host regaining foreground focus: if the connection is
// closed and the closure was not intentional, reconnect immediately.
func (m *Manager) Resume() {
	m.mu.Lock()
	if m.state != StateClosed || m.intentional {
		m.mu.Unlock()
		return
	}
	m.attempts = 0
	m.stopTimerLocked(&m.reconnectTimer)
	m.connectLocked()
	m.mu.Unlock()
}

// SetToken rotates the credential. A new non-empty token replaces the
// current socket; an empty token (credential loss) disconnects.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	if token == m.token {
		m.mu.Unlock()
		return
	}
	m.token = token
	if token == "" {
		m.mu.Unlock()
		m.Disconnect()
		return
	}
	m.connectLocked()
	m.mu.Unlock()
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsReady reports whether the handshake has completed and sends go straight
// to the socket.
func (m *Manager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// Stats returns a snapshot of the manager's state.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		State:             m.state,
		Ready:             m.ready,
		ReconnectAttempts: m.attempts,
		QueueDepth:        m.queue.Len(),
		QueueDropped:      m.queue.Dropped(),
		LastMessageAt:     m.hb.LastMessageAt(),
	}
}

// onDialResult runs when the dial goroutine finishes, successfully or not.
func (m *Manager) onDialResult(gen uint64, conn *websocket.Conn, resp *http.Response, err error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		// Superseded while opening: this is the deferred close of a socket
		// that was replaced or torn down before it finished the handshake.
		if conn != nil {
			conn.Close()
		}
		return
	}
	m.cancelDial = nil

	if err != nil {
		m.stopTimerLocked(&m.connectTimer)
		m.state = StateClosed
		m.ready = false

		if errors.Is(err, websocket.ErrBadHandshake) && resp != nil &&
			(resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			m.logger.Error("dial rejected, authentication failed", "status", resp.StatusCode)
			m.mu.Unlock()
			m.bus.Emit(protocol.GlobalChannel, protocol.NewErrorEvent(
				protocol.CodeAuthFailed, "authentication failed", true))
			return
		}

		m.logger.Warn("dial failed", "error", err)
		emit, ok := m.scheduleReconnectLocked(err)
		m.mu.Unlock()
		if ok {
			m.bus.Emit(protocol.GlobalChannel, emit)
		}
		return
	}

	if m.connectTimer == nil {
		// The connect timeout fired while the dial was completing.
		m.state = StateClosed
		emit, ok := m.scheduleReconnectLocked(ErrConnectTimeout)
		m.mu.Unlock()
		conn.Close()
		if ok {
			m.bus.Emit(protocol.GlobalChannel, emit)
		}
		return
	}

	m.conn = conn
	m.state = StateOpen
	m.attempts = 0
	// The connect timer stays armed: it covers the handshake too, so a
	// server that opens the socket but never confirms still times out.
	m.logger.Debug("socket open", "gen", gen)
	go m.readLoop(gen, conn)
	m.mu.Unlock()
}

// readLoop delivers inbound frames and the eventual close for one socket
// generation.
func (m *Manager) readLoop(gen uint64, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			m.onSocketClosed(gen, closeCode(err), err)
			return
		}
		m.onFrame(gen, data)
	}
}

func closeCode(err error) int {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return websocket.CloseAbnormalClosure
}

// onFrame handles one inbound frame: parse, validate, record liveness,
// special-case the handshake signal, then dispatch on the bus.
func (m *Manager) onFrame(gen uint64, raw []byte) {
	env, err := protocol.ParseEnvelope(raw)
	if err != nil {
		// Protocol errors never affect connection state.
		m.logger.Warn("dropping invalid frame", "error", err)
		return
	}

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.hb.Touch()

	if env.Channel == protocol.GlobalChannel && env.Type == protocol.TypeConnected && !m.ready {
		m.ready = true
		m.stopTimerLocked(&m.connectTimer)
		flushed := m.queue.Drain()
		for _, qm := range flushed {
			if werr := m.writeLocked(qm.Channel, qm.Event); werr != nil {
				m.logger.Warn("flush write failed",
					"channel", qm.Channel,
					"type", qm.Event.Type,
					"error", werr,
				)
			}
		}
		m.hb.Start()
		m.logger.Info("connection ready", "flushed", len(flushed))
	}
	m.mu.Unlock()

	m.bus.Emit(env.Channel, env.Event())
}

// onSocketClosed handles the close of the current socket generation, from
// a peer close frame, a read error, or a forced local close.
func (m *Manager) onSocketClosed(gen uint64, code int, cause error) {
	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}

	m.hb.Stop()
	m.stopTimerLocked(&m.connectTimer)
	m.conn = nil
	m.cancelDial = nil
	m.state = StateClosed
	m.ready = false

	var emit protocol.Event
	var doEmit bool

	switch {
	case protocol.TerminalCloseCode(code):
		m.intentional = false
		m.logger.Error("server rejected credential, not reconnecting", "code", code)
		emit = protocol.NewErrorEvent(protocol.CodeAuthFailed,
			"connection closed: authentication failed", true)
		doEmit = true

	case m.intentional:
		m.intentional = false
		m.logger.Debug("intentional close", "code", code)

	default:
		emit, doEmit = m.scheduleReconnectLocked(cause)
	}
	m.mu.Unlock()

	if doEmit {
		m.bus.Emit(protocol.GlobalChannel, emit)
	}
}

// scheduleReconnectLocked applies the reconnection policy after an
// unintentional closure and returns the error event to broadcast.
func (m *Manager) scheduleReconnectLocked(cause error) (protocol.Event, bool) {
	if m.policy.Exhausted(m.attempts) {
		m.logger.Error("reconnect attempts exhausted, giving up",
			"attempts", m.attempts,
			"max", m.policy.MaxAttempts,
		)
		return protocol.NewErrorEvent(protocol.CodeRetriesExhausted,
			"connection lost and retry attempts exhausted", true), true
	}

	delay := m.policy.Delay(m.attempts)
	m.attempts++
	m.logger.Warn("connection lost, scheduling reconnect",
		"cause", cause,
		"attempt", m.attempts,
		"delay", delay,
	)

	// At most one pending reconnect timer exists at any time.
	m.stopTimerLocked(&m.reconnectTimer)
	m.reconnectTimer = m.clock.AfterFunc(delay, func() {
		m.mu.Lock()
		m.reconnectTimer = nil
		m.connectLocked()
		m.mu.Unlock()
	})

	return protocol.NewErrorEvent(protocol.CodeTransient,
		fmt.Sprintf("connection lost, retrying in %s", delay), false), true
}

// onConnectTimeout fires when dial plus handshake exceed the deadline.
// The forced close is not intentional, so it feeds the reconnection policy.
func (m *Manager) onConnectTimeout(gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.ready {
		m.mu.Unlock()
		return
	}
	m.connectTimer = nil
	m.logger.Warn("connect timeout, forcing close", "state", m.state.String())

	if m.cancelDial != nil {
		// Abort the in-flight dial; the error surfaces via onDialResult.
		m.cancelDial()
		m.mu.Unlock()
		return
	}
	if m.conn != nil {
		conn := m.conn
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.mu.Unlock()
}

// onStale is invoked by the heartbeat monitor. The forced close surfaces
// through the read loop as an unintentional closure.
func (m *Manager) onStale() {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn != nil {
		m.logger.Warn("connection stale, forcing close", "error", ErrStaleConnection)
		conn.Close()
	}
}

func (m *Manager) writeLocked(channel string, ev protocol.Event) error {
	if m.conn == nil {
		return ErrNotConnected
	}
	env := protocol.Envelope{Channel: channel, Type: ev.Type, Data: ev.Data}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	// I/O deadlines use wall time even under a mock clock.
	m.conn.SetWriteDeadline(time.Now().Add(m.cfg.WriteTimeout))
	return m.conn.WriteMessage(websocket.TextMessage, data)
}

// teardownSocketLocked closes whatever socket is current (open or still
// dialing). The caller bumps the generation, so the torn-down socket's
// callbacks are suppressed.
func (m *Manager) teardownSocketLocked() {
	m.hb.Stop()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	if m.conn != nil {
		sendCloseFrame(m.conn, websocket.CloseNormalClosure)
		m.conn.Close()
		m.conn = nil
	}
}

func (m *Manager) stopTimerLocked(t **clock.Timer) {
	if *t != nil {
		(*t).Stop()
		*t = nil
	}
}

func sendCloseFrame(conn *websocket.Conn, code int) {
	conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, ""),
		time.Now().Add(time.Second),
	)
}
