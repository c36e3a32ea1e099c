package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors
var (
	ErrMalformedFrame = errors.New("malformed frame")
	ErrInvalidShape   = errors.New("frame missing channel, type, or data")
)

// GlobalChannel is reserved for connection lifecycle and error signaling.
// Application payloads must not use it.
const GlobalChannel = "global"

// Well-known event types on the global channel.
const (
	// TypeConnected is the server's handshake-complete signal. Its receipt
	// is the single event that makes the connection ready for traffic.
	TypeConnected = "connected"

	// TypeError carries connection-level errors to subscribers.
	TypeError = "error"
)

// TypeSubscribe is the client -> server control message requesting
// channel delivery.
const TypeSubscribe = "subscribe"

// Event is the payload unit exchanged over any channel.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Envelope is one wire frame: an Event plus the channel it travels on.
type Envelope struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data"`
}

// Event returns the envelope's payload without the channel.
func (e Envelope) Event() Event {
	return Event{Type: e.Type, Data: e.Data}
}

// ParseEnvelope parses and validates a raw inbound frame.
func ParseEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if env.Channel == "" || env.Type == "" || len(env.Data) == 0 {
		return Envelope{}, ErrInvalidShape
	}
	return env, nil
}

// SubscribeData is the payload of a subscribe control message.
type SubscribeData struct {
	Channels []string `json:"channels"`
}

// NewSubscribe builds the subscribe control message for a channel.
func NewSubscribe(channel string) (Envelope, error) {
	data, err := json.Marshal(SubscribeData{Channels: []string{channel}})
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal subscribe data: %w", err)
	}
	return Envelope{Channel: channel, Type: TypeSubscribe, Data: data}, nil
}

// ErrorData is the payload of a TypeError event on the global channel.
type ErrorData struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Terminal bool   `json:"terminal"`
}

// Error codes carried in ErrorData.
const (
	CodeAuthFailed       = "auth_failed"
	CodeRetriesExhausted = "retries_exhausted"
	CodeTransient        = "transient"
)

// NewErrorEvent builds a TypeError event for the global channel.
func NewErrorEvent(code, message string, terminal bool) Event {
	data, _ := json.Marshal(ErrorData{Code: code, Message: message, Terminal: terminal})
	return Event{Type: TypeError, Data: data}
}

// ClosePolicyViolation is the close code the server uses for
// authentication and policy failures. It is terminal: clients must not
// reconnect after receiving it.
const ClosePolicyViolation = 1008

// TerminalCloseCode reports whether a close code indicates an
// authentication/policy failure that must not be retried.
func TerminalCloseCode(code int) bool {
	return code == ClosePolicyViolation
}
