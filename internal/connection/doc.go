// Package connection implements the Connection Manager: the single
// authoritative owner of the physical WebSocket and its state transitions.
//
// The manager:
//   - drives one socket through CONNECTING/OPEN/CLOSING/CLOSED
//   - gates readiness on the server's handshake-complete signal
//   - queues outbound messages until ready, then flushes them in order
//   - detects stale connections from inbound traffic recency
//   - reconnects with exponential backoff unless the close was
//     intentional or terminal (authentication failure)
//
// All timers run on an injectable clock so timing behavior is testable
// without real sleeps.
package connection
