// Package backoff implements the Reconnection Policy: a pure function from
// attempt count to delay, with an optional hard cap on attempts.
package backoff
