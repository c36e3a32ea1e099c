// Package bus implements the Channel Event Bus: in-memory publish/subscribe
// keyed by channel name. It has no knowledge of the socket; the Connection
// Manager emits into it and any number of independent subscribers listen.
package bus
