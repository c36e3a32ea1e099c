// Package queue implements the outbound Message Queue: a bounded FIFO
// holding messages composed before the connection is ready. When full it
// drops the oldest entry, so the most recent messages always survive.
package queue
