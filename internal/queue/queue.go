package queue

import (
	"log/slog"
	"time"

	"github.com/jnarowski/agentcmd-sub007/internal/protocol"
)

// DefaultCapacity is the default maximum number of queued messages.
const DefaultCapacity = 100

// Message is one queued outbound message.
type Message struct {
	Channel    string
	Event      protocol.Event
	EnqueuedAt time.Time
}

// Queue is a bounded drop-oldest FIFO. It is not safe for concurrent use;
// the Connection Manager owns it and serializes access.
type Queue struct {
	capacity int
	logger   *slog.Logger

	items   []Message
	dropped int64
}

// New creates a Queue with the given capacity. Zero or negative capacity
// falls back to DefaultCapacity.
func New(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{
		capacity: capacity,
		logger:   logger,
		items:    make([]Message, 0, capacity),
	}
}

// Enqueue appends a message. At capacity the oldest entry is dropped first,
// so the queue always retains the most recent messages.
func (q *Queue) Enqueue(msg Message) {
	if len(q.items) >= q.capacity {
		oldest := q.items[0]
		q.items = q.items[1:]
		q.dropped++
		q.logger.Warn("outbound queue full, dropping oldest message",
			"channel", oldest.Channel,
			"type", oldest.Event.Type,
			"enqueued_at", oldest.EnqueuedAt,
		)
	}
	q.items = append(q.items, msg)
}

// Drain returns every queued message in FIFO order and empties the queue.
// The returned slice is the caller's to send; a message can never be
// returned by two drains.
func (q *Queue) Drain() []Message {
	items := q.items
	q.items = make([]Message, 0, q.capacity)
	return items
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return len(q.items)
}

// Dropped returns the total number of messages discarded due to overflow.
func (q *Queue) Dropped() int64 {
	return q.dropped
}
