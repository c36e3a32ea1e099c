package bus

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jnarowski/agentcmd-sub007/internal/protocol"
)

// Handler receives events emitted on a subscribed channel.
type Handler func(protocol.Event)

type subscription struct {
	id      uuid.UUID
	handler Handler
}

// Bus dispatches events to handlers registered per channel. Emit invokes
// the handlers for that exact channel synchronously, in registration order;
// there is no wildcard or prefix matching.
type Bus struct {
	mu       sync.RWMutex
	channels map[string][]subscription
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{
		channels: make(map[string][]subscription),
	}
}

// On registers a handler for a channel and returns its subscription ID.
// Go funcs are not comparable, so deregistration is by ID rather than by
// handler value.
func (b *Bus) On(channel string, h Handler) uuid.UUID {
	id := uuid.New()

	b.mu.Lock()
	b.channels[channel] = append(b.channels[channel], subscription{id: id, handler: h})
	b.mu.Unlock()

	return id
}

// Off removes the subscription with the given ID from a channel. Other
// handlers on the same channel remain registered. Unknown IDs are ignored.
func (b *Bus) Off(channel string, id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.channels[channel]
	for i, sub := range subs {
		if sub.id == id {
			b.channels[channel] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.channels[channel]) == 0 {
		delete(b.channels, channel)
	}
}

// Emit invokes every handler currently registered on the channel, in
// registration order. Handlers on other channels are never invoked.
func (b *Bus) Emit(channel string, ev protocol.Event) {
	b.mu.RLock()
	subs := make([]subscription, len(b.channels[channel]))
	copy(subs, b.channels[channel])
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.handler(ev)
	}
}

// Clear removes all handlers for all channels. Used on full teardown.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.channels = make(map[string][]subscription)
	b.mu.Unlock()
}

// HandlerCount returns the number of handlers registered on a channel.
func (b *Bus) HandlerCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.channels[channel])
}
