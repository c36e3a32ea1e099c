package bus

import (
	"testing"

	"github.com/jnarowski/agentcmd-sub007/internal/protocol"
)

func TestEmit_OnlyMatchingChannel(t *testing.T) {
	b := New()

	var sessionCalls, shellCalls int
	b.On("session-1", func(protocol.Event) { sessionCalls++ })
	b.On("shell-1", func(protocol.Event) { shellCalls++ })

	b.Emit("session-1", protocol.Event{Type: "message-delta"})
	b.Emit("session-1", protocol.Event{Type: "message-complete"})

	if sessionCalls != 2 {
		t.Errorf("session handler called %d times, want 2", sessionCalls)
	}
	if shellCalls != 0 {
		t.Errorf("shell handler called %d times, want 0", shellCalls)
	}
}

func TestEmit_RegistrationOrder(t *testing.T) {
	b := New()

	var order []int
	b.On("ch", func(protocol.Event) { order = append(order, 1) })
	b.On("ch", func(protocol.Event) { order = append(order, 2) })
	b.On("ch", func(protocol.Event) { order = append(order, 3) })

	b.Emit("ch", protocol.Event{Type: "x"})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("handlers ran in order %v, want [1 2 3]", order)
	}
}

func TestOff_RemovesOnlyThatHandler(t *testing.T) {
	b := New()

	var first, second int
	id := b.On("ch", func(protocol.Event) { first++ })
	b.On("ch", func(protocol.Event) { second++ })

	b.Off("ch", id)
	b.Emit("ch", protocol.Event{Type: "x"})

	if first != 0 {
		t.Errorf("removed handler called %d times, want 0", first)
	}
	if second != 1 {
		t.Errorf("remaining handler called %d times, want 1", second)
	}
	if got := b.HandlerCount("ch"); got != 1 {
		t.Errorf("HandlerCount = %d, want 1", got)
	}
}

func TestOff_UnknownIDIgnored(t *testing.T) {
	b := New()

	var calls int
	id := b.On("ch", func(protocol.Event) { calls++ })

	// Removing from the wrong channel does nothing.
	b.Off("other", id)
	b.Emit("ch", protocol.Event{Type: "x"})

	if calls != 1 {
		t.Errorf("handler called %d times, want 1", calls)
	}
}

func TestClear(t *testing.T) {
	b := New()

	var calls int
	b.On("a", func(protocol.Event) { calls++ })
	b.On("b", func(protocol.Event) { calls++ })

	b.Clear()
	b.Emit("a", protocol.Event{Type: "x"})
	b.Emit("b", protocol.Event{Type: "x"})

	if calls != 0 {
		t.Errorf("handlers called %d times after Clear, want 0", calls)
	}
}

func TestOn_DuringEmitDoesNotAffectCurrentDispatch(t *testing.T) {
	b := New()

	var lateCalls int
	b.On("ch", func(protocol.Event) {
		b.On("ch", func(protocol.Event) { lateCalls++ })
	})

	b.Emit("ch", protocol.Event{Type: "x"})
	if lateCalls != 0 {
		t.Errorf("handler registered mid-emit ran %d times in same dispatch, want 0", lateCalls)
	}

	b.Emit("ch", protocol.Event{Type: "x"})
	if lateCalls != 1 {
		t.Errorf("late handler called %d times on next emit, want 1", lateCalls)
	}
}
