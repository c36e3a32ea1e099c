package backoff

import (
	"testing"
	"time"
)

func TestDelay_Schedule(t *testing.T) {
	p := Policy{}

	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
	}
	for attempt, d := range want {
		if got := p.Delay(attempt); got != d {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, d)
		}
	}
}

func TestDelay_CapsAtMaxDelay(t *testing.T) {
	p := Policy{}

	for _, attempt := range []int{5, 6, 10, 100} {
		if got := p.Delay(attempt); got != MaxDelay {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, MaxDelay)
		}
	}
}

func TestDelay_NegativeAttempt(t *testing.T) {
	p := Policy{}
	if got := p.Delay(-1); got != 1*time.Second {
		t.Errorf("Delay(-1) = %v, want 1s", got)
	}
}

func TestExhausted_Unlimited(t *testing.T) {
	p := Policy{}
	for _, attempt := range []int{0, 5, 1000} {
		if p.Exhausted(attempt) {
			t.Errorf("Exhausted(%d) = true with no cap, want false", attempt)
		}
	}
}

func TestExhausted_Capped(t *testing.T) {
	p := Policy{MaxAttempts: 5}

	for attempt := 0; attempt < 5; attempt++ {
		if p.Exhausted(attempt) {
			t.Errorf("Exhausted(%d) = true, want false", attempt)
		}
	}
	if !p.Exhausted(5) {
		t.Error("Exhausted(5) = false, want true")
	}
	if !p.Exhausted(6) {
		t.Error("Exhausted(6) = false, want true")
	}
}
