package backoff

import "time"

// schedule is the per-attempt delay for the first attempts.
var schedule = []time.Duration{
	1 * time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
	16 * time.Second,
}

// MaxDelay caps the delay once the schedule is exhausted.
const MaxDelay = 30 * time.Second

// Policy decides how long to wait before each reconnection attempt.
//
// MaxAttempts == 0 means retry forever with the delay capped at MaxDelay.
// A positive MaxAttempts gives up permanently once reached; the caller is
// expected to surface a terminal error instead of reconnecting.
type Policy struct {
	MaxAttempts int
}

// Delay returns the wait before the given attempt. Attempt 0 is the first
// retry after a failure.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt < len(schedule) {
		return schedule[attempt]
	}
	return MaxDelay
}

// Exhausted reports whether the attempt cap has been reached. Always false
// when MaxAttempts is unset.
func (p Policy) Exhausted(attempt int) bool {
	return p.MaxAttempts > 0 && attempt >= p.MaxAttempts
}
