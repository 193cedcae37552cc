package feed

import "time"

// RetryPolicy describes the reconnect delay schedule: start at Initial,
// multiply by Multiplier on each consecutive failure, never exceed Cap.
type RetryPolicy struct {
	Initial    time.Duration
	Multiplier float64
	Cap        time.Duration
}

// DefaultRetryPolicy is the feed reconnect schedule: 2s, 4s, 8s, 16s, 30s, 30s, ...
var DefaultRetryPolicy = RetryPolicy{
	Initial:    2 * time.Second,
	Multiplier: 2,
	Cap:        30 * time.Second,
}

// Backoff tracks the current delay for one connection's retry sequence.
// It is not safe for concurrent use; the connection manager owns it.
type Backoff struct {
	policy RetryPolicy
	next   time.Duration
}

func (p RetryPolicy) NewBackoff() *Backoff {
	return &Backoff{policy: p, next: p.Initial}
}

// Next returns the delay to wait before the upcoming attempt and advances
// the schedule.
func (b *Backoff) Next() time.Duration {
	d := b.next

	grown := time.Duration(float64(b.next) * b.policy.Multiplier)
	if grown > b.policy.Cap {
		grown = b.policy.Cap
	}
	b.next = grown

	return d
}

// Reset returns the schedule to the initial delay. Called after any
// successful connect.
func (b *Backoff) Reset() {
	b.next = b.policy.Initial
}
