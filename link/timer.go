package link

import (
	"sync/atomic"
	"time"
)

// deadline is the Go-idiomatic replacement for the source's SIGALRM-driven
// retransmission timer (see SPEC_FULL.md §4.3 / Design Notes in spec.md
// §9): a monotonically-checked expiry rather than a signal handler. The
// fields a signal handler would touch asynchronously are atomics so the
// type stays safe even if an endpoint were ever driven from more than one
// goroutine, without needing an explicit mutex or signal mask.
type deadline struct {
	armed   atomic.Bool
	expired atomic.Bool
	retries atomic.Int32
	at      atomic.Int64 // UnixNano
}

// arm schedules one future expiry, replacing any previous one.
func (d *deadline) arm(timeout time.Duration) {
	d.at.Store(time.Now().Add(timeout).UnixNano())
	d.expired.Store(false)
	d.armed.Store(true)
}

// poll reports whether the timer has just expired. It returns true at
// most once per arm call: the first poll after the deadline passes flips
// the expired flag and increments the retry counter, so a scan loop that
// calls poll once per iteration observes exactly one expiry per arm.
func (d *deadline) poll() bool {
	if !d.armed.Load() || d.expired.Load() {
		return false
	}
	if time.Now().UnixNano() < d.at.Load() {
		return false
	}
	d.expired.Store(true)
	d.retries.Add(1)
	return true
}

func (d *deadline) retryCount() int {
	return int(d.retries.Load())
}
