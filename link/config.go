package link

import "time"

// Config holds the tunables spec.md §4.3.5 leaves to the implementation:
// T_TIMEOUT and MAX_RETRIES, plus a PollInterval governing how long the
// scan loop waits on the port between non-blocking reads.
type Config struct {
	// Timeout is T_TIMEOUT: how long to wait for a response before
	// retransmitting.
	Timeout time.Duration
	// MaxRetries is MAX_RETRIES: consecutive timer expiries tolerated
	// before an operation aborts with a TIMEOUT_ERROR.
	MaxRetries int
	// PollInterval bounds how long a single WaitReadable call blocks
	// while no byte is queued, so an expired deadline or a cancelled
	// context is never more than one PollInterval away from being
	// noticed.
	PollInterval time.Duration
	// DrainDelay is how long a transmitter that just sent the final UA
	// of a teardown waits before closing the port, per spec.md §4.3.4
	// ("TX waits a short interval to let it drain, then closes").
	DrainDelay time.Duration
}

// DefaultConfig returns the values named in spec.md §4.3.5.
func DefaultConfig() Config {
	return Config{
		Timeout:      3 * time.Second,
		MaxRetries:   3,
		PollInterval: 20 * time.Millisecond,
		DrainDelay:   100 * time.Millisecond,
	}
}
