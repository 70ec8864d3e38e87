package retry

import "time"

// Policy is the retry budget shared by node runners and the workflow loop.
// MaxRetries counts retries after the initial attempt, so a policy allows
// MaxRetries+1 attempts in total. The delay between attempts is fixed.
type Policy struct {
	MaxRetries int
	Delay      time.Duration
}

// Attempts returns the total number of attempts the policy allows.
func (p Policy) Attempts() int {
	if p.MaxRetries < 0 {
		return 1
	}
	return p.MaxRetries + 1
}

// ShouldRetry reports whether another attempt remains after attemptsDone
// attempts have finished.
func (p Policy) ShouldRetry(attemptsDone int) bool {
	return attemptsDone < p.Attempts()
}

// Wait blocks for the configured delay. A zero delay returns immediately.
func (p Policy) Wait() {
	if p.Delay > 0 {
		time.Sleep(p.Delay)
	}
}
