package canary

import "time"

// backoff is the confirmation-polling schedule as an explicit state
// machine: remaining checks and the wait before the next one. The first
// check happens after the configured interval; every retry doubles the
// previous wait. With the defaults (30s interval, 3 retries) the checks
// land after 30s, 60s, 120s and 240s.
type backoff struct {
	wait time.Duration
	left int
}

// newBackoff budgets one initial check plus retries additional ones.
func newBackoff(interval time.Duration, retries int) *backoff {
	return &backoff{wait: interval, left: retries + 1}
}

// Next returns the wait before the upcoming check, or false once the
// budget is exhausted.
func (b *backoff) Next() (time.Duration, bool) {
	if b.left <= 0 {
		return 0, false
	}
	b.left--

	wait := b.wait
	b.wait *= 2
	return wait, true
}
