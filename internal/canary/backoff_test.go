package canary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func drain(b *backoff) []time.Duration {
	var waits []time.Duration
	for {
		w, ok := b.Next()
		if !ok {
			return waits
		}
		waits = append(waits, w)
	}
}

func TestBackoffDoublesEachRetry(t *testing.T) {
	waits := drain(newBackoff(30*time.Second, 3))

	assert.Equal(t, []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
	}, waits)
}

func TestBackoffZeroRetriesStillChecksOnce(t *testing.T) {
	waits := drain(newBackoff(10*time.Second, 0))

	assert.Equal(t, []time.Duration{10 * time.Second}, waits)
}
