// ABOUTME: Tests for the reconnect backoff delay function.
// ABOUTME: Pure function of attempt count, so no wall-clock waiting is needed.

package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay_DoublesPerAttempt(t *testing.T) {
	base := time.Second
	max := 30 * time.Second

	assert.Equal(t, 1*time.Second, backoffDelay(0, base, max))
	assert.Equal(t, 2*time.Second, backoffDelay(1, base, max))
	assert.Equal(t, 4*time.Second, backoffDelay(2, base, max))
	assert.Equal(t, 8*time.Second, backoffDelay(3, base, max))
	assert.Equal(t, 16*time.Second, backoffDelay(4, base, max))
}

func TestBackoffDelay_CappedAtMax(t *testing.T) {
	base := time.Second
	max := 30 * time.Second

	assert.Equal(t, max, backoffDelay(5, base, max))
	assert.Equal(t, max, backoffDelay(6, base, max))
	assert.Equal(t, max, backoffDelay(50, base, max))
}

func TestBackoffDelay_NonDecreasing(t *testing.T) {
	base := 250 * time.Millisecond
	max := 10 * time.Second

	prev := time.Duration(0)
	for attempt := 0; attempt < 40; attempt++ {
		d := backoffDelay(attempt, base, max)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
}

func TestBackoffDelay_ZeroBase(t *testing.T) {
	assert.Equal(t, time.Duration(0), backoffDelay(3, 0, time.Minute))
}

func TestBackoffDelay_BaseAboveCap(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(0, time.Minute, time.Second))
}
