// ABOUTME: Bounded exponential backoff for reconnection attempts.
// ABOUTME: Delay is a pure function of the attempt count: min(base * 2^attempt, cap).

package connector

import "time"

// backoffDelay returns the delay before reconnect attempt number attempt
// (zero-based). The delay doubles per attempt and is capped at max.
func backoffDelay(attempt int, base, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
