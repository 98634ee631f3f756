package retry

import "time"

// maxShift keeps base << attempt from overflowing.
const maxShift = 30

// ExponentialBackoff returns base * 2^attempt, capped at limit when limit > 0.
func ExponentialBackoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > maxShift {
		attempt = maxShift
	}
	d := base * (1 << attempt)
	if limit > 0 && (d > limit || d <= 0) {
		return limit
	}
	return d
}
