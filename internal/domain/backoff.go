package domain

import (
	"math"
	"time"
)

// BackoffDelay computes backoff_base^attempts seconds as the delay before a
// FAILED job becomes eligible again, per spec.md's GLOSSARY definition of
// Backoff. attempts and base are both expected to be >= 1 by the time this
// is called (the Store never schedules backoff for attempts == 0).
func BackoffDelay(base, attempts int) time.Duration {
	if base < 1 {
		base = 1
	}
	if attempts < 0 {
		attempts = 0
	}
	seconds := math.Pow(float64(base), float64(attempts))
	return time.Duration(seconds) * time.Second
}
