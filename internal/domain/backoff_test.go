package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	cases := []struct {
		base, attempts int
		want           time.Duration
	}{
		{base: 2, attempts: 1, want: 2 * time.Second},
		{base: 2, attempts: 3, want: 8 * time.Second},
		{base: 3, attempts: 2, want: 9 * time.Second},
		{base: 0, attempts: 2, want: 1 * time.Second},  // base clamped to 1
		{base: 2, attempts: -1, want: 1 * time.Second}, // attempts clamped to 0
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BackoffDelay(c.base, c.attempts))
	}
}
