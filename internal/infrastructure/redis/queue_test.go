package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffPolicy_Delay(t *testing.T) {
	b := BackoffPolicy{Initial: 2 * time.Second, Max: time.Minute, Multiplier: 2.0}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 32 * time.Second},
		{6, time.Minute}, // capped
		{10, time.Minute},
		{0, 2 * time.Second}, // clamped to first attempt
		{-3, 2 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, b.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestBackoffPolicy_Delay_CapBelowInitial(t *testing.T) {
	b := BackoffPolicy{Initial: 10 * time.Second, Max: 5 * time.Second, Multiplier: 2.0}
	assert.Equal(t, 5*time.Second, b.Delay(1))
}

func TestJob_LastAttempt(t *testing.T) {
	j := &Job{Attempt: 1, MaxAttempts: 5}
	assert.False(t, j.LastAttempt())

	j.Attempt = 4
	assert.False(t, j.LastAttempt())

	j.Attempt = 5
	assert.True(t, j.LastAttempt())

	// Single-attempt jobs are always on their last delivery.
	one := &Job{Attempt: 1, MaxAttempts: 1}
	assert.True(t, one.LastAttempt())
}
