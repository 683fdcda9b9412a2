package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowAndRefill(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(WithClock(func() time.Time { return now }))

	assert.True(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))

	// other keys have their own bucket
	assert.True(t, l.Allow("b", 2, 1))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))

	// refill never exceeds capacity
	now = now.Add(time.Hour)
	assert.True(t, l.Allow("a", 2, 1))
	assert.True(t, l.Allow("a", 2, 1))
	assert.False(t, l.Allow("a", 2, 1))
}

func TestLimiter_Sweep(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := New(WithClock(func() time.Time { return now }))

	l.Allow("old", 5, 1)
	now = now.Add(10 * time.Minute)
	l.Allow("fresh", 5, 1)

	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Equal(t, 1, l.Len())
}
