package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBurstThenDeny(t *testing.T) {
	l := New(3, time.Second)

	for i := 0; i < 3; i++ {
		require.True(t, l.Allow(), "token %d should be available", i)
	}
	assert.False(t, l.Allow(), "bucket exhausted")
}

func TestRefillAfterInterval(t *testing.T) {
	l := New(1, 20*time.Millisecond)

	require.True(t, l.Allow())
	require.False(t, l.Allow())

	time.Sleep(50 * time.Millisecond)
	assert.True(t, l.Allow(), "tokens should refill after the interval")
}

func TestRefillCapsAtBurst(t *testing.T) {
	l := New(2, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)

	require.True(t, l.Allow())
	require.True(t, l.Allow())
	assert.False(t, l.Allow(), "refill must not exceed the burst size")
}
