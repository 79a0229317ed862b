package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoffRetry(t *testing.T) {
	require.Zero(t, NoRetry().Next())
	require.Zero(t, LimitedRetry(0, 5).Next())

	limited := LimitedRetry(20*time.Millisecond, 3)
	for range 3 {
		require.Equal(t, 20*time.Millisecond, limited.Next())
	}
	require.Zero(t, limited.Next())

	exBackoff := ExponentialBackoffRetry(5, 10*time.Millisecond, 40*time.Millisecond, 2.0, 0)
	expected := []time.Duration{10, 20, 40, 40, 40, 0}
	for i, d := range expected {
		require.Equal(t, d*time.Millisecond, exBackoff.Next(), "attempt %d", i)
	}

	unbounded := ExponentialBackoffRetry(3, time.Millisecond, 0, 10, 0)
	require.Equal(t, time.Millisecond, unbounded.Next())
	require.Equal(t, 10*time.Millisecond, unbounded.Next())
	require.Equal(t, 100*time.Millisecond, unbounded.Next())
	require.Zero(t, unbounded.Next())

	jittered := DefaultExponentialBackoffRetry()
	for range 3 {
		d := jittered.Next()
		require.GreaterOrEqual(t, d, 10*time.Millisecond)
		require.LessOrEqual(t, d, 220*time.Millisecond)
	}
	require.Zero(t, jittered.Next())
}
