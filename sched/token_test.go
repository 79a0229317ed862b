package sched

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockTable(t *testing.T) {
	lt := NewLockTable()
	require.False(t, lt.IsAnyLocked())
	require.Nil(t, lt.Current())

	tok1 := lt.Acquire(SearchLock)
	require.True(t, tok1.Held())
	require.NotZero(t, tok1.ID())
	require.True(t, lt.IsLocked(SearchLock))
	require.False(t, lt.IsLocked(RotateLock))

	require.True(t, tok1.Enter(RotateLock))
	require.Equal(t, RotateLock, tok1.Category())
	require.True(t, lt.IsLocked(RotateLock))

	tok2 := lt.Acquire(TraversalLock)
	require.Greater(t, tok2.ID(), tok1.ID())
	require.False(t, tok1.Held())
	require.False(t, tok1.Enter(SearchLock))
	select {
	case <-tok1.Done():
	default:
		require.Fail(t, "released token must be done")
	}
	require.Same(t, tok2, lt.Current())

	lt.clear(tok1)
	require.Same(t, tok2, lt.Current())
	lt.CancelAll()
	require.False(t, tok2.Held())
	require.False(t, lt.IsAnyLocked())
	// Releasing twice is fine.
	tok2.Release()

	outcome, err := tok2.Result()
	require.Equal(t, Pending, outcome)
	require.NoError(t, err)
	tok2.finish(Cancelled, nil)
	outcome, _ = tok2.Result()
	require.Equal(t, Cancelled, outcome)
}

func TestEnumStrings(t *testing.T) {
	require.Equal(t, "rotate", RotateLock.String())
	require.Equal(t, "unknown", Category(42).String())
	require.Equal(t, "done", Done.String())
	require.Equal(t, "cancelled", Cancelled.String())
	require.Equal(t, "failed", Failed.String())
	require.Equal(t, "pending", Pending.String())
}
