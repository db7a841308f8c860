package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBackoff_Sequence(t *testing.T) {
	b := DefaultBackoff()
	require.Equal(t, time.Minute, b.Current())
	require.False(t, b.Engaged())

	want := []time.Duration{
		90 * time.Second,
		135 * time.Second,
		202500 * time.Millisecond,
		5 * time.Minute,
		5 * time.Minute,
	}
	for _, w := range want {
		require.Equal(t, w, b.Widen())
	}
	require.True(t, b.Engaged())

	b.Reset()
	require.Equal(t, time.Minute, b.Current())
	require.False(t, b.Engaged())
}

func TestNewBackoff_Defaults(t *testing.T) {
	b := NewBackoff(0, 0, 0)
	require.Equal(t, DefaultBackoffFloor, b.Current())
	require.Equal(t, 90*time.Second, b.Widen())

	b = NewBackoff(10*time.Minute, time.Minute, 2)
	require.Equal(t, 10*time.Minute, b.Current())
	require.Equal(t, 10*time.Minute, b.Widen(), "cap never sits below the floor")
}
