package memcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stepTimer struct{ now uint32 }

func (t *stepTimer) Now() uint32 { return t.now }

func TestCache_GetSet(t *testing.T) {
	c := New(0)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "fleet:states:opensky", []byte("payload"), time.Minute))
	b, ok, err := c.Get(ctx, "fleet:states:opensky")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("payload"), b)
	require.Equal(t, int64(1), c.EntryCount())
}

func TestCache_TTLRoundsUpToSeconds(t *testing.T) {
	timer := &stepTimer{now: 1000}
	c := newWithTimer(minSizeBytes, timer)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 1500*time.Millisecond))

	timer.now = 1001
	_, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)

	timer.now = 1002
	_, ok, _ = c.Get(ctx, "k")
	require.False(t, ok)
}

func TestCache_ZeroTTLKeeps(t *testing.T) {
	timer := &stepTimer{now: 1}
	c := newWithTimer(minSizeBytes, timer)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	timer.now = 1 << 20
	_, ok, _ := c.Get(ctx, "k")
	require.True(t, ok)
}
