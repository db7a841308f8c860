package history

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/BearBump/FleetWatch/internal/cache/memcache"
	"github.com/BearBump/FleetWatch/internal/integrations/aircraft"
	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/stretchr/testify/require"
)

type call struct {
	reg string
	at  time.Time
}

type scriptedHistory struct {
	mu    sync.Mutex
	calls []call
	errs  map[int64]error
}

func (p *scriptedHistory) Name() string { return "fr24" }

func (p *scriptedHistory) GetHistoricPositions(ctx context.Context, reg string, at time.Time) ([]models.AircraftState, error) {
	p.mu.Lock()
	p.calls = append(p.calls, call{reg: reg, at: at})
	p.mu.Unlock()
	if err := p.errs[at.Unix()]; err != nil {
		return nil, err
	}
	t := at
	return []models.AircraftState{{Registration: reg, Lat: 53, Lon: -3, PositionAt: &t}}, nil
}

func (p *scriptedHistory) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func newService(p Provider) (*Service, *time.Time) {
	now := time.Date(2025, 10, 10, 12, 7, 42, 0, time.UTC)
	roster := models.Roster{{Registration: "F-GXLG", Number: 1}, {Registration: "f-gxlh", Number: 2}}
	s := New(p, memcache.New(0), roster, Config{Spacing: time.Millisecond}).
		WithClock(func() time.Time { return now })
	return s, &now
}

func TestService_Timestamps(t *testing.T) {
	s, _ := newService(&scriptedHistory{})
	ts := s.Timestamps(3)
	require.Len(t, ts, 5)

	end := time.Date(2025, 10, 10, 12, 5, 0, 0, time.UTC)
	step := 36 * time.Minute
	for i, at := range ts {
		require.Equal(t, end.Add(-time.Duration(i+1)*step), at)
		require.Zero(t, at.Unix()%300, "timestamps sit on 5-minute slots")
	}
}

func TestService_LookupCachesPerRegistrationAndSlot(t *testing.T) {
	p := &scriptedHistory{}
	s, now := newService(p)

	res, err := s.Lookup(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, DefaultHours, res.Hours)
	require.Equal(t, "fr24", res.Source)
	require.Len(t, res.Positions, 2)
	require.Len(t, res.Positions["F-GXLG"], 5)
	require.Len(t, res.Positions["F-GXLH"], 5)
	require.Equal(t, 10, p.count())
	require.Equal(t, "F-GXLH", p.calls[5].reg)

	// Same slot: served from cache.
	*now = now.Add(time.Minute)
	again, err := s.Lookup(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, 10, p.count())
	require.Equal(t, res.Timestamps, again.Timestamps)
	require.Len(t, again.Positions["F-GXLG"], 5)
}

func TestService_RateLimitedPointIsEmptyAndNotCached(t *testing.T) {
	p := &scriptedHistory{errs: map[int64]error{}}
	s, _ := newService(p)
	ts := s.Timestamps(3)
	p.errs[ts[0].Unix()] = aircraft.ErrRateLimited
	p.errs[ts[1].Unix()] = &aircraft.StatusError{Source: "fr24", StatusCode: 502}

	res, err := s.Lookup(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, res.Positions["F-GXLG"], 3)
	require.Equal(t, 10, p.count())

	p.errs = nil
	res, err = s.Lookup(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, res.Positions["F-GXLG"], 5)
	require.Equal(t, 14, p.count(), "only the failed points are refetched")
}

func TestService_BadWindow(t *testing.T) {
	s, _ := newService(&scriptedHistory{})
	for _, h := range []int{-1, 25} {
		_, err := s.Lookup(context.Background(), h)
		require.ErrorIs(t, err, ErrBadWindow)
	}
}

func TestService_CanceledContext(t *testing.T) {
	p := &scriptedHistory{}
	s, _ := newService(p)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Lookup(ctx, 3)
	require.Error(t, err)
	require.Zero(t, p.count())
}
