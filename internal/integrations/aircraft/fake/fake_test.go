package fake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/stretchr/testify/require"
)

func TestClient_DeterministicWithinSlot(t *testing.T) {
	f := New("EGNR")
	now := time.Date(2025, 5, 1, 10, 1, 0, 0, time.UTC)
	f.now = func() time.Time { return now }

	a, err := f.GetStates(context.Background(), models.DefaultRoster())
	require.NoError(t, err)
	now = now.Add(5 * time.Minute)
	b, err := f.GetStates(context.Background(), models.DefaultRoster())
	require.NoError(t, err)

	require.Equal(t, len(a), len(b))
	for i := range a {
		require.Equal(t, a[i].Registration, b[i].Registration)
		require.Equal(t, a[i].Flight, b[i].Flight)
		require.Equal(t, Name, a[i].Source)
	}
	require.Equal(t, 2, f.Calls())
}

func TestClient_ScriptReplaysAndRepeatsLast(t *testing.T) {
	f := NewScripted(
		[]models.AircraftState{{Registration: "A"}},
		[]models.AircraftState{{Registration: "A"}, {Registration: "B"}},
	)
	ctx := context.Background()

	s1, _ := f.GetStates(ctx, nil)
	s2, _ := f.GetStates(ctx, nil)
	s3, _ := f.GetStates(ctx, nil)
	require.Len(t, s1, 1)
	require.Len(t, s2, 2)
	require.Len(t, s3, 2)
}

func TestClient_WithErrors(t *testing.T) {
	boom := errors.New("boom")
	f := NewScripted([]models.AircraftState{{Registration: "A"}}).WithErrors(boom, nil)

	_, err := f.GetStates(context.Background(), nil)
	require.ErrorIs(t, err, boom)
	s, err := f.GetStates(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, s, 1)
}

func TestClient_HistoricMatchesLivePicture(t *testing.T) {
	f := New("EGNR")
	at := time.Date(2025, 5, 1, 10, 1, 0, 0, time.UTC)
	f.now = func() time.Time { return at }

	live, err := f.GetStates(context.Background(), models.DefaultRoster())
	require.NoError(t, err)
	for _, e := range models.DefaultRoster() {
		past, err := f.GetHistoricPositions(context.Background(), e.Registration, at)
		require.NoError(t, err)
		want, airborne := models.FleetSnapshot{States: live}.Find(e.Registration)
		if !airborne {
			require.Empty(t, past)
			continue
		}
		require.Len(t, past, 1)
		require.Equal(t, want.Flight, past[0].Flight)
		require.Equal(t, want.Lat, past[0].Lat)
	}

	scripted, err := NewScripted().GetHistoricPositions(context.Background(), "F-GXLG", at)
	require.NoError(t, err)
	require.Empty(t, scripted)
}
