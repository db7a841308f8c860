package differ

import (
	"testing"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/stretchr/testify/require"
)

func snap(states ...models.AircraftState) models.FleetSnapshot {
	return models.FleetSnapshot{Source: "test", States: states}
}

func active(reg string) models.AircraftState {
	return models.AircraftState{Registration: reg, Flight: "F" + reg}
}

func inbound(reg, dest string) models.AircraftState {
	return models.AircraftState{Registration: reg, Flight: "F" + reg, DestinationICAO: dest}
}

func kinds(evs []models.TransitionEvent) []string {
	out := make([]string, 0, len(evs))
	for _, e := range evs {
		out = append(out, string(e.Kind)+":"+e.Registration)
	}
	return out
}

func TestDiff_Scenario(t *testing.T) {
	polls := []struct {
		snap models.FleetSnapshot
		want []string
	}{
		{snap(active("A")), []string{"aircraft_became_active:A"}},
		{snap(active("A"), inbound("B", "EGNR")), []string{"aircraft_became_active:B", "aircraft_inbound:B"}},
		{snap(active("A"), inbound("B", "EGNR")), []string{}},
		{snap(active("A")), []string{}},
		{snap(active("A"), inbound("B", "EGNR")), []string{"aircraft_became_active:B", "aircraft_inbound:B"}},
	}

	prevA, prevI := Set{}, Set{}
	for i, p := range polls {
		res := Diff(p.snap, prevA, prevI, "EGNR", time.Time{})
		require.Equal(t, p.want, kinds(res.Events), "poll %d", i+1)
		if i == 3 {
			require.False(t, res.NextInbound.Has("B"), "inbound set cleared when B disappears")
		}
		prevA, prevI = res.NextActive, res.NextInbound
	}
}

func TestDiff_EdgeTriggeredActive(t *testing.T) {
	presence := []bool{true, true, true, false, true}
	prevA, prevI := Set{}, Set{}
	fired := 0
	for _, present := range presence {
		s := snap()
		if present {
			s = snap(active("F-GXLG"))
		}
		res := Diff(s, prevA, prevI, "EGNR", time.Time{})
		fired += len(res.Events)
		prevA, prevI = res.NextActive, res.NextInbound
	}
	require.Equal(t, 2, fired)
}

func TestDiff_InboundIsExactMatch(t *testing.T) {
	res := Diff(snap(inbound("A", "egnr"), inbound("B", "EGNR "), inbound("C", "EGCC")), Set{}, Set{}, "EGNR", time.Time{})
	require.Empty(t, res.NextInbound)
	require.Len(t, res.Events, 3)
	for _, e := range res.Events {
		require.Equal(t, models.TransitionBecameActive, e.Kind)
	}
}

func TestDiff_InboundAfterAlreadyActive(t *testing.T) {
	res := Diff(snap(inbound("A", "EGNR")), NewSet("A"), Set{}, "EGNR", time.Time{})
	require.Equal(t, []string{"aircraft_inbound:A"}, kinds(res.Events))
	require.Equal(t, "EGNR", res.Events[0].Airport)
	require.Equal(t, "FA", res.Events[0].Flight)
}

func TestDiff_InboundClearsWhenDestinationChanges(t *testing.T) {
	res := Diff(snap(inbound("A", "LFBO")), NewSet("A"), NewSet("A"), "EGNR", time.Time{})
	require.Empty(t, res.Events)
	require.False(t, res.NextInbound.Has("A"))
	require.True(t, res.NextActive.Has("A"))
}

func TestDiff_DuplicateRegistrationCountsOnce(t *testing.T) {
	res := Diff(snap(active("A"), active("A")), Set{}, Set{}, "EGNR", time.Time{})
	require.Len(t, res.Events, 1)
}

func TestDiff_EmptyWatchedNeverInbound(t *testing.T) {
	res := Diff(snap(inbound("A", "")), Set{}, Set{}, "", time.Time{})
	require.Equal(t, []string{"aircraft_became_active:A"}, kinds(res.Events))
	require.Empty(t, res.NextInbound)
}
