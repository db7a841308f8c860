package messages

import (
	"testing"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewFleetTransition_RoundTripsEvent(t *testing.T) {
	ev := models.TransitionEvent{
		Kind:         models.TransitionInbound,
		Registration: "F-GXLH",
		Flight:       "BGA121",
		Airport:      "EGNR",
		OccurredAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	m := NewFleetTransition(ev, "fr24")

	_, err := uuid.Parse(m.EventID)
	require.NoError(t, err)
	require.Equal(t, "aircraft_inbound", m.Kind)
	require.Equal(t, "fr24", m.Source)
	require.Equal(t, ev, m.Event())

	require.NotEqual(t, m.EventID, NewFleetTransition(ev, "fr24").EventID)
}
