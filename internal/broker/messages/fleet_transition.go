package messages

import (
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/google/uuid"
)

// FleetTransition is the broker form of models.TransitionEvent. The message key is the registration.
type FleetTransition struct {
	EventID      string    `json:"event_id"`
	Kind         string    `json:"kind"`
	Registration string    `json:"registration"`
	Flight       string    `json:"flight,omitempty"`
	Airport      string    `json:"airport,omitempty"`
	Source       string    `json:"source,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewFleetTransition(ev models.TransitionEvent, source string) FleetTransition {
	return FleetTransition{
		EventID:      uuid.NewString(),
		Kind:         string(ev.Kind),
		Registration: ev.Registration,
		Flight:       ev.Flight,
		Airport:      ev.Airport,
		Source:       source,
		OccurredAt:   ev.OccurredAt.UTC(),
	}
}

func (m FleetTransition) Event() models.TransitionEvent {
	return models.TransitionEvent{
		Kind:         models.TransitionKind(m.Kind),
		Registration: m.Registration,
		Flight:       m.Flight,
		Airport:      m.Airport,
		OccurredAt:   m.OccurredAt,
	}
}
