package models

import "time"

type TransitionKind string

const (
	TransitionBecameActive TransitionKind = "aircraft_became_active"
	TransitionInbound      TransitionKind = "aircraft_inbound"
)

type TransitionEvent struct {
	Kind         TransitionKind `json:"kind"`
	Registration string         `json:"registration"`
	Flight       string         `json:"flight,omitempty"`
	// Airport is set for inbound events only.
	Airport    string    `json:"airport,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

const (
	DefaultNotificationTitle = "Beluga XL Fleet Update"
	DefaultNotificationBody  = "A new fleet event has occurred."
	DefaultNotificationURL   = "/"
)

// Notification is the Web Push payload shape.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// WithDefaults fills empty fields with what the service worker would show anyway.
func (n Notification) WithDefaults() Notification {
	if n.Title == "" {
		n.Title = DefaultNotificationTitle
	}
	if n.Body == "" {
		n.Body = DefaultNotificationBody
	}
	if n.URL == "" {
		n.URL = DefaultNotificationURL
	}
	return n
}

// FleetState is the differ's memory between cycles.
type FleetState struct {
	Active    []string  `json:"active"`
	Inbound   []string  `json:"inbound"`
	UpdatedAt time.Time `json:"updatedAt"`
}
