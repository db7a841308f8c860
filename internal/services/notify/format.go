package notify

import (
	"fmt"

	"github.com/BearBump/FleetWatch/internal/models"
)

type Formatter struct {
	roster   models.Roster
	clickURL string
}

func NewFormatter(roster models.Roster, clickURL string) *Formatter {
	if clickURL == "" {
		clickURL = models.DefaultNotificationURL
	}
	return &Formatter{roster: roster, clickURL: clickURL}
}

func (f *Formatter) label(reg string) string {
	if e, ok := f.roster.ByRegistration(reg); ok {
		return e.Label()
	}
	return reg
}

func (f *Formatter) Format(ev models.TransitionEvent) models.Notification {
	name := f.label(ev.Registration)
	n := models.Notification{URL: f.clickURL}

	switch ev.Kind {
	case models.TransitionBecameActive:
		n.Title = fmt.Sprintf("%s is active", ev.Registration)
		if ev.Flight != "" {
			n.Body = fmt.Sprintf("%s is flying as %s.", name, ev.Flight)
		} else {
			n.Body = fmt.Sprintf("%s is flying.", name)
		}
	case models.TransitionInbound:
		n.Title = fmt.Sprintf("%s inbound to %s", ev.Registration, ev.Airport)
		if ev.Flight != "" {
			n.Body = fmt.Sprintf("%s is heading to %s as %s.", name, ev.Airport, ev.Flight)
		} else {
			n.Body = fmt.Sprintf("%s is heading to %s.", name, ev.Airport)
		}
	}
	return n.WithDefaults()
}
