package differ

import (
	"sort"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
)

// Set is a set of registrations.
type Set map[string]struct{}

func NewSet(regs ...string) Set {
	s := make(Set, len(regs))
	for _, r := range regs {
		s[r] = struct{}{}
	}
	return s
}

func (s Set) Has(reg string) bool {
	_, ok := s[reg]
	return ok
}

// Sorted returns the members in a stable order for persistence and logs.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

type Result struct {
	Events      []models.TransitionEvent
	NextActive  Set
	NextInbound Set
}

// Diff compares one snapshot with the sets from the previous cycle. The next sets are
// rebuilt from the snapshot alone, so an event fires again only after its condition
// has been false for at least one cycle. Destination matching is exact.
func Diff(current models.FleetSnapshot, prevActive, prevInbound Set, watchedICAO string, at time.Time) Result {
	res := Result{
		Events:      []models.TransitionEvent{},
		NextActive:  make(Set, len(current.States)),
		NextInbound: make(Set),
	}
	for _, st := range current.States {
		reg := st.Registration
		if reg == "" || res.NextActive.Has(reg) {
			continue
		}
		res.NextActive[reg] = struct{}{}
		if !prevActive.Has(reg) {
			res.Events = append(res.Events, models.TransitionEvent{
				Kind:         models.TransitionBecameActive,
				Registration: reg,
				Flight:       st.Flight,
				OccurredAt:   at,
			})
		}

		if watchedICAO == "" || st.DestinationICAO != watchedICAO {
			continue
		}
		res.NextInbound[reg] = struct{}{}
		if !prevInbound.Has(reg) {
			res.Events = append(res.Events, models.TransitionEvent{
				Kind:         models.TransitionInbound,
				Registration: reg,
				Flight:       st.Flight,
				Airport:      watchedICAO,
				OccurredAt:   at,
			})
		}
	}
	return res
}
