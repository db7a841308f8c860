package fetcher

import (
	"github.com/BearBump/FleetWatch/internal/models"
)

// FilterToRoster drops aircraft the roster does not declare, fills the registration
// from the hex code when a provider omits it, and keeps the first state per registration.
func FilterToRoster(states []models.AircraftState, roster models.Roster) []models.AircraftState {
	out := make([]models.AircraftState, 0, len(roster))
	seen := make(map[string]struct{}, len(roster))
	for _, st := range states {
		entry, ok := roster.Resolve(st)
		if !ok {
			continue
		}
		st.Registration = models.NormalizeRegistration(entry.Registration)
		if st.Hex == "" {
			st.Hex = models.NormalizeHex(entry.Hex)
		}
		if _, dup := seen[st.Registration]; dup {
			continue
		}
		seen[st.Registration] = struct{}{}
		out = append(out, st)
	}
	return out
}
