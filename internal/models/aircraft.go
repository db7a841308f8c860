package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// AircraftState is one upstream observation of one tail, normalized across providers.
type AircraftState struct {
	Registration string `json:"registration"`
	Hex          string `json:"hex,omitempty"`
	Callsign     string `json:"callsign,omitempty"`
	Flight       string `json:"flight,omitempty"`

	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	AltitudeFt    float64 `json:"altitudeFt"`
	GroundSpeedKt float64 `json:"groundSpeedKt"`
	Heading       float64 `json:"heading"`
	OnGround      bool    `json:"onGround"`

	AircraftType string `json:"aircraftType,omitempty"`

	OriginICAO      string `json:"originIcao,omitempty"`
	OriginIATA      string `json:"originIata,omitempty"`
	DestinationICAO string `json:"destinationIcao,omitempty"`
	DestinationIATA string `json:"destinationIata,omitempty"`

	Source     string     `json:"source"`
	PositionAt *time.Time `json:"positionAt,omitempty"`
}

// FleetSnapshot holds at most one state per registration.
type FleetSnapshot struct {
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Stale     bool            `json:"stale"`
	States    []AircraftState `json:"aircraft"`
}

func (s FleetSnapshot) Find(registration string) (AircraftState, bool) {
	for _, st := range s.States {
		if st.Registration == registration {
			return st, true
		}
	}
	return AircraftState{}, false
}

type RosterEntry struct {
	Registration string `json:"registration" yaml:"registration" validate:"required"`
	Hex          string `json:"hex,omitempty" yaml:"hex"`
	Number       int    `json:"number" yaml:"number"`
}

// Label is the public fleet name, e.g. BelugaXL-3.
func (e RosterEntry) Label() string {
	if e.Number <= 0 {
		return e.Registration
	}
	return fmt.Sprintf("BelugaXL-%d", e.Number)
}

type Roster []RosterEntry

// DefaultRoster is the Beluga XL fleet; numbers follow registration order.
func DefaultRoster() Roster {
	regs := []string{"F-GXLG", "F-GXLH", "F-GXLI", "F-GXLJ", "F-GXLN", "F-GXLO"}
	out := make(Roster, 0, len(regs))
	for i, r := range regs {
		out = append(out, RosterEntry{Registration: r, Number: i + 1})
	}
	return out
}

func NormalizeRegistration(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func NormalizeHex(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func (r Roster) Registrations() []string {
	out := make([]string, 0, len(r))
	for _, e := range r {
		out = append(out, NormalizeRegistration(e.Registration))
	}
	return out
}

// Hexes returns the known transponder codes; entries without one are skipped.
func (r Roster) Hexes() []string {
	out := make([]string, 0, len(r))
	for _, e := range r {
		if h := NormalizeHex(e.Hex); h != "" {
			out = append(out, h)
		}
	}
	return out
}

func (r Roster) ByRegistration(reg string) (RosterEntry, bool) {
	reg = NormalizeRegistration(reg)
	if reg == "" {
		return RosterEntry{}, false
	}
	for _, e := range r {
		if NormalizeRegistration(e.Registration) == reg {
			return e, true
		}
	}
	return RosterEntry{}, false
}

func (r Roster) ByHex(hex string) (RosterEntry, bool) {
	hex = NormalizeHex(hex)
	if hex == "" {
		return RosterEntry{}, false
	}
	for _, e := range r {
		if NormalizeHex(e.Hex) == hex {
			return e, true
		}
	}
	return RosterEntry{}, false
}

// Resolve matches a state to a roster entry by registration first, then hex.
func (r Roster) Resolve(st AircraftState) (RosterEntry, bool) {
	if e, ok := r.ByRegistration(st.Registration); ok {
		return e, true
	}
	return r.ByHex(st.Hex)
}

const earthRadiusKm = 6371.0

// DistanceKm is the great-circle distance between two points.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
