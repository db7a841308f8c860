package fleet_api

import (
	"math"
	"net/http"

	"github.com/BearBump/FleetWatch/internal/models"
)

type ClosestAircraft struct {
	models.AircraftState
	DistanceKm float64 `json:"distanceKm"`
}

type FleetResponse struct {
	models.FleetSnapshot
	WatchedAirport string                `json:"watchedAirport"`
	Closest        *ClosestAircraft      `json:"closest"`
	FlyingTo       *models.AircraftState `json:"flyingTo"`
}

// Proximity finds the aircraft nearest the airport and the first one bound for it.
func Proximity(snap models.FleetSnapshot, ap Airport) FleetResponse {
	out := FleetResponse{FleetSnapshot: snap, WatchedAirport: ap.ICAO}
	if out.States == nil {
		out.States = []models.AircraftState{}
	}

	best := math.Inf(1)
	for i := range snap.States {
		st := snap.States[i]
		if st.Lat == 0 && st.Lon == 0 {
			continue
		}
		if d := models.DistanceKm(st.Lat, st.Lon, ap.Lat, ap.Lon); d < best {
			best = d
			out.Closest = &ClosestAircraft{AircraftState: st, DistanceKm: math.Round(d*10) / 10}
		}
	}
	for i := range snap.States {
		if snap.States[i].DestinationICAO != "" && snap.States[i].DestinationICAO == ap.ICAO {
			st := snap.States[i]
			out.FlyingTo = &st
			break
		}
	}
	return out
}

func (h *Handler) getFleet(w http.ResponseWriter, r *http.Request) {
	var snap models.FleetSnapshot
	if h.d.Fleet != nil {
		snap, _ = h.d.Fleet.Latest()
	}
	writeJSON(w, http.StatusOK, Proximity(snap, h.d.Airport))
}
