package models

import (
	"strings"
	"time"
)

const (
	MovementArrivals   = "Arrivals"
	MovementDepartures = "Departures"
)

// ScheduledFlightRecord is one row of the public schedule page.
type ScheduledFlightRecord struct {
	ScrapedAt time.Time `json:"scrapedAt"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	Status    string    `json:"status"`
	Flight    string    `json:"flight"`
	Route     string    `json:"route"`
	Aircraft  string    `json:"aircraft"`
	Airport   string    `json:"airport"`
	ICAO      string    `json:"icao"`
	Type      string    `json:"type"`
	Departure string    `json:"departure"`
	Arrival   string    `json:"arrival"`
	// Datetime is the inferred absolute instant, nil when it could not be built.
	Datetime *time.Time `json:"datetime"`
}

// Key identifies the physical flight; status and capture time are not part of it.
func (r ScheduledFlightRecord) Key() string {
	return strings.Join([]string{r.Date, r.Time, r.Flight, r.Airport, r.Route, r.Type}, "|")
}

// SortTime is the flight datetime when known, else the capture time.
func (r ScheduledFlightRecord) SortTime() time.Time {
	if r.Datetime != nil && !r.Datetime.IsZero() {
		return *r.Datetime
	}
	return r.ScrapedAt
}

// Locations maps a fleet number ("1".."6") to free text.
type Locations map[string]string
