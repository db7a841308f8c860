package fr24

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BearBump/FleetWatch/internal/integrations/aircraft"
	"github.com/BearBump/FleetWatch/internal/models"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	Name           = "fr24"
	DefaultBaseURL = "https://fr24api.flightradar24.com"
	livePath       = "/api/live/flight-positions/full"
	historicPath   = "/api/historic/flight-positions/full"
)

type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Name() string { return Name }

type livePosition struct {
	FR24ID    string  `json:"fr24_id"`
	Flight    string  `json:"flight"`
	Callsign  string  `json:"callsign"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Track     float64 `json:"track"`
	Alt       float64 `json:"alt"`
	GSpeed    float64 `json:"gspeed"`
	Reg       string  `json:"reg"`
	Type      string  `json:"type"`
	Hex       string  `json:"hex"`
	OrigIATA  string  `json:"orig_iata"`
	OrigICAO  string  `json:"orig_icao"`
	DestIATA  string  `json:"dest_iata"`
	DestICAO  string  `json:"dest_icao"`
	Timestamp string  `json:"timestamp"`
}

type liveResp struct {
	Data []livePosition `json:"data"`
}

func (c *Client) GetStates(ctx context.Context, roster models.Roster) ([]models.AircraftState, error) {
	regs := roster.Registrations()
	if len(regs) == 0 {
		return []models.AircraftState{}, nil
	}

	q := url.Values{}
	q.Set("registrations", strings.Join(regs, ","))
	return c.positions(ctx, livePath, q)
}

// GetHistoricPositions returns the positions FR24 recorded for one registration at a point in time.
func (c *Client) GetHistoricPositions(ctx context.Context, registration string, at time.Time) ([]models.AircraftState, error) {
	reg := models.NormalizeRegistration(registration)
	if reg == "" {
		return []models.AircraftState{}, nil
	}

	q := url.Values{}
	q.Set("registrations", reg)
	q.Set("timestamp", strconv.FormatInt(at.Unix(), 10))
	return c.positions(ctx, historicPath, q)
}

func (c *Client) positions(ctx context.Context, path string, q url.Values) ([]models.AircraftState, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Version", "v1")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrap(aircraft.ErrRateLimited, Name)
	}
	if resp.StatusCode/100 != 2 {
		return nil, &aircraft.StatusError{Source: Name, StatusCode: resp.StatusCode}
	}

	var r liveResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	out := make([]models.AircraftState, 0, len(r.Data))
	for _, p := range r.Data {
		out = append(out, p.toState())
	}
	return out, nil
}

func (p livePosition) toState() models.AircraftState {
	st := models.AircraftState{
		Registration:    models.NormalizeRegistration(p.Reg),
		Hex:             models.NormalizeHex(p.Hex),
		Callsign:        strings.TrimSpace(p.Callsign),
		Flight:          strings.TrimSpace(p.Flight),
		Lat:             p.Lat,
		Lon:             p.Lon,
		AltitudeFt:      p.Alt,
		GroundSpeedKt:   p.GSpeed,
		Heading:         p.Track,
		OnGround:        p.Alt <= 0 && p.GSpeed < 40,
		AircraftType:    p.Type,
		OriginICAO:      p.OrigICAO,
		OriginIATA:      p.OrigIATA,
		DestinationICAO: p.DestICAO,
		DestinationIATA: p.DestIATA,
		Source:          Name,
	}
	if st.Flight == "" {
		st.Flight = st.Callsign
	}
	// FR24 example: "2025-01-01T12:00:00Z"
	if p.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, p.Timestamp); err == nil {
			t = t.UTC()
			st.PositionAt = &t
		}
	}
	return st
}
