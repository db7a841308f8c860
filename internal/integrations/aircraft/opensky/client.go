package opensky

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/BearBump/FleetWatch/internal/integrations/aircraft"
	"github.com/BearBump/FleetWatch/internal/integrations/oauth"
	"github.com/BearBump/FleetWatch/internal/models"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

const (
	Name           = "opensky"
	DefaultBaseURL = "https://opensky-network.org"
	statesPath     = "/api/states/all"

	metersToFeet = 3.28084
	msToKnots    = 1.943844
)

// TokenSource yields a bearer token or nil for anonymous access.
type TokenSource interface {
	Token(ctx context.Context) *oauth.Token
}

type Client struct {
	baseURL string
	tokens  TokenSource
	httpc   *http.Client
}

func New(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpc: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Name() string { return Name }

type statesResp struct {
	Time   int64               `json:"time"`
	States [][]json.RawMessage `json:"states"`
}

// GetStates pulls the global dump and keeps only roster hex codes.
// Registrations are filled in from the roster since OpenSky does not report them.
func (c *Client) GetStates(ctx context.Context, roster models.Roster) ([]models.AircraftState, error) {
	if len(roster.Hexes()) == 0 {
		return []models.AircraftState{}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+statesPath, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(ctx); tok != nil {
			req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
		}
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

	var r statesResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	out := make([]models.AircraftState, 0)
	for _, row := range r.States {
		st, ok := parseStateVector(row)
		if !ok {
			continue
		}
		entry, ok := roster.ByHex(st.Hex)
		if !ok {
			continue
		}
		st.Registration = models.NormalizeRegistration(entry.Registration)
		out = append(out, st)
	}
	return out, nil
}

// State vector layout:
// 0 icao24, 1 callsign, 2 origin_country, 3 time_position, 4 last_contact, 5 longitude,
// 6 latitude, 7 baro_altitude, 8 on_ground, 9 velocity, 10 true_track, 11 vertical_rate,
// 12 sensors, 13 geo_altitude, 14 squawk, 15 spi, 16 position_source
func parseStateVector(row []json.RawMessage) (models.AircraftState, bool) {
	if len(row) < 11 {
		return models.AircraftState{}, false
	}
	hex := rawString(row[0])
	if hex == "" {
		return models.AircraftState{}, false
	}

	st := models.AircraftState{
		Hex:           models.NormalizeHex(hex),
		Callsign:      strings.TrimSpace(rawString(row[1])),
		Lon:           rawFloat(row[5]),
		Lat:           rawFloat(row[6]),
		AltitudeFt:    rawFloat(row[7]) * metersToFeet,
		OnGround:      rawBool(row[8]),
		GroundSpeedKt: rawFloat(row[9]) * msToKnots,
		Heading:       rawFloat(row[10]),
		Source:        Name,
	}
	st.Flight = st.Callsign
	if ts := int64(rawFloat(row[3])); ts > 0 {
		t := time.Unix(ts, 0).UTC()
		st.PositionAt = &t
	}
	return st, true
}

func isNull(b json.RawMessage) bool {
	return len(b) == 0 || bytes.Equal(b, []byte("null"))
}

func rawString(b json.RawMessage) string {
	if isNull(b) {
		return ""
	}
	var s string
	if json.Unmarshal(b, &s) != nil {
		return ""
	}
	return s
}

func rawFloat(b json.RawMessage) float64 {
	if isNull(b) {
		return 0
	}
	var f float64
	if json.Unmarshal(b, &f) != nil {
		return 0
	}
	return f
}

func rawBool(b json.RawMessage) bool {
	if isNull(b) {
		return false
	}
	var v bool
	if json.Unmarshal(b, &v) != nil {
		return false
	}
	return v
}
