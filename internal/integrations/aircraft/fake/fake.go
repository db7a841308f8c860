package fake

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
)

const Name = "fake"

// Client is a stand-in provider for demos and tests.
// Without a script it derives a deterministic fleet picture from (registration, time slot):
// about two thirds of the fleet is airborne and some of it heads to the watched airport.
type Client struct {
	slot    time.Duration
	watched string
	now     func() time.Time

	mu     sync.Mutex
	script [][]models.AircraftState
	errs   []error
	calls  int
}

func New(watchedICAO string) *Client {
	return &Client{slot: 10 * time.Minute, watched: watchedICAO, now: time.Now}
}

// NewScripted replays frames in order, repeating the last one.
func NewScripted(frames ...[]models.AircraftState) *Client {
	return &Client{script: frames, now: time.Now}
}

// WithErrors makes call i fail with errs[i] when it is non-nil.
func (f *Client) WithErrors(errs ...error) *Client {
	f.errs = errs
	return f
}

func (f *Client) Name() string { return Name }

func (f *Client) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Client) GetStates(ctx context.Context, roster models.Roster) ([]models.AircraftState, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()

	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if f.script != nil {
		if len(f.script) == 0 {
			return []models.AircraftState{}, nil
		}
		if i >= len(f.script) {
			i = len(f.script) - 1
		}
		out := make([]models.AircraftState, len(f.script[i]))
		copy(out, f.script[i])
		return out, nil
	}
	return f.generate(roster, f.now()), nil
}

// GetHistoricPositions replays the generated picture for one registration at a past time.
func (f *Client) GetHistoricPositions(ctx context.Context, registration string, at time.Time) ([]models.AircraftState, error) {
	if f.script != nil {
		return []models.AircraftState{}, nil
	}
	return f.generate(models.Roster{{Registration: registration}}, at), nil
}

func (f *Client) generate(roster models.Roster, at time.Time) []models.AircraftState {
	now := at.UTC()
	slot := now.Unix() / int64(f.slot.Seconds())

	out := make([]models.AircraftState, 0, len(roster))
	for _, e := range roster {
		h := fnv.New32a()
		_, _ = h.Write([]byte(e.Registration))
		_, _ = h.Write([]byte("|"))
		_, _ = h.Write([]byte(strconv.FormatInt(slot, 10)))
		v := h.Sum32()

		if v%3 == 0 {
			continue
		}
		st := models.AircraftState{
			Registration:  models.NormalizeRegistration(e.Registration),
			Hex:           models.NormalizeHex(e.Hex),
			Flight:        "BGA" + strconv.Itoa(100+int(v%900)),
			Lat:           43.6 + float64(v%1000)/100,
			Lon:           1.36 - float64(v%500)/100,
			AltitudeFt:    float64(10000 + v%20000),
			GroundSpeedKt: float64(220 + v%60),
			Heading:       float64(v % 360),
			OriginICAO:    "LFBO",
			Source:        Name,
			PositionAt:    &now,
		}
		st.Callsign = st.Flight
		if v%4 == 0 && f.watched != "" {
			st.DestinationICAO = f.watched
		}
		out = append(out, st)
	}
	return out
}
