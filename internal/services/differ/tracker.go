package differ

import (
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/FleetWatch/internal/metrics"
	"github.com/BearBump/FleetWatch/internal/models"
)

type StateStore interface {
	LoadFleetState() (models.FleetState, error)
	SaveFleetState(st models.FleetState) error
}

// Tracker owns the previous active/inbound sets between cycles.
type Tracker struct {
	watched string
	store   StateStore
	now     func() time.Time

	mu      sync.Mutex
	loaded  bool
	active  Set
	inbound Set
}

func NewTracker(watchedICAO string, store StateStore) *Tracker {
	return &Tracker{
		watched: watchedICAO,
		store:   store,
		now:     time.Now,
		active:  Set{},
		inbound: Set{},
	}
}

func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	if now != nil {
		t.now = now
	}
	return t
}

func (t *Tracker) Watched() string { return t.watched }

// Observe diffs snap against the previous cycle and replaces the stored sets.
func (t *Tracker) Observe(snap models.FleetSnapshot) []models.TransitionEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.loadLocked()

	now := t.now().UTC()
	res := Diff(snap, t.active, t.inbound, t.watched, now)
	t.active = res.NextActive
	t.inbound = res.NextInbound

	metrics.ActiveAircraft.Set(float64(len(t.active)))
	for _, ev := range res.Events {
		metrics.TransitionsTotal.WithLabelValues(string(ev.Kind)).Inc()
	}

	if t.store != nil {
		err := t.store.SaveFleetState(models.FleetState{
			Active:    t.active.Sorted(),
			Inbound:   t.inbound.Sorted(),
			UpdatedAt: now,
		})
		if err != nil {
			slog.Warn("save fleet state", "error", err.Error())
		}
	}
	return res.Events
}

// State returns copies of the current sets.
func (t *Tracker) State() (active, inbound []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loadLocked()
	return t.active.Sorted(), t.inbound.Sorted()
}

func (t *Tracker) loadLocked() {
	if t.loaded {
		return
	}
	t.loaded = true
	if t.store == nil {
		return
	}
	st, err := t.store.LoadFleetState()
	if err != nil {
		return
	}
	t.active = NewSet(st.Active...)
	t.inbound = NewSet(st.Inbound...)
	if len(st.Active) > 0 {
		slog.Info("fleet state restored", "active", len(st.Active), "inbound", len(st.Inbound))
	}
}
