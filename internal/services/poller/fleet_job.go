package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/pkg/errors"
)

type Fetcher interface {
	Active() string
	GetStates(ctx context.Context, name string) models.FleetSnapshot
	Delay(name string) (time.Duration, bool)
}

type Observer interface {
	Observe(snap models.FleetSnapshot) []models.TransitionEvent
}

// FleetJob is one fetch, diff and emit cycle over the active source.
type FleetJob struct {
	fetcher  Fetcher
	observer Observer
	sink     EventSink
	planner  *Planner

	mu     sync.RWMutex
	latest models.FleetSnapshot
	has    bool
}

func NewFleetJob(f Fetcher, o Observer, sink EventSink, planner *Planner) *FleetJob {
	if planner == nil {
		planner = DefaultPlanner()
	}
	return &FleetJob{fetcher: f, observer: o, sink: sink, planner: planner}
}

func (j *FleetJob) Name() string { return "fleet" }

func (j *FleetJob) RunOnce(ctx context.Context) error {
	snap := j.fetcher.GetStates(ctx, j.fetcher.Active())

	j.mu.Lock()
	j.latest = snap
	j.has = true
	j.mu.Unlock()

	// Nothing fetched and nothing cached: no evidence any aircraft left.
	if snap.Stale && snap.FetchedAt.IsZero() {
		slog.Warn("fleet snapshot unavailable, keeping previous state", "source", snap.Source)
		return nil
	}

	events := j.observer.Observe(snap)
	if len(events) == 0 || j.sink == nil {
		return nil
	}
	return errors.Wrap(j.sink.HandleEvents(ctx, events), "handle transitions")
}

func (j *FleetJob) NextDelay() time.Duration {
	return j.planner.NextFleetDelay(j.fetcher.Delay(j.fetcher.Active()))
}

// Latest returns the snapshot of the last cycle, false before the first one.
func (j *FleetJob) Latest() (models.FleetSnapshot, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.latest, j.has
}
