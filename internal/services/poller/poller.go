package poller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BearBump/FleetWatch/internal/metrics"
)

// Job is one concern driven by its own loop.
type Job interface {
	Name() string
	RunOnce(ctx context.Context) error
	NextDelay() time.Duration
}

type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

const minDelay = time.Second

type Poller struct {
	job   Job
	clock Clock

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	lastDelay           atomic.Int64
	totalCycles         atomic.Int64
	totalErrors         atomic.Int64
	totalPanics         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(job Job) *Poller {
	return &Poller{
		job:               job,
		clock:             realClock{},
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (p *Poller) WithClock(c Clock) *Poller {
	if c != nil {
		p.clock = c
		p.startedAtUnixNano = c.Now().UTC().UnixNano()
	}
	return p
}

func (p *Poller) Name() string { return p.job.Name() }

func (p *Poller) String() string { return "poller:" + p.job.Name() }

// Trigger forces an immediate poll cycle (best-effort, non-blocking).
func (p *Poller) Trigger() {
	p.lastTriggerUnixNano.Store(p.clock.Now().UTC().UnixNano())
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	Job           string     `json:"job"`
	StartedAt     time.Time  `json:"startedAt"`
	LastCycleAt   *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalCycles   int64      `json:"totalCycles"`
	TotalErrors   int64      `json:"totalErrors"`
	TotalPanics   int64      `json:"totalPanics"`
	LastDelay     string     `json:"lastDelay,omitempty"`
	LastError     string     `json:"lastError,omitempty"`
}

func (p *Poller) Stats() Stats {
	st := Stats{
		Job:         p.job.Name(),
		StartedAt:   time.Unix(0, p.startedAtUnixNano).UTC(),
		TotalCycles: p.totalCycles.Load(),
		TotalErrors: p.totalErrors.Load(),
		TotalPanics: p.totalPanics.Load(),
	}
	if n := p.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := p.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	if d := p.lastDelay.Load(); d > 0 {
		st.LastDelay = time.Duration(d).String()
	}
	p.lastErrorMu.Lock()
	st.LastError = p.lastError
	p.lastErrorMu.Unlock()
	return st
}

// Serve runs a cycle immediately, then one per NextDelay until ctx ends.
func (p *Poller) Serve(ctx context.Context) error {
	for {
		p.runOnce(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}

		d := p.job.NextDelay()
		if d < minDelay {
			d = minDelay
		}
		p.lastDelay.Store(int64(d))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.clock.After(d):
		case <-p.triggerCh:
		}
	}
}

func (p *Poller) runOnce(ctx context.Context) {
	p.lastCycleUnixNano.Store(p.clock.Now().UTC().UnixNano())
	p.totalCycles.Add(1)

	result := "ok"
	defer func() {
		if r := recover(); r != nil {
			result = "panic"
			p.totalPanics.Add(1)
			p.setLastError(fmt.Sprintf("panic: %v", r))
			slog.Error("poll cycle panicked", "job", p.job.Name(), "panic", fmt.Sprint(r))
		}
		metrics.PollCyclesTotal.WithLabelValues(p.job.Name(), result).Inc()
	}()

	if err := p.job.RunOnce(ctx); err != nil {
		result = "error"
		p.totalErrors.Add(1)
		p.setLastError(err.Error())
		slog.Error("poll cycle", "job", p.job.Name(), "error", err.Error())
	}
}

func (p *Poller) setLastError(s string) {
	p.lastErrorMu.Lock()
	p.lastError = s
	p.lastErrorMu.Unlock()
}
