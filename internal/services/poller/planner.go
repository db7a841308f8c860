package poller

import (
	"math/rand"
	"time"
)

type Rand interface {
	Intn(n int) int
}

type PlannerConfig struct {
	Baseline time.Duration // default: 2 minutes
	Jitter   time.Duration // default: none
}

func DefaultPlannerConfig() PlannerConfig {
	return PlannerConfig{
		Baseline: 2 * time.Minute,
	}
}

// Planner decides how long the fleet loop sleeps between polls.
type Planner struct {
	cfg PlannerConfig
	r   Rand
}

func NewPlanner(cfg PlannerConfig, r Rand) *Planner {
	def := DefaultPlannerConfig()
	if cfg.Baseline <= 0 {
		cfg.Baseline = def.Baseline
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = 0
	}
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{cfg: cfg, r: r}
}

func DefaultPlanner() *Planner {
	return NewPlanner(DefaultPlannerConfig(), nil)
}

func (p *Planner) Baseline() time.Duration { return p.cfg.Baseline }

// NextFleetDelay follows the source's backoff when it enforces one, else the baseline plus jitter.
func (p *Planner) NextFleetDelay(backoff time.Duration, enforce bool) time.Duration {
	if enforce && backoff > 0 {
		return backoff
	}
	d := p.cfg.Baseline
	if sec := int(p.cfg.Jitter.Seconds()); sec > 0 {
		d += time.Duration(p.r.Intn(sec+1)) * time.Second
	}
	return d
}
