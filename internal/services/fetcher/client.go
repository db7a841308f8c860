package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BearBump/FleetWatch/internal/cache"
	"github.com/BearBump/FleetWatch/internal/integrations/aircraft"
	"github.com/BearBump/FleetWatch/internal/metrics"
	"github.com/BearBump/FleetWatch/internal/models"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

var ErrUnknownSource = errors.New("unknown aircraft source")

const (
	DefaultMinInterval = 60 * time.Second
	// stored results outlive their TTL so a restart still has something to serve.
	resultRetention = 24 * time.Hour
	budgetWindow    = 70 * time.Second
)

const (
	OutcomeFresh       = "fresh"
	OutcomeCacheHit    = "cache_hit"
	OutcomeThrottled   = "throttled"
	OutcomeBudget      = "budget"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

type Settings struct {
	MinInterval time.Duration
	// CacheTTL defaults to MinInterval.
	CacheTTL time.Duration
	// Backoff marks a source whose 429s should stretch the poll interval.
	Backoff bool
	// BudgetPerMinute caps calls across processes sharing the budget store. 0 disables it.
	BudgetPerMinute int64
}

// Budget is a shared call counter, see rediscache.RateLimiter.
type Budget interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

type CachedResult struct {
	States    []models.AircraftState `json:"states"`
	FetchedAt time.Time              `json:"fetchedAt"`
}

type source struct {
	provider aircraft.Provider
	settings Settings
	backoff  *Backoff

	// mu serializes reads of one source, so a refresh is never issued twice.
	mu       sync.Mutex
	limiter  *rate.Limiter
	cached   *CachedResult
	restored bool

	statsMu     sync.Mutex
	lastOutcome string
	lastError   string
	lastCallAt  time.Time
	calls       int64
	rateLimited int64
	failures    int64
}

// Client sits between the poll loop and the upstream providers. It throttles calls,
// backs off on rate limits, caches the last good answer and never returns an error:
// every failure degrades to the cached (possibly stale, possibly empty) snapshot.
type Client struct {
	roster models.Roster
	store  cache.BytesCache
	budget Budget
	now    func() time.Time

	mu      sync.RWMutex
	sources map[string]*source
	order   []string
	active  string
}

func New(roster models.Roster, store cache.BytesCache) *Client {
	return &Client{
		roster:  roster,
		store:   store,
		now:     time.Now,
		sources: make(map[string]*source),
	}
}

func (c *Client) WithClock(now func() time.Time) *Client {
	if now != nil {
		c.now = now
	}
	return c
}

func (c *Client) WithBudget(b Budget) *Client {
	c.budget = b
	return c
}

// Register adds a provider. The first registered provider is active until SetActive.
func (c *Client) Register(p aircraft.Provider, s Settings) *Client {
	if s.MinInterval <= 0 {
		s.MinInterval = DefaultMinInterval
	}
	if s.CacheTTL <= 0 {
		s.CacheTTL = s.MinInterval
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	name := p.Name()
	if _, ok := c.sources[name]; !ok {
		c.order = append(c.order, name)
	}
	c.sources[name] = &source{
		provider: p,
		settings: s,
		backoff:  DefaultBackoff(),
		limiter:  rate.NewLimiter(rate.Every(s.MinInterval), 1),
	}
	if c.active == "" {
		c.active = name
	}
	return c
}

func (c *Client) Roster() models.Roster { return c.roster }

func (c *Client) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

func (c *Client) SetActive(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sources[name]; !ok {
		return errors.Wrap(ErrUnknownSource, name)
	}
	c.active = name
	return nil
}

func (c *Client) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Client) source(name string) *source {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sources[name]
}

// Delay returns the source's current backoff delay and whether the source enforces backoff.
func (c *Client) Delay(name string) (time.Duration, bool) {
	src := c.source(name)
	if src == nil {
		return DefaultBackoffFloor, false
	}
	return src.backoff.Current(), src.settings.Backoff
}

// GetStates returns the fleet as seen by the named source.
func (c *Client) GetStates(ctx context.Context, name string) models.FleetSnapshot {
	src := c.source(name)
	if src == nil {
		slog.Error("get states", "source", name, "error", ErrUnknownSource.Error())
		return models.FleetSnapshot{Source: name, Stale: true, States: []models.AircraftState{}}
	}

	src.mu.Lock()
	defer src.mu.Unlock()

	now := c.now()
	c.restoreLocked(ctx, name, src)

	if src.cached != nil && now.Sub(src.cached.FetchedAt) < src.settings.CacheTTL {
		c.record(name, src, OutcomeCacheHit, nil, now)
		return snapshot(name, src.cached, false)
	}

	if !src.limiter.AllowN(now, 1) {
		c.record(name, src, OutcomeThrottled, nil, now)
		return snapshot(name, src.cached, true)
	}

	if c.budget != nil && src.settings.BudgetPerMinute > 0 {
		key := fmt.Sprintf("rl:source:%s:%s", name, now.UTC().Format("200601021504"))
		allowed, n, err := c.budget.Allow(ctx, key, src.settings.BudgetPerMinute, budgetWindow)
		if err != nil {
			// A broken budget store must not stop polling.
			slog.Warn("source budget check failed", "source", name, "error", err.Error())
		} else if !allowed {
			slog.Warn("source budget exhausted", "source", name, "count", n)
			c.record(name, src, OutcomeBudget, nil, now)
			return snapshot(name, src.cached, true)
		}
	}

	started := time.Now()
	states, err := src.provider.GetStates(ctx, c.roster)
	metrics.FetchDuration.WithLabelValues(name).Observe(time.Since(started).Seconds())

	if err != nil {
		if aircraft.IsRateLimited(err) {
			delay := src.backoff.Widen()
			gate := src.settings.MinInterval
			if delay > gate {
				gate = delay
			}
			src.limiter.SetLimitAt(now, rate.Every(gate))
			metrics.BackoffSeconds.WithLabelValues(name).Set(delay.Seconds())
			slog.Warn("source rate limited, backing off", "source", name, "backoff", delay.String())
			c.record(name, src, OutcomeRateLimited, err, now)
		} else {
			slog.Error("fetch states", "source", name, "error", err.Error())
			c.record(name, src, OutcomeError, err, now)
		}
		return snapshot(name, src.cached, true)
	}

	if src.backoff.Engaged() {
		slog.Info("source recovered from rate limiting", "source", name)
	}
	src.backoff.Reset()
	src.limiter.SetLimitAt(now, rate.Every(src.settings.MinInterval))
	metrics.BackoffSeconds.WithLabelValues(name).Set(src.backoff.Current().Seconds())

	src.cached = &CachedResult{States: FilterToRoster(states, c.roster), FetchedAt: now}
	c.persist(ctx, name, src.cached)
	c.record(name, src, OutcomeFresh, nil, now)
	return snapshot(name, src.cached, false)
}

func snapshot(name string, cr *CachedResult, stale bool) models.FleetSnapshot {
	snap := models.FleetSnapshot{Source: name, Stale: stale, States: []models.AircraftState{}}
	if cr == nil {
		return snap
	}
	snap.FetchedAt = cr.FetchedAt
	snap.States = make([]models.AircraftState, len(cr.States))
	copy(snap.States, cr.States)
	return snap
}

func resultKey(name string) string {
	return "fleet:states:" + name
}

// restoreLocked pulls the last stored result once per source.
func (c *Client) restoreLocked(ctx context.Context, name string, src *source) {
	if src.restored || c.store == nil {
		return
	}
	src.restored = true

	b, ok, err := c.store.Get(ctx, resultKey(name))
	if err != nil {
		slog.Warn("restore cached states", "source", name, "error", err.Error())
		return
	}
	if !ok {
		return
	}
	var cr CachedResult
	if err := json.Unmarshal(b, &cr); err != nil {
		slog.Warn("decode cached states", "source", name, "error", err.Error())
		return
	}
	cr.States = FilterToRoster(cr.States, c.roster)
	src.cached = &cr
}

func (c *Client) persist(ctx context.Context, name string, cr *CachedResult) {
	if c.store == nil {
		return
	}
	b, err := json.Marshal(cr)
	if err != nil {
		slog.Error("encode cached states", "source", name, "error", err.Error())
		return
	}
	if err := c.store.Set(ctx, resultKey(name), b, resultRetention); err != nil {
		slog.Warn("store cached states", "source", name, "error", err.Error())
	}
}

func (c *Client) record(name string, src *source, outcome string, err error, now time.Time) {
	metrics.FetchTotal.WithLabelValues(name, outcome).Inc()

	src.statsMu.Lock()
	defer src.statsMu.Unlock()
	src.lastOutcome = outcome
	switch outcome {
	case OutcomeFresh:
		src.calls++
		src.lastCallAt = now
		src.lastError = ""
	case OutcomeRateLimited:
		src.calls++
		src.rateLimited++
		src.lastCallAt = now
	case OutcomeError:
		src.calls++
		src.failures++
		src.lastCallAt = now
	}
	if err != nil {
		src.lastError = err.Error()
	}
}

type SourceStats struct {
	Name           string     `json:"name"`
	Active         bool       `json:"active"`
	EnforceBackoff bool       `json:"enforceBackoff"`
	BackoffSeconds float64    `json:"backoffSeconds"`
	MinInterval    string     `json:"minInterval"`
	CacheTTL       string     `json:"cacheTtl"`
	LastOutcome    string     `json:"lastOutcome,omitempty"`
	LastError      string     `json:"lastError,omitempty"`
	LastCallAt     *time.Time `json:"lastCallAt,omitempty"`
	Calls          int64      `json:"calls"`
	RateLimited    int64      `json:"rateLimited"`
	Failures       int64      `json:"failures"`
}

func (c *Client) Stats() []SourceStats {
	active := c.Active()
	out := make([]SourceStats, 0)
	for _, name := range c.Sources() {
		src := c.source(name)
		if src == nil {
			continue
		}
		st := SourceStats{
			Name:           name,
			Active:         name == active,
			EnforceBackoff: src.settings.Backoff,
			BackoffSeconds: src.backoff.Current().Seconds(),
			MinInterval:    src.settings.MinInterval.String(),
			CacheTTL:       src.settings.CacheTTL.String(),
		}
		src.statsMu.Lock()
		st.LastOutcome = src.lastOutcome
		st.LastError = src.lastError
		if !src.lastCallAt.IsZero() {
			t := src.lastCallAt.UTC()
			st.LastCallAt = &t
		}
		st.Calls = src.calls
		st.RateLimited = src.rateLimited
		st.Failures = src.failures
		src.statsMu.Unlock()
		out = append(out, st)
	}
	return out
}
