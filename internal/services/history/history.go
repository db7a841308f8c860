package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/FleetWatch/internal/cache"
	"github.com/BearBump/FleetWatch/internal/integrations/aircraft"
	"github.com/BearBump/FleetWatch/internal/metrics"
	"github.com/BearBump/FleetWatch/internal/models"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const (
	DefaultHours   = 3
	MaxHours       = 24
	DefaultPoints  = 5
	DefaultSlot    = 5 * time.Minute
	DefaultTTL     = time.Hour
	DefaultSpacing = 200 * time.Millisecond
)

var ErrBadWindow = errors.New("history window must be between 1 and 24 hours")

const (
	OutcomeFresh       = "fresh"
	OutcomeCacheHit    = "cache_hit"
	OutcomeRateLimited = "rate_limited"
	OutcomeError       = "error"
)

// Provider is an upstream that can answer "where was this aircraft at time t".
type Provider interface {
	Name() string
	GetHistoricPositions(ctx context.Context, registration string, at time.Time) ([]models.AircraftState, error)
}

type Config struct {
	Points  int
	Slot    time.Duration
	TTL     time.Duration
	Spacing time.Duration
}

type Result struct {
	Source     string                            `json:"source"`
	Hours      int                               `json:"hours"`
	Timestamps []time.Time                       `json:"timestamps"`
	Positions  map[string][]models.AircraftState `json:"positions"`
}

// Service samples a few points over a window per roster aircraft. Answers are cached per
// (registration, slot); rate-limited and failed points come back empty and are not cached.
type Service struct {
	provider Provider
	store    cache.BytesCache
	roster   models.Roster
	cfg      Config
	limiter  *rate.Limiter
	now      func() time.Time
}

func New(p Provider, store cache.BytesCache, roster models.Roster, cfg Config) *Service {
	if cfg.Points <= 0 {
		cfg.Points = DefaultPoints
	}
	if cfg.Slot <= 0 {
		cfg.Slot = DefaultSlot
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.Spacing <= 0 {
		cfg.Spacing = DefaultSpacing
	}
	return &Service{
		provider: p,
		store:    store,
		roster:   roster,
		cfg:      cfg,
		limiter:  rate.NewLimiter(rate.Every(cfg.Spacing), 1),
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Timestamps spreads Points samples evenly over the window, newest first, ending one step
// before the current slot boundary so repeated lookups hit the same cache keys.
func (s *Service) Timestamps(hours int) []time.Time {
	end := s.now().UTC().Truncate(s.cfg.Slot)
	step := time.Duration(hours) * time.Hour / time.Duration(s.cfg.Points)
	out := make([]time.Time, 0, s.cfg.Points)
	for i := 1; i <= s.cfg.Points; i++ {
		out = append(out, end.Add(-time.Duration(i)*step))
	}
	return out
}

func (s *Service) Lookup(ctx context.Context, hours int) (Result, error) {
	if hours == 0 {
		hours = DefaultHours
	}
	if hours < 0 || hours > MaxHours {
		return Result{}, ErrBadWindow
	}

	res := Result{
		Source:     s.provider.Name(),
		Hours:      hours,
		Timestamps: s.Timestamps(hours),
		Positions:  make(map[string][]models.AircraftState, len(s.roster)),
	}
	for _, e := range s.roster {
		reg := models.NormalizeRegistration(e.Registration)
		positions := []models.AircraftState{}
		for _, at := range res.Timestamps {
			got, err := s.point(ctx, reg, at)
			if err != nil {
				return Result{}, err
			}
			positions = append(positions, got...)
		}
		res.Positions[reg] = positions
	}
	return res, nil
}

func (s *Service) key(reg string, at time.Time) string {
	return fmt.Sprintf("fleet:history:%s:%s:%d", s.provider.Name(), reg, at.Unix())
}

// point returns an error only when ctx is done.
func (s *Service) point(ctx context.Context, reg string, at time.Time) ([]models.AircraftState, error) {
	name := s.provider.Name()
	key := s.key(reg, at)

	if s.store != nil {
		b, ok, err := s.store.Get(ctx, key)
		if err != nil {
			slog.Warn("read cached history", "registration", reg, "error", err.Error())
		} else if ok {
			var cached []models.AircraftState
			if derr := json.Unmarshal(b, &cached); derr != nil {
				slog.Warn("decode cached history", "registration", reg, "error", derr.Error())
			} else {
				metrics.HistoryLookupsTotal.WithLabelValues(name, OutcomeCacheHit).Inc()
				return cached, nil
			}
		}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "wait history slot")
	}

	states, err := s.provider.GetHistoricPositions(ctx, reg, at)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if aircraft.IsRateLimited(err) {
			slog.Warn("history rate limited, skipping point", "registration", reg, "at", at.Unix())
			metrics.HistoryLookupsTotal.WithLabelValues(name, OutcomeRateLimited).Inc()
		} else {
			slog.Error("fetch history", "registration", reg, "at", at.Unix(), "error", err.Error())
			metrics.HistoryLookupsTotal.WithLabelValues(name, OutcomeError).Inc()
		}
		return []models.AircraftState{}, nil
	}
	if states == nil {
		states = []models.AircraftState{}
	}
	metrics.HistoryLookupsTotal.WithLabelValues(name, OutcomeFresh).Inc()

	if s.store != nil {
		if b, err := json.Marshal(states); err != nil {
			slog.Error("encode history", "registration", reg, "error", err.Error())
		} else if err := s.store.Set(ctx, key, b, s.cfg.TTL); err != nil {
			slog.Warn("store history", "registration", reg, "error", err.Error())
		}
	}
	return states, nil
}
