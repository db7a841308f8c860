package schedule

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/BearBump/FleetWatch/internal/metrics"
	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	gobreaker "github.com/sony/gobreaker/v2"
)

const (
	DefaultURL      = "https://www.belugaxlinfo.com/"
	DefaultTimeout  = 20 * time.Second
	DefaultLocation = "Europe/London"

	breakerName  = "schedule-page"
	maxPageBytes = 8 << 20
)

type Store interface {
	LoadSchedule() ([]models.ScheduledFlightRecord, error)
	SaveSchedule(recs []models.ScheduledFlightRecord) error
	LoadLocations() (models.Locations, error)
	SaveLocations(locs models.Locations) error
}

type Config struct {
	URL       string
	Timeout   time.Duration
	Retention time.Duration
	Location  *time.Location
}

type Result struct {
	Flights int `json:"flights"`
	Planes  int `json:"planes"`
	New     int `json:"new"`
}

// Scraper fetches the public schedule page and folds it into the store.
type Scraper struct {
	url       string
	retention time.Duration
	loc       *time.Location
	httpc     *http.Client
	cb        *gobreaker.CircuitBreaker[[]byte]
	store     Store
	now       func() time.Time

	mu sync.Mutex
}

func New(cfg Config, store Store) *Scraper {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return &Scraper{
		url:       cfg.URL,
		retention: cfg.Retention,
		loc:       cfg.Location,
		httpc:     &http.Client{Timeout: cfg.Timeout},
		cb:        newBreaker(),
		store:     store,
		now:       time.Now,
	}
}

func newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	})
}

func (s *Scraper) WithClock(now func() time.Time) *Scraper {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *Scraper) URL() string { return s.url }

// Fetch downloads and parses the page without touching the store.
func (s *Scraper) Fetch(ctx context.Context) (*goquery.Document, error) {
	body, err := s.cb.Execute(func() ([]byte, error) {
		return s.get(ctx)
	})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "parse html")
	}
	return doc, nil
}

func (s *Scraper) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "new request")
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "http do")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("schedule page status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	return body, nil
}

// Scrape runs one full fetch, parse and merge. Concurrent calls are serialized.
func (s *Scraper) Scrape(ctx context.Context) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() { metrics.ScrapeDuration.Observe(time.Since(start).Seconds()) }()

	doc, err := s.Fetch(ctx)
	if err != nil {
		metrics.ScrapeErrorsTotal.Inc()
		return Result{}, errors.Wrap(err, "fetch schedule page")
	}

	now := s.now()
	fresh := ParseSchedule(doc, now, s.loc)

	existing, err := s.store.LoadSchedule()
	if err != nil {
		slog.Warn("load schedule, starting empty", "error", err.Error())
	}
	merged := Merge(fresh, existing, now, s.retention)
	if err := s.store.SaveSchedule(merged); err != nil {
		metrics.ScrapeErrorsTotal.Inc()
		return Result{}, errors.Wrap(err, "save schedule")
	}

	planes, err := s.updateLocations(doc)
	if err != nil {
		metrics.ScrapeErrorsTotal.Inc()
		return Result{}, err
	}

	metrics.ScheduleRecords.WithLabelValues("flights").Set(float64(len(merged)))
	metrics.ScheduleRecords.WithLabelValues("planes").Set(float64(planes))

	slog.Info("schedule scraped", "flights", len(merged), "new", len(fresh), "planes", planes)
	return Result{Flights: len(merged), Planes: planes, New: len(fresh)}, nil
}

// updateLocations saves parsed locations when there are any and reports the stored count.
func (s *Scraper) updateLocations(doc *goquery.Document) (int, error) {
	locs, strategy := ParseLocations(doc)
	if len(locs) > 0 {
		if err := s.store.SaveLocations(locs); err != nil {
			return 0, errors.Wrap(err, "save locations")
		}
		slog.Debug("locations parsed", "strategy", strategy, "planes", len(locs))
		return len(locs), nil
	}

	slog.Warn("no location data found on schedule page")
	stored, err := s.store.LoadLocations()
	if err != nil {
		return 0, nil
	}
	return len(stored), nil
}

// Job adapts the scraper to the poll loop with a fixed interval.
type Job struct {
	scraper  *Scraper
	interval time.Duration
}

const DefaultInterval = time.Hour

func NewJob(s *Scraper, interval time.Duration) *Job {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Job{scraper: s, interval: interval}
}

func (j *Job) Name() string { return "scrape" }

func (j *Job) RunOnce(ctx context.Context) error {
	_, err := j.scraper.Scrape(ctx)
	return err
}

func (j *Job) NextDelay() time.Duration { return j.interval }
