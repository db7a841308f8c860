package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Fetch client
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_fetch_total",
			Help: "Aircraft state reads by source and outcome",
		},
		[]string{"source", "outcome"}, // "fresh", "cache_hit", "throttled", "budget", "rate_limited", "error"
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetwatch_fetch_duration_seconds",
			Help:    "Upstream aircraft state call latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	BackoffSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetwatch_backoff_seconds",
			Help: "Current backoff delay per source",
		},
		[]string{"source"},
	)

	HistoryLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_history_lookups_total",
			Help: "Historic position points by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	// Fleet
	ActiveAircraft = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetwatch_active_aircraft",
			Help: "Aircraft present in the latest snapshot",
		},
	)

	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_transitions_total",
			Help: "Transition events emitted by kind",
		},
		[]string{"kind"},
	)

	// Push
	PushDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_push_deliveries_total",
			Help: "Push deliveries by result",
		},
		[]string{"result"}, // "sent", "failed", "pruned"
	)

	// Schedule scraping
	ScrapeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fleetwatch_scrape_duration_seconds",
			Help:    "Duration of one schedule scrape",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 20, 30},
		},
	)

	ScrapeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetwatch_scrape_errors_total",
			Help: "Failed schedule scrapes",
		},
	)

	ScheduleRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetwatch_schedule_records",
			Help: "Stored schedule data by kind",
		},
		[]string{"kind"}, // "flights", "planes"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "fleetwatch_circuit_breaker_state",
			Help: "0=closed, 1=half-open, 2=open",
		},
		[]string{"name"},
	)

	// Loops
	PollCyclesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetwatch_poll_cycles_total",
			Help: "Scheduler cycles by job and result",
		},
		[]string{"job", "result"}, // "ok", "error", "panic"
	)
)
