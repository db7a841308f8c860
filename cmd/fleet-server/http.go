package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/BearBump/FleetWatch/config"
	"github.com/BearBump/FleetWatch/internal/services/fetcher"
	"github.com/BearBump/FleetWatch/internal/services/poller"
	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

type fleetState interface {
	State() (active, inbound []string)
}

type opsRouterOpts struct {
	swaggerPath string

	cfg     *config.Config
	pollers []*poller.Poller
	fetcher *fetcher.Client
	tracker fleetState
}

func newOpsRouter(opts opsRouterOpts) (http.Handler, error) {
	if opts.swaggerPath == "" {
		return nil, fmt.Errorf("swaggerPath env var is required")
	}
	if _, err := os.Stat(opts.swaggerPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("swagger file not found: %s", opts.swaggerPath)
	}

	pollers := make(map[string]*poller.Poller, len(opts.pollers))
	for _, p := range opts.pollers {
		pollers[p.Name()] = p
	}

	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Ready once the fleet loop has finished its first cycle.
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if p, ok := pollers["fleet"]; ok && p.Stats().TotalCycles == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"starting"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		jobs := make([]poller.Stats, 0, len(opts.pollers))
		for _, p := range opts.pollers {
			jobs = append(jobs, p.Stats())
		}
		out := map[string]any{"jobs": jobs}
		if opts.fetcher != nil {
			out["activeSource"] = opts.fetcher.Active()
			out["sources"] = opts.fetcher.Stats()
		}
		if opts.tracker != nil {
			active, inbound := opts.tracker.State()
			out["active"] = active
			out["inbound"] = inbound
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Get("/config", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if opts.cfg == nil {
			_, _ = w.Write([]byte(`{"error":"config not wired"}`))
			return
		}
		// Secrets stay out; only operational settings are shown.
		c := opts.cfg
		out := map[string]any{
			"watchedAirport":        c.Fleet.WatchedAirport,
			"fleetIntervalSeconds":  c.Fleet.IntervalSeconds,
			"fleetJitterSeconds":    c.Fleet.JitterSeconds,
			"activeSource":          c.Fleet.ActiveSource,
			"rosterSize":            len(c.Fleet.Roster),
			"fr24Enabled":           c.Sources.FR24.Enabled,
			"openskyEnabled":        c.Sources.OpenSky.Enabled,
			"openskyAuthenticated":  c.Sources.OpenSky.ClientID != "",
			"fakeEnabled":           c.Sources.Fake.Enabled,
			"scheduleURL":           c.Schedule.URL,
			"scheduleIntervalSec":   c.Schedule.IntervalSeconds,
			"scheduleRetentionDays": c.Schedule.RetentionDays,
			"pushConfigured":        c.Push.VAPIDPublicKey != "" && c.Push.VAPIDPrivateKey != "",
			"cacheBackend":          c.Cache.Backend,
			"kafkaEnabled":          c.Kafka.Enabled,
			"natsEnabled":           c.NATS.Enabled,
			"dataDir":               c.Storage.DataDir,
		}
		_ = json.NewEncoder(w).Encode(out)
	})

	r.Post("/trigger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		job := r.URL.Query().Get("job")
		if job == "" {
			job = "fleet"
		}
		p, ok := pollers[job]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "unknown job: " + job})
			return
		}
		p.Trigger()
		_ = json.NewEncoder(w).Encode(map[string]any{"triggered": true, "job": job})
	})

	r.Handle("/metrics", promhttp.Handler())

	// no-cache plus a cachebuster so the docs page never shows a stale swagger.json
	r.Get("/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		http.ServeFile(w, r, opts.swaggerPath)
	})

	swaggerURL := "/swagger.json"
	if fi, err := os.Stat(opts.swaggerPath); err == nil {
		swaggerURL = fmt.Sprintf("/swagger.json?v=%d", fi.ModTime().Unix())
	}
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL(swaggerURL)))

	return r, nil
}
