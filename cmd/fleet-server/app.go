package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BearBump/FleetWatch/config"
	fleetapi "github.com/BearBump/FleetWatch/internal/api/fleet_api"
	"github.com/BearBump/FleetWatch/internal/broker/kafka"
	"github.com/BearBump/FleetWatch/internal/broker/messages"
	"github.com/BearBump/FleetWatch/internal/broker/natsbus"
	"github.com/BearBump/FleetWatch/internal/cache"
	"github.com/BearBump/FleetWatch/internal/cache/memcache"
	"github.com/BearBump/FleetWatch/internal/cache/rediscache"
	"github.com/BearBump/FleetWatch/internal/integrations/aircraft"
	"github.com/BearBump/FleetWatch/internal/integrations/aircraft/fake"
	"github.com/BearBump/FleetWatch/internal/integrations/aircraft/fr24"
	"github.com/BearBump/FleetWatch/internal/integrations/aircraft/opensky"
	"github.com/BearBump/FleetWatch/internal/integrations/oauth"
	"github.com/BearBump/FleetWatch/internal/integrations/webpush"
	"github.com/BearBump/FleetWatch/internal/models"
	"github.com/BearBump/FleetWatch/internal/services/differ"
	"github.com/BearBump/FleetWatch/internal/services/fetcher"
	"github.com/BearBump/FleetWatch/internal/services/history"
	"github.com/BearBump/FleetWatch/internal/services/notify"
	"github.com/BearBump/FleetWatch/internal/services/poller"
	"github.com/BearBump/FleetWatch/internal/services/schedule"
	"github.com/BearBump/FleetWatch/internal/storage/filestore"
	"github.com/BearBump/FleetWatch/internal/supervisor"
	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
)

type pushSender interface {
	notify.Sender
	PublicKey() string
}

type transitionConsumer interface {
	Consume(ctx context.Context, handler kafka.Handler) error
}

type sourceSpec struct {
	provider aircraft.Provider
	settings fetcher.Settings
}

type serverFactories struct {
	newCache     func(cfg *config.Config) (store cache.BytesCache, budget fetcher.Budget, closeFn func())
	newProviders func(cfg *config.Config) []sourceSpec
	newSender    func(cfg *config.Config) pushSender
	newProducer  func(cfg *config.Config) (p poller.Producer, closeFn func())
	newConsumer  func(cfg *config.Config) (c transitionConsumer, closeFn func())
	newNATS      func(cfg *config.Config) (p poller.Producer, closeFn func(), err error)
}

func defaultServerFactories() serverFactories {
	return serverFactories{
		newCache: func(cfg *config.Config) (cache.BytesCache, fetcher.Budget, func()) {
			if cfg.Cache.Backend == "redis" {
				addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
				rc := rediscache.NewClient(addr, cfg.Redis.Password, cfg.Redis.DB)
				prefix := cfg.Cache.Prefix
				if prefix == "" {
					prefix = "fleetwatch:"
				}
				return rediscache.NewWithClient(rc, prefix),
					rediscache.NewRateLimiterWithClient(rc, prefix+"budget:"),
					func() { _ = rc.Close() }
			}
			return memcache.New(cfg.Cache.SizeBytes), nil, func() {}
		},
		newProviders: defaultProviders,
		newSender: func(cfg *config.Config) pushSender {
			return webpush.New(webpush.Config{
				PublicKey:  cfg.Push.VAPIDPublicKey,
				PrivateKey: cfg.Push.VAPIDPrivateKey,
				Subscriber: cfg.Push.Subject,
				TTLSeconds: cfg.Push.TTLSeconds,
			})
		},
		newProducer: func(cfg *config.Config) (poller.Producer, func()) {
			p := kafka.NewProducer(cfg.Kafka.BrokerList())
			return p, func() { _ = p.Close() }
		},
		newConsumer: func(cfg *config.Config) (transitionConsumer, func()) {
			group := cfg.Kafka.ConsumerGroup
			if group == "" {
				group = "fleet-server"
			}
			c := kafka.NewConsumer(cfg.Kafka.BrokerList(), kafkaTopic(cfg), group)
			return c, func() { _ = c.Close() }
		},
		newNATS: func(cfg *config.Config) (poller.Producer, func(), error) {
			p, err := natsbus.New(cfg.NATS.URL)
			if err != nil {
				return nil, nil, err
			}
			return p, func() { _ = p.Close() }, nil
		},
	}
}

func sourceSettings(sc config.SourceConfig, backoff bool) fetcher.Settings {
	return fetcher.Settings{
		MinInterval:     time.Duration(sc.MinIntervalSeconds) * time.Second,
		CacheTTL:        time.Duration(sc.CacheTTLSeconds) * time.Second,
		Backoff:         backoff,
		BudgetPerMinute: sc.BudgetPerMinute,
	}
}

func defaultProviders(cfg *config.Config) []sourceSpec {
	src := cfg.Sources
	var out []sourceSpec
	if src.FR24.Enabled {
		out = append(out, sourceSpec{
			provider: fr24.New(src.FR24.BaseURL, src.FR24.APIKey),
			settings: sourceSettings(src.FR24.SourceConfig, src.FR24.BackoffEnabled()),
		})
	}
	if src.OpenSky.Enabled {
		tokens := oauth.New(src.OpenSky.TokenURL, src.OpenSky.ClientID, src.OpenSky.ClientSecret)
		out = append(out, sourceSpec{
			provider: opensky.New(src.OpenSky.BaseURL, tokens),
			settings: sourceSettings(src.OpenSky.SourceConfig, src.OpenSky.BackoffEnabled()),
		})
	}
	if src.Fake.Enabled || len(out) == 0 {
		if !src.Fake.Enabled {
			slog.Warn("no aircraft source enabled, using fake")
		}
		out = append(out, sourceSpec{
			provider: fake.New(watchedAirport(cfg).ICAO),
			settings: sourceSettings(src.Fake, src.Fake.Backoff != nil && *src.Fake.Backoff),
		})
	}
	return out
}

// historySource picks the first registered provider that keeps historic positions.
func historySource(specs []sourceSpec) history.Provider {
	for _, s := range specs {
		if hp, ok := s.provider.(history.Provider); ok {
			return hp
		}
	}
	return nil
}

func kafkaTopic(cfg *config.Config) string {
	if cfg.Kafka.TopicName == "" {
		return "fleet.transitions"
	}
	return cfg.Kafka.TopicName
}

func watchedAirport(cfg *config.Config) fleetapi.Airport {
	if cfg.Fleet.WatchedAirport == "" {
		return fleetapi.DefaultAirport
	}
	return fleetapi.Airport{
		ICAO: cfg.Fleet.WatchedAirport,
		Lat:  cfg.Fleet.AirportLat,
		Lon:  cfg.Fleet.AirportLon,
	}
}

type eventDispatcher interface {
	DispatchEvent(ctx context.Context, ev models.TransitionEvent) notify.Result
}

// transitionHandler turns consumed FleetTransition messages into pushes.
// Undecodable messages are committed so they cannot block the partition.
func transitionHandler(d eventDispatcher) kafka.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var m messages.FleetTransition
		if err := json.Unmarshal(msg.Value, &m); err != nil {
			slog.Warn("drop undecodable transition", "key", string(msg.Key), "error", err.Error())
			return nil
		}
		d.DispatchEvent(ctx, m.Event())
		return nil
	}
}

type serverOpts struct {
	swaggerPath string
	onAPIListen func(addr string)
	onOpsListen func(addr string)
}

func RunFleetServer(ctx context.Context, cfg *config.Config, opts serverOpts, f serverFactories) error {
	apiAddr := cfg.Server.APIAddr
	if apiAddr == "" {
		apiAddr = ":8080"
	}
	opsAddr := cfg.Server.OpsAddr
	if opsAddr == "" {
		opsAddr = ":8082"
	}
	dataDir := cfg.Storage.DataDir
	if dataDir == "" {
		dataDir = "data"
	}
	scrapeInterval := time.Duration(cfg.Schedule.IntervalSeconds) * time.Second
	if scrapeInterval <= 0 {
		scrapeInterval = schedule.DefaultInterval
	}
	retention := time.Duration(cfg.Schedule.RetentionDays) * 24 * time.Hour
	if retention <= 0 {
		retention = schedule.DefaultRetention
	}
	tz := cfg.Schedule.Timezone
	if tz == "" {
		tz = schedule.DefaultLocation
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return errors.Wrap(err, "load schedule timezone")
	}

	store, err := filestore.New(dataDir)
	if err != nil {
		return err
	}

	bc, budget, closeCache := f.newCache(cfg)
	defer closeCache()

	ap := watchedAirport(cfg)
	fleet := cfg.Fleet.RosterOrDefault()

	fc := fetcher.New(fleet, bc)
	if budget != nil {
		fc.WithBudget(budget)
	}
	specs := f.newProviders(cfg)
	for _, s := range specs {
		fc.Register(s.provider, s.settings)
	}
	var hist fleetapi.HistoryLookup
	if hp := historySource(specs); hp != nil {
		hist = history.New(hp, bc, fleet, history.Config{})
	}
	if cfg.Fleet.ActiveSource != "" {
		if err := fc.SetActive(cfg.Fleet.ActiveSource); err != nil {
			return err
		}
	}

	sender := f.newSender(cfg)
	dispatcher := notify.NewDispatcher(sender, store, notify.NewFormatter(fleet, cfg.Push.ClickURL))
	tracker := differ.NewTracker(ap.ICAO, store)
	tree := supervisor.New(slog.Default(), supervisor.Config{})

	var sinks poller.MultiSink
	if cfg.Kafka.Enabled {
		producer, closeProducer := f.newProducer(cfg)
		defer closeProducer()
		sinks = append(sinks, poller.NewPublishSink(producer, kafkaTopic(cfg), fc.Active))

		consumer, closeConsumer := f.newConsumer(cfg)
		defer closeConsumer()
		handler := transitionHandler(dispatcher)
		tree.AddWorker(supervisor.NewFuncService("transition-consumer", func(ctx context.Context) error {
			return consumer.Consume(ctx, handler)
		}))
	} else {
		sinks = append(sinks, dispatcher)
	}
	if cfg.NATS.Enabled {
		pub, closeNATS, err := f.newNATS(cfg)
		if err != nil {
			return err
		}
		defer closeNATS()
		subject := cfg.NATS.Subject
		if subject == "" {
			subject = "fleet.transitions"
		}
		sinks = append(sinks, poller.NewPublishSink(pub, subject, fc.Active))
	}

	planner := poller.NewPlanner(poller.PlannerConfig{
		Baseline: time.Duration(cfg.Fleet.IntervalSeconds) * time.Second,
		Jitter:   time.Duration(cfg.Fleet.JitterSeconds) * time.Second,
	}, nil)
	fleetJob := poller.NewFleetJob(fc, tracker, sinks, planner)
	fleetPoller := poller.New(fleetJob)

	scraper := schedule.New(schedule.Config{
		URL:       cfg.Schedule.URL,
		Timeout:   time.Duration(cfg.Schedule.TimeoutSeconds) * time.Second,
		Retention: retention,
		Location:  loc,
	}, store)
	scrapePoller := poller.New(schedule.NewJob(scraper, scrapeInterval))

	tree.AddWorker(fleetPoller)
	tree.AddWorker(scrapePoller)

	api := fleetapi.New(fleetapi.Deps{
		Schedule:      store,
		Subscriptions: store,
		Scraper:       scraper,
		Notifier:      dispatcher,
		Sources:       fc,
		Fleet:         fleetJob,
		FleetTrigger:  fleetPoller,
		History:       hist,
		Airport:       ap,
		VAPIDPublic:   sender.PublicKey(),
	})
	tree.AddAPI(supervisor.NewHTTPService("api-http", apiAddr, api.Router(fleetapi.Options{
		AllowedOrigins:      cfg.Server.CORSOrigins,
		WriteLimitPerMinute: cfg.Server.WriteLimitPerMinute,
	})).OnListen(opts.onAPIListen))

	ops, err := newOpsRouter(opsRouterOpts{
		swaggerPath: opts.swaggerPath,
		cfg:         cfg,
		pollers:     []*poller.Poller{fleetPoller, scrapePoller},
		fetcher:     fc,
		tracker:     tracker,
	})
	if err != nil {
		return err
	}
	tree.AddAPI(supervisor.NewHTTPService("ops-http", opsAddr, ops).OnListen(opts.onOpsListen))

	slog.Info("fleet-server starting",
		"api", apiAddr, "ops", opsAddr, "source", fc.Active(), "watched", ap.ICAO,
		"kafka", cfg.Kafka.Enabled, "nats", cfg.NATS.Enabled)

	err = tree.Serve(ctx)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
