package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/FleetWatch/config"
	"github.com/BearBump/FleetWatch/internal/logging"
)

type fleetServerApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	opts   serverOpts
	f      serverFactories
}

func mustBootstrapFleetServer() *fleetServerApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("config parse error, %v", err))
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &fleetServerApp{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		opts:   serverOpts{swaggerPath: swaggerPath},
		f:      defaultServerFactories(),
	}
}

func (a *fleetServerApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
}

func (a *fleetServerApp) Run() error {
	return RunFleetServer(a.ctx, a.cfg, a.opts, a.f)
}
