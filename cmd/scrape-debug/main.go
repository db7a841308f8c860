package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BearBump/FleetWatch/internal/logging"
	"github.com/BearBump/FleetWatch/internal/services/schedule"
)

func main() {
	url := flag.String("url", schedule.DefaultURL, "schedule page URL")
	timeout := flag.Duration("timeout", schedule.DefaultTimeout, "fetch timeout")
	flag.Parse()

	logging.Setup("info", logging.FormatConsole)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := schedule.New(schedule.Config{URL: *url, Timeout: *timeout}, nil)
	started := time.Now()
	doc, err := s.Fetch(ctx)
	if err != nil {
		slog.Error("fetch schedule page", "url", *url, "error", err.Error())
		os.Exit(1)
	}
	slog.Info("page fetched", "url", *url, "took", time.Since(started))

	rep := schedule.Inspect(doc)
	fmt.Printf("tables: %d\n", rep.Tables)
	fmt.Printf("h3/h4 headings: %d\n", rep.Headings)
	for _, h := range rep.FirstHeadings {
		fmt.Printf("  %s\n", h)
	}
	fmt.Println("first table rows:")
	for i, row := range rep.FirstTableRows {
		fmt.Printf("  %d: %s\n", i, strings.Join(row, " | "))
	}
	if rep.LocationStrategy == "" {
		fmt.Println("locations: no strategy matched")
		return
	}
	fmt.Printf("locations: %d via %s\n", len(rep.Locations), rep.LocationStrategy)
	for num, where := range rep.Locations {
		fmt.Printf("  BelugaXL-%s: %s\n", num, where)
	}
}
