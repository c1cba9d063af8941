// Command single-day fetches one cached (icao, date) trace and prints its
// derived legs, mirroring the original pipeline's single_day introspection
// example. It is the manual cross-check tool for spec.md §8's seed
// end-to-end scenarios.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/bootstrap"
	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/internal/legs"
	"github.com/jorgecardleitao/private-jets-go/internal/trace"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	accessKey := flag.String("access-key", "", "S3-compatible access key")
	secretAccessKey := flag.String("secret-access-key", "", "S3-compatible secret access key")
	icao := flag.String("icao", "", "Lowercase 6-char ICAO hex address, e.g. 45d2ed")
	date := flag.String("date", "", "Date in YYYY-MM-DD, e.g. 2023-10-13")
	flag.Parse()

	if *icao == "" || *date == "" {
		fmt.Fprintln(os.Stderr, "usage: single-day --icao=45d2ed --date=2023-10-13")
		os.Exit(1)
	}
	day, err := time.Parse("2006-01-02", *date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --date %q: %v\n", *date, err)
		os.Exit(1)
	}

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()
	c, err := bootstrap.OpenCache(ctx, cfg, bootstrap.Credentials{AccessKey: *accessKey, SecretAccessKey: *secretAccessKey}, log)
	if err != nil {
		log.Error("opening cache", logger.Error(err))
		os.Exit(1)
	}

	traceClient := trace.NewClient(trace.Config{
		Timeout:           time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
	}, log)
	traceStore := trace.NewStore(c, traceClient, 1)

	positions, err := traceStore.DayPositions(ctx, *icao, day)
	if err != nil {
		log.Error("fetching day", logger.Error(err))
		os.Exit(1)
	}

	fmt.Printf("icao=%s date=%s positions=%d\n", *icao, *date, len(positions))
	for i, leg := range legs.Legs(positions) {
		fmt.Printf("leg %d: %s -> %s (duration=%s distance=%.1fkm great_circle=%.1fkm)\n",
			i+1, leg.From().Datetime.Format(time.RFC3339), leg.To().Datetime.Format(time.RFC3339),
			leg.Duration(), leg.LengthKm(), leg.GreatCircleDistanceKm())
	}
}
