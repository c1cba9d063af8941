// Command etl-positions warms the monthly Position cache for every
// in-scope aircraft-month without computing legs, mirroring the original
// pipeline's standalone positions-only warm-up driver. Useful ahead of a
// heavier etl-legs run, and it exercises the Content Cache and Trace Client
// independently of the Leg State Machine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/aircraft"
	"github.com/jorgecardleitao/private-jets-go/internal/bootstrap"
	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/internal/jetset"
	"github.com/jorgecardleitao/private-jets-go/internal/model"
	"github.com/jorgecardleitao/private-jets-go/internal/trace"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	accessKey := flag.String("access-key", "", "S3-compatible access key")
	secretAccessKey := flag.String("secret-access-key", "", "S3-compatible secret access key")
	country := flag.String("country", "", "Optional ISO 3166 country filter for the jet set")
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *country != "" {
		cfg.ETL.Country = *country
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

	models, err := model.Load()
	if err != nil {
		log.Error("loading model table", logger.Error(err))
		os.Exit(1)
	}

	aircraftStore := aircraft.NewStore(c.Primary)
	years := bootstrap.YearRange(cfg.ETL.FirstYear, cfg.ETL.LastYear, time.Now().UTC().Year())
	set, err := jetset.Compute(ctx, aircraftStore, models, years, cfg.ETL.Country)
	if err != nil {
		log.Error("computing jet set", logger.Error(err))
		os.Exit(1)
	}
	log.Info("warming monthly positions", logger.Int("slots", len(set)))

	traceClient := trace.NewClient(trace.Config{
		Timeout:           time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
	}, log)
	traceStore := trace.NewStore(c, traceClient, 5)

	sem := make(chan struct{}, cfg.ETL.TaskConcurrency)
	var wg sync.WaitGroup
	for key := range set {
		wg.Add(1)
		sem <- struct{}{}
		go func(k jetset.Key) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := traceStore.MonthPositions(ctx, k.ICAO, k.Month); err != nil {
				log.Error("fetching month positions", logger.String("icao", k.ICAO), logger.Error(err))
			}
		}(key)
	}
	wg.Wait()
	log.Info("done warming positions")
}
