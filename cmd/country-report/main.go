// Command country-report prints the Time-Varying Jet Set restricted to a
// single ISO 3166 country, mirroring the original pipeline's country.rs
// binary. It shares the jetset.ByCountry code path used by etl-legs's
// --country flag.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/aircraft"
	"github.com/jorgecardleitao/private-jets-go/internal/bootstrap"
	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/internal/jetset"
	"github.com/jorgecardleitao/private-jets-go/internal/model"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	accessKey := flag.String("access-key", "", "S3-compatible access key")
	secretAccessKey := flag.String("secret-access-key", "", "S3-compatible secret access key")
	country := flag.String("country", "", "ISO 3166 country filter, required")
	flag.Parse()

	if *country == "" {
		fmt.Fprintln(os.Stderr, "usage: country-report --country=Portugal")
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

	models, err := model.Load()
	if err != nil {
		log.Error("loading model table", logger.Error(err))
		os.Exit(1)
	}

	aircraftStore := aircraft.NewStore(c.Primary)
	years := bootstrap.YearRange(cfg.ETL.FirstYear, cfg.ETL.LastYear, time.Now().UTC().Year())

	set, err := jetset.ByCountry(ctx, aircraftStore, models, years, *country)
	if err != nil {
		log.Error("computing jet set", logger.Error(err))
		os.Exit(1)
	}

	seen := map[string]bool{}
	fmt.Printf("country=%s slots=%d\n", *country, len(set))
	for key, entry := range set {
		if seen[key.ICAO] {
			continue
		}
		seen[key.ICAO] = true
		fmt.Printf("%s\t%s\t%s\tGPH=%d\n", key.ICAO, entry.Aircraft.TailNumber, entry.Aircraft.Model, entry.GPH)
	}
}
