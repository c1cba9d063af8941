// Command etl-aircrafts is the registry-extract ETL: it paginates ADS-B
// Exchange's db-current prefix tree, assembles an Aircraft Snapshot for
// today, and writes it to aircraft/db/date=YYYY-MM-DD/data.csv.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/aircraft"
	"github.com/jorgecardleitao/private-jets-go/internal/bootstrap"
	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/internal/country"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	accessKey := flag.String("access-key", "", "S3-compatible access key")
	secretAccessKey := flag.String("secret-access-key", "", "S3-compatible secret access key")
	flag.Parse()

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

	countries, err := country.Load()
	if err != nil {
		log.Error("loading country range table", logger.Error(err))
		os.Exit(1)
	}

	registry := aircraft.NewRegistry(&http.Client{Timeout: time.Duration(cfg.Provider.TimeoutSeconds) * time.Second}, countries, log)

	log.Info("extracting aircraft registry")
	list, err := registry.Extract(ctx)
	if err != nil {
		log.Error("extracting registry", logger.Error(err))
		os.Exit(1)
	}
	log.Info("extracted registry", logger.Int("aircraft", len(list)))

	store := aircraft.NewStore(c.Primary)
	today := time.Now().UTC()
	if err := store.Write(ctx, today, list); err != nil {
		log.Error("writing snapshot", logger.Error(err))
		os.Exit(1)
	}
	log.Info("wrote aircraft snapshot", logger.Time("date", today))
}
