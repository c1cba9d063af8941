// Command status reads leg/v2/status.json and prints a per-year summary,
// rebuilding the local sqlite index over the Completed-set partition
// listing so repeated invocations answer "what's left" without re-listing
// the blob store every time.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/aircraft"
	"github.com/jorgecardleitao/private-jets-go/internal/blob"
	"github.com/jorgecardleitao/private-jets-go/internal/bootstrap"
	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/internal/etl"
	indexsqlite "github.com/jorgecardleitao/private-jets-go/internal/index/sqlite"
	"github.com/jorgecardleitao/private-jets-go/internal/jetset"
	"github.com/jorgecardleitao/private-jets-go/internal/manifest"
	"github.com/jorgecardleitao/private-jets-go/internal/model"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	accessKey := flag.String("access-key", "", "S3-compatible access key")
	secretAccessKey := flag.String("secret-access-key", "", "S3-compatible secret access key")
	indexDir := flag.String("index-dir", ".private-jets-index", "Directory for the local sqlite completed-set index")
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

	data, ok, err := c.Primary.MaybeGet(ctx, "leg/v2/status.json")
	if err != nil {
		log.Error("reading status manifest", logger.Error(err))
		os.Exit(1)
	}
	if !ok {
		fmt.Println("no status.json found yet; run etl-legs first")
		return
	}

	status, err := manifest.Decode(data)
	if err != nil {
		log.Error("decoding status manifest", logger.Error(err))
		os.Exit(1)
	}

	years := make([]int, 0, len(status))
	for y := range status {
		years = append(years, y)
	}
	sort.Ints(years)
	for _, y := range years {
		s := status[y]
		fmt.Printf("%d: %d/%d aircraft-months processed, %s\n", y, s.IcaoMonthsProcessed, s.IcaoMonthsToProcess, s.URL)
	}

	if err := rebuildIndex(ctx, cfg, c.Primary, *indexDir, log); err != nil {
		log.Warn("rebuilding local index", logger.Error(err))
	}
}

// rebuildIndex recomputes the jet set's Completed subset from the blob
// store's current listing and mirrors it into the local sqlite index.
func rebuildIndex(ctx context.Context, cfg *config.Config, store blob.Store, indexDir string, log *logger.Logger) error {
	models, err := model.Load()
	if err != nil {
		return fmt.Errorf("loading model table: %w", err)
	}

	aircraftStore := aircraft.NewStore(store)
	years := bootstrap.YearRange(cfg.ETL.FirstYear, cfg.ETL.LastYear, time.Now().UTC().Year())

	set, err := jetset.Compute(ctx, aircraftStore, models, years, cfg.ETL.Country)
	if err != nil {
		return fmt.Errorf("computing jet set: %w", err)
	}

	orchestrator := etl.New(store, nil, log)
	completed, err := orchestrator.Completed(ctx, set)
	if err != nil {
		return fmt.Errorf("listing completed set: %w", err)
	}

	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	path := indexsqlite.DefaultPath(indexDir, cfg.ETL.FirstYear, cfg.ETL.LastYear)
	idx, err := indexsqlite.Open(path, log)
	if err != nil {
		return fmt.Errorf("opening index: %w", err)
	}
	defer idx.Close()

	pairs := make([]indexsqlite.Pair, 0, len(completed))
	for key := range completed {
		pairs = append(pairs, indexsqlite.Pair{ICAO: key.ICAO, Month: key.Month})
	}
	if err := idx.Rebuild(ctx, pairs); err != nil {
		return fmt.Errorf("rebuilding index: %w", err)
	}

	counts, err := idx.CountByMonth(ctx)
	if err != nil {
		return fmt.Errorf("querying index: %w", err)
	}
	log.Info("rebuilt local completed-set index", logger.Int("months", len(counts)))
	return nil
}
