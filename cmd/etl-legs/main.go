// Command etl-legs drives the ETL Orchestrator end to end: it computes the
// Time-Varying Jet Set for the configured year range, runs every Todo task
// with bounded concurrency, and aggregates the yearly rollup and status
// manifest.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-chi/chi/v5"

	"github.com/jorgecardleitao/private-jets-go/internal/aircraft"
	"github.com/jorgecardleitao/private-jets-go/internal/bootstrap"
	"github.com/jorgecardleitao/private-jets-go/internal/config"
	"github.com/jorgecardleitao/private-jets-go/internal/etl"
	"github.com/jorgecardleitao/private-jets-go/internal/jetset"
	"github.com/jorgecardleitao/private-jets-go/internal/manifest"
	"github.com/jorgecardleitao/private-jets-go/internal/model"
	"github.com/jorgecardleitao/private-jets-go/internal/trace"
	"github.com/jorgecardleitao/private-jets-go/internal/websocket"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	accessKey := flag.String("access-key", "", "S3-compatible access key (mutually required with --secret-access-key; omit both for local disk)")
	secretAccessKey := flag.String("secret-access-key", "", "S3-compatible secret access key")
	country := flag.String("country", "", "Optional ISO 3166 country filter for the jet set")
	watchAddr := flag.String("watch", "", "Optional address to serve a live-progress WebSocket on, e.g. :8089")
	useTUI := flag.Bool("tui", false, "Render a live Bubble Tea progress view instead of plain log lines")
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

	if err := run(context.Background(), cfg, bootstrap.Credentials{AccessKey: *accessKey, SecretAccessKey: *secretAccessKey}, *watchAddr, *useTUI, log); err != nil {
		log.Error("etl-legs failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, creds bootstrap.Credentials, watchAddr string, useTUI bool, log *logger.Logger) error {
	c, err := bootstrap.OpenCache(ctx, cfg, creds, log)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}

	models, err := model.Load()
	if err != nil {
		return fmt.Errorf("loading private-jet model table: %w", err)
	}

	aircraftStore := aircraft.NewStore(c.Primary)

	years := bootstrap.YearRange(cfg.ETL.FirstYear, cfg.ETL.LastYear, time.Now().UTC().Year())
	set, err := jetset.Compute(ctx, aircraftStore, models, years, cfg.ETL.Country)
	if err != nil {
		return fmt.Errorf("computing jet set: %w", err)
	}
	log.Info("computed jet set", logger.Int("slots", len(set)))

	traceClient := trace.NewClient(trace.Config{
		Timeout:           time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
	}, log)
	traceStore := trace.NewStore(c, traceClient, cfg.ETL.TaskConcurrency)

	orchestrator := etl.New(c.Primary, traceStore, log)

	if cfg.Server.Port > 0 {
		healthAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		healthMux := http.NewServeMux()
		healthMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		healthServer := &http.Server{Addr: healthAddr, Handler: healthMux}
		go func() {
			log.Info("serving health-check endpoint", logger.String("addr", healthAddr))
			if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("health server error", logger.Error(err))
			}
		}()
	}

	var hub *websocket.Hub
	if watchAddr != "" {
		hub = websocket.NewHub(log)
		go hub.Run()
		router := chi.NewRouter()
		router.Get("/ws", func(w http.ResponseWriter, r *http.Request) { hub.ServeHTTP(w, r) })
		router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
		server := &http.Server{Addr: watchAddr, Handler: router}
		go func() {
			log.Info("serving live-progress websocket", logger.String("addr", watchAddr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("watch server error", logger.Error(err))
			}
		}()
	}

	var prog *progressModel
	var program *tea.Program
	if useTUI {
		prog = newProgressModel()
		program = tea.NewProgram(prog)
	}

	orchestrator.OnProgress = func(ev etl.ProgressEvent) {
		eventType := websocket.EventTaskCompleted
		errMsg := ""
		if ev.Err != nil {
			eventType = websocket.EventTaskFailed
			errMsg = ev.Err.Error()
		}
		if hub != nil {
			hub.Broadcast(websocket.Event{
				Type:  eventType,
				ICAO:  ev.Key.ICAO,
				Month: ev.Key.Month.Format("2006-01"),
				Error: errMsg,
				Done:  ev.Done,
				Todo:  ev.Total,
			})
		}
		if program != nil {
			program.Send(progressTickMsg{done: ev.Done, total: ev.Total, failed: ev.Err != nil})
		}
	}

	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		runErr = orchestrator.Run(ctx, set, cfg.ETL.TaskConcurrency)
	}()

	if program != nil {
		go func() {
			<-done
			program.Send(progressDoneMsg{})
		}()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("running TUI: %w", err)
		}
	} else {
		<-done
	}
	if runErr != nil {
		return fmt.Errorf("running ETL: %w", runErr)
	}

	if hub != nil {
		hub.Broadcast(websocket.Event{Type: websocket.EventRunFinished})
	}

	status, err := orchestrator.Aggregate(ctx, set, cfg.ETL.BaseURL)
	if err != nil {
		return fmt.Errorf("aggregating yearly rollups: %w", err)
	}
	log.Info("aggregation complete", logger.Int("years", len(status)))

	if cfg.ETL.StatusSecret != "" {
		token, err := manifest.Sign(status, []byte(cfg.ETL.StatusSecret))
		if err != nil {
			return fmt.Errorf("signing status manifest: %w", err)
		}
		log.Info("signed status manifest", logger.String("token", token))
	}

	return nil
}
