// Package etl implements the ETL Orchestrator: required/ready/completed set
// algebra over blob-store listings, bounded-concurrency per-(aircraft,
// month) task execution, yearly aggregation, and the status manifest.
package etl

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/blob"
	"github.com/jorgecardleitao/private-jets-go/internal/csvutil"
	"github.com/jorgecardleitao/private-jets-go/internal/jetset"
	"github.com/jorgecardleitao/private-jets-go/internal/legs"
	"github.com/jorgecardleitao/private-jets-go/internal/manifest"
	"github.com/jorgecardleitao/private-jets-go/internal/position"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

const (
	positionPrefix = "position/"
	legDataPrefix  = "leg/v2/data/"
	legAllPrefix   = "leg/v2/all/"
	statusKey      = "leg/v2/status.json"
)

func legKey(icao string, month time.Time) string {
	return fmt.Sprintf("%smonth=%s/icao_number=%s/data.csv", legDataPrefix, position.MonthKey(month), icao)
}

func yearAllKey(year int) string {
	return fmt.Sprintf("%syear=%d/data.csv", legAllPrefix, year)
}

// monthlyFetcher is the subset of *trace.Store the orchestrator needs,
// narrowed so tests can substitute a fake.
type monthlyFetcher interface {
	MonthPositions(ctx context.Context, icao string, month time.Time) ([]position.Position, error)
}

// ProgressEvent describes the outcome of one completed task, delivered to an
// optional Orchestrator.OnProgress hook so a caller (the TUI, the WebSocket
// broadcaster) can observe the run without polling the blob store.
type ProgressEvent struct {
	Key   jetset.Key
	Done  int
	Total int
	Err   error
}

// Orchestrator drives the leg ETL over a Time-Varying Jet Set.
type Orchestrator struct {
	store  blob.Store
	trace  monthlyFetcher
	logger *logger.Logger

	// OnProgress, if set, is invoked after every task completes (success or
	// failure) during Run. It must be safe for concurrent use.
	OnProgress func(ProgressEvent)
}

// New builds an Orchestrator.
func New(store blob.Store, trace monthlyFetcher, log *logger.Logger) *Orchestrator {
	return &Orchestrator{store: store, trace: trace, logger: log.Named("etl")}
}

func keysToICAOMonths(keys []string, prefix string) (map[jetset.Key]bool, error) {
	out := map[jetset.Key]bool{}
	for _, key := range keys {
		rel := strings.TrimPrefix(key, prefix)
		pairs, _, err := csvutil.ParseHivePath(rel)
		if err != nil {
			continue
		}
		icao, ok := csvutil.PartitionValue(pairs, "icao_number")
		if !ok {
			continue
		}
		monthStr, ok := csvutil.PartitionValue(pairs, "month")
		if !ok {
			continue
		}
		month, err := position.ParseMonthKey(monthStr)
		if err != nil {
			continue
		}
		out[jetset.Key{ICAO: icao, Month: month}] = true
	}
	return out, nil
}

// Ready returns the subset of required whose monthly positions have already
// been fetched (spec.md §4.7 "Ready" set).
func (o *Orchestrator) Ready(ctx context.Context, required jetset.Set) (map[jetset.Key]bool, error) {
	keys, err := o.store.List(ctx, positionPrefix)
	if err != nil {
		return nil, fmt.Errorf("etl: listing positions: %w", err)
	}
	present, err := keysToICAOMonths(keys, positionPrefix)
	if err != nil {
		return nil, err
	}
	return intersect(present, required), nil
}

// Completed returns the subset of required whose leg CSV has already been
// written (spec.md §4.7 "Completed" set).
func (o *Orchestrator) Completed(ctx context.Context, required jetset.Set) (map[jetset.Key]bool, error) {
	keys, err := o.store.List(ctx, legDataPrefix)
	if err != nil {
		return nil, fmt.Errorf("etl: listing legs: %w", err)
	}
	present, err := keysToICAOMonths(keys, legDataPrefix)
	if err != nil {
		return nil, err
	}
	return intersect(present, required), nil
}

func intersect(present map[jetset.Key]bool, required jetset.Set) map[jetset.Key]bool {
	out := map[jetset.Key]bool{}
	for k := range required {
		if present[k] {
			out[k] = true
		}
	}
	return out
}

// Todo returns Ready minus Completed, sorted ascending by (month, ICAO).
func (o *Orchestrator) Todo(ctx context.Context, required jetset.Set) ([]jetset.Key, error) {
	ready, err := o.Ready(ctx, required)
	if err != nil {
		return nil, err
	}
	completed, err := o.Completed(ctx, required)
	if err != nil {
		return nil, err
	}

	var todo []jetset.Key
	for k := range ready {
		if !completed[k] {
			todo = append(todo, k)
		}
	}
	sort.Slice(todo, func(i, j int) bool {
		if !todo[i].Month.Equal(todo[j].Month) {
			return todo[i].Month.Before(todo[j].Month)
		}
		return todo[i].ICAO < todo[j].ICAO
	})
	return todo, nil
}

// Task runs etl_task(aircraft, model, month): fetches the month's cached
// positions, runs the leg state machine, computes every Leg Row, and writes
// the per-(aircraft,month) leg CSV.
func (o *Orchestrator) Task(ctx context.Context, key jetset.Key, entry jetset.Entry) error {
	positions, err := o.trace.MonthPositions(ctx, key.ICAO, key.Month)
	if err != nil {
		return fmt.Errorf("etl: fetching positions for %s/%s: %w", key.ICAO, position.MonthKey(key.Month), err)
	}

	rows := make([]legs.Row, 0, len(positions)/50+1)
	for _, leg := range legs.Legs(positions) {
		rows = append(rows, legs.ToRow(key.ICAO, entry.Aircraft.TailNumber, entry.Aircraft.Model, float64(entry.GPH), leg))
	}

	data, err := csvutil.Encode(rows)
	if err != nil {
		return fmt.Errorf("etl: encoding legs for %s/%s: %w", key.ICAO, position.MonthKey(key.Month), err)
	}

	if err := o.store.Put(ctx, legKey(key.ICAO, key.Month), data); err != nil {
		return fmt.Errorf("etl: writing legs for %s/%s: %w", key.ICAO, position.MonthKey(key.Month), err)
	}
	return nil
}

// Run executes every Todo task with bounded concurrency. Per-task errors are
// logged and skipped, not fatal (spec.md §7): a failed task simply stays out
// of Completed and is retried on the next invocation.
func (o *Orchestrator) Run(ctx context.Context, required jetset.Set, concurrency int) error {
	if concurrency < 1 {
		concurrency = 400
	}

	todo, err := o.Todo(ctx, required)
	if err != nil {
		return err
	}
	o.logger.Info("running leg ETL", logger.Int("todo", len(todo)))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var done int64
	for _, key := range todo {
		entry := required[key]
		wg.Add(1)
		sem <- struct{}{}
		go func(key jetset.Key, entry jetset.Entry) {
			defer wg.Done()
			defer func() { <-sem }()
			err := o.Task(ctx, key, entry)
			if err != nil {
				o.logger.Error("task failed, skipping",
					logger.String("icao", key.ICAO), logger.String("month", position.MonthKey(key.Month)), logger.Error(err))
			}
			n := int(atomic.AddInt64(&done, 1))
			if o.OnProgress != nil {
				o.OnProgress(ProgressEvent{Key: key, Done: n, Total: len(todo), Err: err})
			}
		}(key, entry)
	}
	wg.Wait()
	return nil
}

// Aggregate groups Completed by year, concatenates every per-(ICAO,month)
// leg CSV into leg/v2/all/year=YYYY/data.csv, and returns the manifest.Status
// describing each year's coverage. baseURL prefixes the published URL for
// each year's rollup (empty disables URL construction).
func (o *Orchestrator) Aggregate(ctx context.Context, required jetset.Set, baseURL string) (manifest.Status, error) {
	completed, err := o.Completed(ctx, required)
	if err != nil {
		return nil, err
	}

	requiredByYear := map[int]int{}
	for k := range required {
		requiredByYear[k.Month.Year()]++
	}

	byYear := map[int][]jetset.Key{}
	for k := range completed {
		year := k.Month.Year()
		byYear[year] = append(byYear[year], k)
	}

	status := manifest.Status{}
	for year, keys := range byYear {
		sort.Slice(keys, func(i, j int) bool {
			if !keys[i].Month.Equal(keys[j].Month) {
				return keys[i].Month.Before(keys[j].Month)
			}
			return keys[i].ICAO < keys[j].ICAO
		})

		var rows []legs.Row
		for _, key := range keys {
			data, ok, err := o.store.MaybeGet(ctx, legKey(key.ICAO, key.Month))
			if err != nil {
				return nil, fmt.Errorf("etl: reading %s/%s for year %d: %w", key.ICAO, position.MonthKey(key.Month), year, err)
			}
			if !ok {
				continue
			}
			parsed, err := csvutil.Decode(data, legs.ParseRow)
			if err != nil {
				return nil, fmt.Errorf("etl: decoding %s/%s for year %d: %w", key.ICAO, position.MonthKey(key.Month), year, err)
			}
			rows = append(rows, parsed...)
		}

		data, err := csvutil.Encode(rows)
		if err != nil {
			return nil, fmt.Errorf("etl: encoding year %d rollup: %w", year, err)
		}

		key := yearAllKey(year)
		if err := o.store.Put(ctx, key, data); err != nil {
			return nil, fmt.Errorf("etl: writing year %d rollup: %w", year, err)
		}

		url := ""
		if baseURL != "" {
			url = strings.TrimSuffix(baseURL, "/") + "/" + key
		}
		status[year] = manifest.YearStatus{
			IcaoMonthsToProcess: requiredByYear[year],
			IcaoMonthsProcessed: len(keys),
			URL:                 url,
		}
	}

	data, err := manifest.Encode(status)
	if err != nil {
		return nil, err
	}
	if err := o.store.Put(ctx, statusKey, data); err != nil {
		return nil, fmt.Errorf("etl: writing status manifest: %w", err)
	}

	return status, nil
}
