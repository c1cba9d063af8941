package trace

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/cache"
	"github.com/jorgecardleitao/private-jets-go/internal/position"
)

// fetcher is the subset of *Client used by Store, narrowed so tests can
// substitute a fake provider without standing up real HTTP.
type fetcher interface {
	Fetch(ctx context.Context, icao string, day time.Time) ([]byte, error)
}

// Store derives and persists monthly position blobs on top of the Content
// Cache and a Client, implementing the Daily/Monthly Position Store of
// spec.md §4.4.
type Store struct {
	cache            *cache.Cache
	client           fetcher
	dailyConcurrency int
}

// NewStore builds a Store. dailyConcurrency bounds the number of concurrent
// per-day fetches within a single month_positions call (default 5 per
// spec.md §4.4).
func NewStore(c *cache.Cache, client *Client, dailyConcurrency int) *Store {
	if dailyConcurrency < 1 {
		dailyConcurrency = 5
	}
	return &Store{cache: c, client: client, dailyConcurrency: dailyConcurrency}
}

// DayPositions fetches and decodes the single-day trace for (icao, day)
// through the Content Cache, without persisting a monthly rollup. Used by
// the single-day debug tool and internally by MonthPositions.
func (s *Store) DayPositions(ctx context.Context, icao string, day time.Time) ([]position.Position, error) {
	return s.dayPositions(ctx, icao, day)
}

func (s *Store) dayPositions(ctx context.Context, icao string, day time.Time) ([]position.Position, error) {
	action := cache.ActionForDate(day)
	key := position.DailyTraceKey(icao, day)

	data, err := s.cache.Call(ctx, key, func(ctx context.Context) ([]byte, error) {
		return s.client.Fetch(ctx, icao, day)
	}, action)
	if err != nil {
		return nil, fmt.Errorf("trace: fetching day %s for %s: %w", day.Format("2006-01-02"), icao, err)
	}

	positions, err := Decode(icao, data)
	if err != nil {
		// A malformed payload is treated as an empty day rather than aborting
		// the whole month (spec.md §7 decode error policy).
		return nil, nil
	}
	return positions, nil
}

// MonthPositions implements month_positions(ICAO, month): fetches every day
// in [month, end-of-month) with bounded concurrency, flattens and sorts by
// timestamp, and persists the result at the monthly partition key. month
// must be the first day of its month.
func (s *Store) MonthPositions(ctx context.Context, icao string, month time.Time) ([]position.Position, error) {
	if month.Day() != 1 {
		return nil, fmt.Errorf("trace: month_positions requires the first day of the month, got %s", month.Format("2006-01-02"))
	}
	month = position.FirstOfMonth(month)
	end := position.NextMonth(month)
	key := position.MonthPositionsKey(icao, month)
	action := monthAction(month)

	data, err := s.cache.Call(ctx, key, func(ctx context.Context) ([]byte, error) {
		return s.fetchMonth(ctx, icao, month, end)
	}, action)
	if err != nil {
		return nil, fmt.Errorf("trace: month_positions %s/%s: %w", icao, position.MonthKey(month), err)
	}

	return decodePositions(icao, data)
}

func monthAction(month time.Time) cache.Action {
	now := time.Now().UTC()
	currentMonth := position.FirstOfMonth(now)
	if !month.Before(currentMonth) {
		return cache.ReadFetch
	}
	return cache.ReadFetchWrite
}

func (s *Store) fetchMonth(ctx context.Context, icao string, month, end time.Time) ([]byte, error) {
	var days []time.Time
	for d := month; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}

	results := make([][]position.Position, len(days))
	errs := make([]error, len(days))

	sem := make(chan struct{}, s.dailyConcurrency)
	var wg sync.WaitGroup
	for i, d := range days {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, d time.Time) {
			defer wg.Done()
			defer func() { <-sem }()
			positions, err := s.dayPositions(ctx, icao, d)
			results[i] = positions
			errs[i] = err
		}(i, d)
	}
	wg.Wait()

	var all []position.Position
	for i, err := range errs {
		if err != nil {
			return nil, err
		}
		all = append(all, results[i]...)
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Datetime.Before(all[j].Datetime) })
	return encodePositions(all)
}

// AircraftPositions implements aircraft_positions(from, to): the union of
// month fetches for every month touched by [from, to), filtered to that
// half-open range and re-sorted. Each distinct month is fetched at most
// once.
func (s *Store) AircraftPositions(ctx context.Context, icao string, from, to time.Time) ([]position.Position, error) {
	months := monthsBetween(from, to)

	var all []position.Position
	for _, m := range months {
		monthly, err := s.MonthPositions(ctx, icao, m)
		if err != nil {
			return nil, err
		}
		for _, p := range monthly {
			if !p.Datetime.Before(from) && p.Datetime.Before(to) {
				all = append(all, p)
			}
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].Datetime.Before(all[j].Datetime) })
	return all, nil
}

func monthsBetween(from, to time.Time) []time.Time {
	var months []time.Time
	m := position.FirstOfMonth(from)
	last := position.FirstOfMonth(to.AddDate(0, 0, -1))
	for !m.After(last) {
		months = append(months, m)
		m = position.NextMonth(m)
	}
	return months
}
