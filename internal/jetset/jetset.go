// Package jetset implements the Time-Varying Jet Set: for each month in a
// requested range, the population of aircraft in scope, derived from the
// nearest Aircraft Snapshot filtered to the Private-Jet Model Table and an
// optional country.
package jetset

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/aircraft"
	"github.com/jorgecardleitao/private-jets-go/internal/model"
	"github.com/jorgecardleitao/private-jets-go/internal/position"
)

// Key identifies one (aircraft, month) slot of the jet set.
type Key struct {
	ICAO  string
	Month time.Time
}

// Set maps a Key to the Aircraft that occupied it, plus the model's GPH.
type Set map[Key]Entry

// Entry is the aircraft occupying a jet-set slot, together with the GPH it
// should be billed with for that month.
type Entry struct {
	Aircraft aircraft.Aircraft
	GPH      int
}

// closestSnapshotDate returns the element of dates with the smallest
// absolute day difference to target. Ties are broken by taking the later
// date (spec.md §4.6). dates must be non-empty.
func closestSnapshotDate(dates []time.Time, target time.Time) time.Time {
	sorted := append([]time.Time(nil), dates...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	best := sorted[0]
	bestDiff := absDays(best, target)
	for _, d := range sorted[1:] {
		diff := absDays(d, target)
		if diff <= bestDiff {
			best = d
			bestDiff = diff
		}
	}
	return best
}

func absDays(a, b time.Time) int {
	d := int(a.Sub(b).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

// Compute builds the jet set for every month in years (1..12 per year),
// restricted to months strictly before the first day of the current month,
// using snapshots from the Aircraft Snapshot Store and the given model
// table. When country is non-empty, only aircraft registered to that ISO
// 3166 country are included.
func Compute(ctx context.Context, store *aircraft.Store, models model.Table, years []int, country string) (Set, error) {
	snapshots, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("jetset: loading snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		return Set{}, nil
	}

	filtered := make(map[time.Time]map[string]aircraft.Aircraft, len(snapshots))
	for date, list := range snapshots {
		byICAO := make(map[string]aircraft.Aircraft)
		for _, a := range list {
			if country != "" && a.Country != country {
				continue
			}
			if _, ok := models[a.Model]; !ok {
				continue
			}
			byICAO[a.ICAONumber] = a
		}
		filtered[date] = byICAO
	}

	var dates []time.Time
	for d := range filtered {
		dates = append(dates, d)
	}

	now := position.FirstOfMonth(time.Now().UTC())

	out := Set{}
	for _, year := range years {
		for m := time.January; m <= time.December; m++ {
			month := time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
			if !month.Before(now) {
				continue
			}

			closest := closestSnapshotDate(dates, month)
			for icao, a := range filtered[closest] {
				out[Key{ICAO: icao, Month: month}] = Entry{Aircraft: a, GPH: models[a.Model].GPH}
			}
		}
	}
	return out, nil
}

// ByCountry is a thin façade over Compute for the single-country filter
// path shared by the orchestrator's --country flag and cmd/country-report.
func ByCountry(ctx context.Context, store *aircraft.Store, models model.Table, years []int, country string) (Set, error) {
	return Compute(ctx, store, models, years, country)
}
