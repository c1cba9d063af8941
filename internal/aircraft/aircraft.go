// Package aircraft implements the Aircraft Snapshot Store: time-partitioned,
// read-only snapshots of the provider's aircraft registry.
package aircraft

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/blob"
	"github.com/jorgecardleitao/private-jets-go/internal/csvutil"
)

// Aircraft is the in-memory representation of one registry entry.
type Aircraft struct {
	// ICAONumber is the lowercase 6-char hex ICAO transponder address.
	ICAONumber string
	// TailNumber is the human-readable registration (e.g. "OY-GFS").
	TailNumber string
	// TypeDesignator is the ICAO type designator (e.g. "F2TH").
	TypeDesignator string
	// Model is the human-readable model name, as matched against the
	// Private-Jet Model Table.
	Model string
	// Country is the ISO 3166 country derived from the ICAO hex range
	// table, empty when no range claims this address.
	Country string
}

// Header implements csvutil.Row.
func (Aircraft) Header() []string {
	return []string{"icao_number", "tail_number", "type_designator", "model", "country"}
}

// Row implements csvutil.Row.
func (a Aircraft) Row() []string {
	return []string{a.ICAONumber, a.TailNumber, a.TypeDesignator, a.Model, a.Country}
}

// ParseAircraft parses one CSV record produced by Aircraft.Row.
func ParseAircraft(record []string) (Aircraft, error) {
	if len(record) != 5 {
		return Aircraft{}, fmt.Errorf("aircraft: invalid row length %d", len(record))
	}
	return Aircraft{
		ICAONumber:     record[0],
		TailNumber:     record[1],
		TypeDesignator: record[2],
		Model:          record[3],
		Country:        record[4],
	}, nil
}

const snapshotPrefix = "aircraft/db/"

func snapshotKey(date time.Time) string {
	return fmt.Sprintf("%sdate=%s/data.csv", snapshotPrefix, date.UTC().Format("2006-01-02"))
}

// Store reads and writes Aircraft Snapshots against a blob.Store.
type Store struct {
	store blob.Store
}

// NewStore wraps a blob.Store as an Aircraft Snapshot Store.
func NewStore(store blob.Store) *Store {
	return &Store{store: store}
}

// Write persists a new snapshot. Snapshots are append-only: callers should
// not rewrite an existing date with different contents.
func (s *Store) Write(ctx context.Context, date time.Time, aircraft []Aircraft) error {
	sort.Slice(aircraft, func(i, j int) bool { return aircraft[i].ICAONumber < aircraft[j].ICAONumber })

	data, err := csvutil.Encode(aircraft)
	if err != nil {
		return fmt.Errorf("aircraft: encoding snapshot: %w", err)
	}
	if err := s.store.Put(ctx, snapshotKey(date), data); err != nil {
		return fmt.Errorf("aircraft: writing snapshot: %w", err)
	}
	return nil
}

// Read loads the snapshot for the exact given date. It returns (nil, false,
// nil) when no snapshot exists for that date.
func (s *Store) Read(ctx context.Context, date time.Time) ([]Aircraft, bool, error) {
	data, ok, err := s.store.MaybeGet(ctx, snapshotKey(date))
	if err != nil {
		return nil, false, fmt.Errorf("aircraft: reading snapshot: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	list, err := csvutil.Decode(data, ParseAircraft)
	if err != nil {
		return nil, false, fmt.Errorf("aircraft: decoding snapshot: %w", err)
	}
	return list, true, nil
}

// Dates returns every snapshot date present in the store, ascending.
func (s *Store) Dates(ctx context.Context) ([]time.Time, error) {
	keys, err := s.store.List(ctx, snapshotPrefix)
	if err != nil {
		return nil, fmt.Errorf("aircraft: listing snapshots: %w", err)
	}

	var dates []time.Time
	for _, key := range keys {
		pairs, _, err := csvutil.ParseHivePath(strings.TrimPrefix(key, snapshotPrefix))
		if err != nil {
			continue
		}
		value, ok := csvutil.PartitionValue(pairs, "date")
		if !ok {
			continue
		}
		d, err := time.Parse("2006-01-02", value)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// All loads every snapshot in the store, keyed by snapshot date.
func (s *Store) All(ctx context.Context) (map[time.Time][]Aircraft, error) {
	dates, err := s.Dates(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[time.Time][]Aircraft, len(dates))
	for _, d := range dates {
		list, ok, err := s.Read(ctx, d)
		if err != nil {
			return nil, err
		}
		if ok {
			out[d] = list
		}
	}
	return out, nil
}

// iter over uppercase prefixes A-F and 0-9, used by the registry-extract
// ETL to paginate ADS-B Exchange's db-current tree.
func rootPrefixes() []string {
	var out []string
	for c := 'A'; c <= 'F'; c++ {
		out = append(out, string(c))
	}
	for c := '0'; c <= '9'; c++ {
		out = append(out, string(c))
	}
	return out
}

// RootPrefixes lists the root prefixes paginated by Registry.Extract.
var RootPrefixes = rootPrefixes()
