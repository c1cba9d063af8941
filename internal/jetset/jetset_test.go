package jetset

import (
	"context"
	"testing"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/aircraft"
	"github.com/jorgecardleitao/private-jets-go/internal/blob"
	"github.com/jorgecardleitao/private-jets-go/internal/model"
)

func TestClosestSnapshotDateTieBreaksToLater(t *testing.T) {
	dates := []time.Time{
		time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2010, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	got := closestSnapshotDate(dates, time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC))
	want := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	got = closestSnapshotDate(dates, time.Date(2011, 2, 1, 0, 0, 0, 0, time.UTC))
	want = time.Date(2010, 2, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}

	// Both snapshots are 10 days from the target: the later one wins.
	tied := []time.Time{
		time.Date(2022, 2, 11, 0, 0, 0, 0, time.UTC),
		time.Date(2022, 1, 22, 0, 0, 0, 0, time.UTC),
	}
	got = closestSnapshotDate(tied, time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC))
	want = time.Date(2022, 2, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("tie: got %v want %v", got, want)
	}
}

func TestComputeFiltersByModelAndCountry(t *testing.T) {
	store := aircraft.NewStore(blob.NewLocalDisk(t.TempDir()))
	ctx := context.Background()

	snapshotDate := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	list := []aircraft.Aircraft{
		{ICAONumber: "459cd3", TailNumber: "OY-GFS", Model: "GULFSTREAM 5", Country: "Denmark"},
		{ICAONumber: "45d2ed", TailNumber: "OY-TWM", Model: "BOMBARDIER GLOBAL EXPRESS", Country: "France"},
		{ICAONumber: "abcdef", TailNumber: "N999ZZ", Model: "BOEING 737", Country: "United States"},
	}
	if err := store.Write(ctx, snapshotDate, list); err != nil {
		t.Fatal(err)
	}

	models := model.Table{
		"GULFSTREAM 5":               model.Model{Model: "GULFSTREAM 5", GPH: 450},
		"BOMBARDIER GLOBAL EXPRESS": model.Model{Model: "BOMBARDIER GLOBAL EXPRESS", GPH: 430},
	}

	set, err := Compute(ctx, store, models, []int{2021}, "")
	if err != nil {
		t.Fatal(err)
	}

	jan2021 := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, ok := set[Key{ICAO: "459cd3", Month: jan2021}]; !ok {
		t.Fatal("expected 459cd3 in the jet set for January 2021")
	}
	if _, ok := set[Key{ICAO: "abcdef", Month: jan2021}]; ok {
		t.Fatal("737 is not in the model table and must be excluded")
	}

	frSet, err := Compute(ctx, store, models, []int{2021}, "France")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := frSet[Key{ICAO: "459cd3", Month: jan2021}]; ok {
		t.Fatal("Danish aircraft must be excluded by the France country filter")
	}
	if _, ok := frSet[Key{ICAO: "45d2ed", Month: jan2021}]; !ok {
		t.Fatal("expected French aircraft in the France-filtered jet set")
	}
}

func TestComputeExcludesCurrentAndFutureMonths(t *testing.T) {
	store := aircraft.NewStore(blob.NewLocalDisk(t.TempDir()))
	ctx := context.Background()
	futureYear := time.Now().UTC().Year() + 5

	if err := store.Write(ctx, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), []aircraft.Aircraft{
		{ICAONumber: "459cd3", Model: "GULFSTREAM 5"},
	}); err != nil {
		t.Fatal(err)
	}

	models := model.Table{"GULFSTREAM 5": model.Model{Model: "GULFSTREAM 5", GPH: 450}}

	set, err := Compute(ctx, store, models, []int{futureYear}, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(set) != 0 {
		t.Fatalf("got %d entries, want 0 for a future year", len(set))
	}
}
