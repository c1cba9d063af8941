package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func TestRebuildAndQuery(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "status.db")

	idx, err := Open(dbPath, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	month1 := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	month2 := time.Date(2022, 4, 1, 0, 0, 0, 0, time.UTC)

	pairs := []Pair{
		{ICAO: "45d2ed", Month: month1},
		{ICAO: "459cd3", Month: month1},
		{ICAO: "458d90", Month: month2},
	}
	if err := idx.Rebuild(ctx, pairs); err != nil {
		t.Fatal(err)
	}

	counts, err := idx.CountByMonth(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["2022-03"] != 2 {
		t.Fatalf("got %d for 2022-03, want 2", counts["2022-03"])
	}
	if counts["2022-04"] != 1 {
		t.Fatalf("got %d for 2022-04, want 1", counts["2022-04"])
	}

	has, err := idx.Has(ctx, "45d2ed", month1)
	if err != nil {
		t.Fatal(err)
	}
	if !has {
		t.Fatal("expected 45d2ed/2022-03 to be present")
	}

	has, err = idx.Has(ctx, "45d2ed", month2)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("expected 45d2ed/2022-04 to be absent")
	}

	months, err := idx.MonthsFor(ctx, "458d90")
	if err != nil {
		t.Fatal(err)
	}
	if len(months) != 1 || months[0] != "2022-04" {
		t.Fatalf("got %v, want [2022-04]", months)
	}
}

func TestRebuildReplacesPriorContents(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "status.db")

	idx, err := Open(dbPath, logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	month := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := idx.Rebuild(ctx, []Pair{{ICAO: "45d2ed", Month: month}}); err != nil {
		t.Fatal(err)
	}
	if err := idx.Rebuild(ctx, []Pair{{ICAO: "459cd3", Month: month}}); err != nil {
		t.Fatal(err)
	}

	has, err := idx.Has(ctx, "45d2ed", month)
	if err != nil {
		t.Fatal(err)
	}
	if has {
		t.Fatal("expected prior rebuild contents to be replaced")
	}
}
