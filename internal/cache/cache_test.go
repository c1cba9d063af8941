package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/blob"
	"github.com/jorgecardleitao/private-jets-go/pkg/logger"
)

func TestActionForDate(t *testing.T) {
	now := time.Now().UTC()
	if got := ActionForDate(now); got != ReadFetch {
		t.Fatalf("today: got %v, want ReadFetch", got)
	}
	if got := ActionForDate(now.AddDate(0, 0, 1)); got != ReadFetch {
		t.Fatalf("tomorrow: got %v, want ReadFetch", got)
	}
	if got := ActionForDate(now.AddDate(0, 0, -1)); got != ReadFetchWrite {
		t.Fatalf("yesterday: got %v, want ReadFetchWrite", got)
	}
}

func TestCallReadFetchWriteHit(t *testing.T) {
	primary := blob.NewLocalDisk(t.TempDir())
	c := New(primary, nil, logger.Nop())

	if err := primary.Put(context.Background(), "k", []byte("cached")); err != nil {
		t.Fatal(err)
	}

	calls := 0
	data, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		calls++
		return []byte("fetched"), nil
	}, ReadFetchWrite)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cached" {
		t.Fatalf("got %q, want cached content", data)
	}
	if calls != 0 {
		t.Fatalf("fetch should not be called on hit, got %d calls", calls)
	}
}

func TestCallReadFetchWriteMissWrites(t *testing.T) {
	primary := blob.NewLocalDisk(t.TempDir())
	c := New(primary, nil, logger.Nop())

	data, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return []byte("fetched"), nil
	}, ReadFetchWrite)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fetched" {
		t.Fatalf("got %q", data)
	}

	got, ok, err := primary.MaybeGet(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("expected key to be written, ok=%v err=%v", ok, err)
	}
	if string(got) != "fetched" {
		t.Fatalf("got %q", got)
	}
}

func TestCallReadFetchNeverWrites(t *testing.T) {
	primary := blob.NewLocalDisk(t.TempDir())
	c := New(primary, nil, logger.Nop())

	_, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return []byte("fetched"), nil
	}, ReadFetch)
	if err != nil {
		t.Fatal(err)
	}

	_, ok, err := primary.MaybeGet(context.Background(), "k")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("ReadFetch must never write")
	}
}

func TestCallIdempotentContent(t *testing.T) {
	primary := blob.NewLocalDisk(t.TempDir())
	c := New(primary, nil, logger.Nop())

	first, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return []byte("first"), nil
	}, ReadFetchWrite)
	if err != nil {
		t.Fatal(err)
	}

	second, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return []byte("second"), nil
	}, ReadFetchWrite)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Fatalf("calls for the same key diverged: %q vs %q", first, second)
	}
}

type readOnlyStore struct {
	blob.Store
}

func (readOnlyStore) CanPut() bool { return false }

func TestCallFallsBackWhenPrimaryReadOnly(t *testing.T) {
	primaryDisk := blob.NewLocalDisk(t.TempDir())
	primary := readOnlyStore{Store: primaryDisk}
	fallback := blob.NewLocalDisk(t.TempDir())
	c := New(primary, fallback, logger.Nop())

	_, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return []byte("fetched"), nil
	}, ReadFetchWrite)
	if err != nil {
		t.Fatal(err)
	}

	if _, ok, _ := primaryDisk.MaybeGet(context.Background(), "k"); ok {
		t.Fatal("read-only primary should not have received a write")
	}
	got, ok, err := fallback.MaybeGet(context.Background(), "k")
	if err != nil || !ok {
		t.Fatalf("fallback should hold the write, ok=%v err=%v", ok, err)
	}
	if string(got) != "fetched" {
		t.Fatalf("got %q", got)
	}
}

func TestCallFetchWriteSkipsRead(t *testing.T) {
	primary := blob.NewLocalDisk(t.TempDir())
	c := New(primary, nil, logger.Nop())

	if err := primary.Put(context.Background(), "k", []byte("stale")); err != nil {
		t.Fatal(err)
	}

	data, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return []byte("fresh"), nil
	}, FetchWrite)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "fresh" {
		t.Fatalf("FetchWrite must always re-fetch, got %q", data)
	}
}

func TestCallPropagatesFetchError(t *testing.T) {
	primary := blob.NewLocalDisk(t.TempDir())
	c := New(primary, nil, logger.Nop())

	wantErr := errors.New("boom")
	_, err := c.Call(context.Background(), "k", func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	}, ReadFetchWrite)
	if !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}
}
