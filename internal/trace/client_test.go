package trace

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDecodeGroundRow(t *testing.T) {
	payload := `{"timestamp":1697155200,"trace":[[0,50.1,10.2,"ground"]]}`
	positions, err := Decode("45d2ed", []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 1 {
		t.Fatalf("got %d positions, want 1", len(positions))
	}
	if !positions[0].Grounded() {
		t.Fatal("expected grounded position")
	}
	if positions[0].Latitude != 50.1 || positions[0].Longitude != 10.2 {
		t.Fatalf("unexpected lat/lon: %+v", positions[0])
	}
}

func TestDecodeAltitudeRow(t *testing.T) {
	payload := `{"timestamp":1697155200,"trace":[[30,50.1,10.2,35000]]}`
	positions, err := Decode("45d2ed", []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 1 || !positions[0].Flying() {
		t.Fatalf("expected one flying position, got %+v", positions)
	}
	if *positions[0].Altitude != 35000 {
		t.Fatalf("got altitude %v, want 35000", *positions[0].Altitude)
	}
	want := time.Unix(1697155200, 0).UTC().Add(30 * time.Second)
	if !positions[0].Datetime.Equal(want) {
		t.Fatalf("got datetime %v, want %v", positions[0].Datetime, want)
	}
}

func TestDecodeDropsRowWithoutThirdIndex(t *testing.T) {
	payload := `{"timestamp":1697155200,"trace":[[0,50.1,10.2]]}`
	positions, err := Decode("45d2ed", []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 0 {
		t.Fatalf("got %d positions, want 0 (row must be dropped)", len(positions))
	}
}

func TestDecodeDropsRowWithNullAltitude(t *testing.T) {
	payload := `{"timestamp":1697155200,"trace":[[0,50.1,10.2,null]]}`
	positions, err := Decode("45d2ed", []byte(payload))
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 0 {
		t.Fatalf("got %d positions, want 0", len(positions))
	}
}

func TestSynthesize404IsValidEmptyTrace(t *testing.T) {
	positions, err := Decode("45d2ed", synthesize404())
	if err != nil {
		t.Fatal(err)
	}
	if len(positions) != 0 {
		t.Fatalf("got %d positions, want 0", len(positions))
	}
}

func TestSessionCookieFormat(t *testing.T) {
	cookie, err := sessionCookie()
	if err != nil {
		t.Fatal(err)
	}
	var epoch string
	var rest string
	for i, c := range cookie {
		if c == '_' {
			epoch = cookie[:i]
			rest = cookie[i+1:]
			break
		}
	}
	if epoch == "" || rest == "" {
		t.Fatalf("cookie %q does not look like epoch_random", cookie)
	}
	if len(rest) != 13 {
		t.Fatalf("random suffix length got %d, want 13", len(rest))
	}
}

func TestURLUsesLastTwoICAOCharsAsShard(t *testing.T) {
	day := time.Date(2023, 10, 13, 0, 0, 0, 0, time.UTC)
	got := url("45d2ed", day)
	want := "https://globe.adsbexchange.com/globe_history/2023/10/13/traces/ed/trace_full_45d2ed.json"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestDecodeUnmarshalsTimestampPayload(t *testing.T) {
	var p payload
	if err := json.Unmarshal([]byte(`{"timestamp":1697155200.5,"trace":[]}`), &p); err != nil {
		t.Fatal(err)
	}
	if p.Timestamp != 1697155200.5 {
		t.Fatalf("got %v", p.Timestamp)
	}
}
