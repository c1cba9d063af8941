package legs

import (
	"testing"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/position"
)

func alt(v float64) *float64 { return &v }

func pos(t time.Time, lat, lon float64, altitude *float64) position.Position {
	return position.Position{Datetime: t, Latitude: lat, Longitude: lon, Altitude: altitude}
}

func base(t time.Time, mins int) time.Time { return t.Add(time.Duration(mins) * time.Minute) }

func TestShortGapHighAltitudeSameLeg(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(base(t0, 0), 50, 10, nil),
		pos(base(t0, 1), 50.1, 10, alt(15000)),
		pos(base(t0, 10), 50.2, 10, alt(20000)),
		pos(base(t0, 11), 50.2, 10, nil),
	}
	out := Legs(positions)
	if len(out) != 1 {
		t.Fatalf("got %d legs, want 1", len(out))
	}
}

func TestGapOver5MinHighAltitudeSameLeg(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(base(t0, 0), 50, 10, nil),
		pos(base(t0, 1), 50.1, 10, alt(35000)),
		pos(base(t0, 20), 53.0, 13, alt(36000)), // gap 19min, both >=10000ft
		pos(base(t0, 21), 53.0, 13, nil),
	}
	out := Legs(positions)
	if len(out) != 1 {
		t.Fatalf("got %d legs, want 1 (gap > 5min but both altitudes >= 10000ft)", len(out))
	}
}

func TestGapOver5MinLowAltitudeSplits(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(base(t0, 0), 50, 10, nil),
		pos(base(t0, 5), 50.5, 10.5, alt(20000)),
		pos(base(t0, 6), 51, 11, alt(9000)),  // low altitude, gap to next > 5min -> split point
		pos(base(t0, 25), 51, 11, alt(9500)), // gap 19min, low altitude on both ends
		pos(base(t0, 30), 52, 12, alt(20000)),
		pos(base(t0, 31), 52, 12, nil),
	}
	out := Legs(positions)
	if len(out) != 2 {
		t.Fatalf("got %d legs, want 2 (gap > 5min with altitude < 10000ft must split)", len(out))
	}
}

func TestGapOver10HoursAlwaysSplits(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(base(t0, 0), 50, 10, nil),
		pos(base(t0, 1), 50.1, 10, alt(38000)),
		pos(base(t0, 30), 53.0, 13, alt(39000)), // first leg: 30min, ~390km
		pos(t0.Add(11*time.Hour+30*time.Minute), 53.0, 13, alt(39000)),     // gap from prev > 10h, both high altitude
		pos(t0.Add(12*time.Hour), 56.0, 16, alt(39000)),                    // second leg: 31min, ~385km
		pos(t0.Add(12*time.Hour+1*time.Minute), 56.0, 16, nil),
	}
	out := Legs(positions)
	if len(out) != 2 {
		t.Fatalf("got %d legs, want 2 (gap > 10h must split unconditionally)", len(out))
	}
}

func TestGroundSignalLossDoesNotSplit(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(t0, 50, 10, nil),
		pos(t0.Add(30*time.Hour), 50, 10, nil), // long ground gap, still grounded both ends
		pos(t0.Add(30*time.Hour+1*time.Minute), 50.1, 10.1, alt(20000)),
		pos(t0.Add(32*time.Hour), 55, 20, alt(22000)),
		pos(t0.Add(32*time.Hour+1*time.Minute), 55, 20, nil),
	}
	out := Legs(positions)
	if len(out) != 1 {
		t.Fatalf("got %d legs, want 1 (ground signal loss must not split a flight)", len(out))
	}
}

func TestStillFlyingResidualLegEmitted(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(t0, 50, 10, nil),
		pos(base(t0, 1), 50.1, 10, alt(20000)),
		pos(base(t0, 30), 55, 20, alt(25000)),
	}
	out := Legs(positions)
	if len(out) != 1 {
		t.Fatalf("got %d legs, want 1 residual leg", len(out))
	}
	if out[0].To().Datetime != positions[len(positions)-1].Datetime {
		t.Fatalf("residual leg must end at the last position")
	}
}

func TestPostFilterDropsShortDuration(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(t0, 50, 10, nil),
		pos(base(t0, 1), 50.01, 10.01, alt(15000)),
		pos(base(t0, 2), 50.02, 10.02, nil),
	}
	out := Legs(positions)
	if len(out) != 0 {
		t.Fatalf("got %d legs, want 0 (duration and distance below thresholds)", len(out))
	}
}

func TestPositionsAreASubsequence(t *testing.T) {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	positions := []position.Position{
		pos(t0, 50, 10, nil),
		pos(base(t0, 1), 50.1, 10, alt(20000)),
		pos(base(t0, 30), 55, 20, alt(25000)),
		pos(base(t0, 31), 55, 20, nil),
	}
	out := Legs(positions)
	if len(out) != 1 {
		t.Fatalf("got %d legs", len(out))
	}
	leg := out[0]
	idx := 0
	for _, p := range leg.Positions {
		for idx < len(positions) && positions[idx].Datetime != p.Datetime {
			idx++
		}
		if idx == len(positions) {
			t.Fatalf("leg position %v not found in original sequence in order", p)
		}
		idx++
	}
}

func TestCO2KgBasics(t *testing.T) {
	// Sanity check against the spec.md formula, not the narrower original
	// 3-factor formula (Open Question 2 resolved in favor of the latest form).
	got := CO2Kg(280.0, 2*time.Hour)
	want := 280.0 * 2.0 * LiterPerGallon * KgPerLiterJetA * KgCO2PerKgFuel * RadiativeIndexFactor * LifeCycleFactor
	if got != want {
		t.Fatalf("got %f want %f", got, want)
	}
}

func TestGreatCircleDistanceBerlinBrussels(t *testing.T) {
	d := GreatCircleDistanceKm(52.365, 13.501, 50.9008, 4.4865)
	if d < 630 || d > 660 {
		t.Fatalf("Berlin-Brussels great circle distance got %f, want ~645km", d)
	}
}
