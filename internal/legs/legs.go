// Package legs implements the leg-identification state machine: turning a
// time-ordered sequence of positions into a lazy sequence of non-stop
// flights, tolerant of lost signal, ground/air transitions, and noise.
package legs

import (
	"iter"
	"time"

	"github.com/jorgecardleitao/private-jets-go/internal/position"
)

const (
	// HeuristicLandingGap is the minimum time gap, combined with a low
	// altitude endpoint, that is treated as an undetected landing.
	HeuristicLandingGap = 5 * time.Minute
	// HeuristicLandingAltitudeFt is the altitude threshold below which a
	// time gap above HeuristicLandingGap is treated as a landing.
	HeuristicLandingAltitudeFt = 10000.0
	// HeuristicBlackoutGap is the time gap above which a transition is
	// always treated as a landing, regardless of altitude (mid-ocean
	// blackouts).
	HeuristicBlackoutGap = 10 * time.Hour

	// MinLegDuration and MinLegDistanceKm are the post-filter thresholds
	// applied by Legs: a candidate leg shorter or closer than this is noise,
	// not a real flight.
	MinLegDuration   = 5 * time.Minute
	MinLegDistanceKm = 3.0
)

// Leg is a non-empty, time-ordered sequence of positions bracketing one
// non-stop flight.
type Leg struct {
	Positions []position.Position
}

// From returns the first position of the leg.
func (l Leg) From() position.Position { return l.Positions[0] }

// To returns the last position of the leg.
func (l Leg) To() position.Position { return l.Positions[len(l.Positions)-1] }

// Duration is the wall-clock time between From and To.
func (l Leg) Duration() time.Duration {
	return l.To().Datetime.Sub(l.From().Datetime)
}

// GreatCircleDistanceKm is the great-circle distance between From and To.
func (l Leg) GreatCircleDistanceKm() float64 {
	from, to := l.From(), l.To()
	return GreatCircleDistanceKm(from.Latitude, from.Longitude, to.Latitude, to.Longitude)
}

// LengthKm is the total two-dimensional flown distance: the sum of the
// great-circle distance between every consecutive pair of positions.
func (l Leg) LengthKm() float64 {
	var total float64
	for i := 1; i < len(l.Positions); i++ {
		a, b := l.Positions[i-1], l.Positions[i]
		total += GreatCircleDistanceKm(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
	}
	return total
}

// HoursAbove returns the total time, in hours, spent in consecutive windows
// where both endpoints have an altitude strictly greater than thresholdFt.
func (l Leg) HoursAbove(thresholdFt float64) float64 {
	var total time.Duration
	for i := 1; i < len(l.Positions); i++ {
		a, b := l.Positions[i-1], l.Positions[i]
		if a.Altitude == nil || b.Altitude == nil {
			continue
		}
		if *a.Altitude > thresholdFt && *b.Altitude > thresholdFt {
			total += b.Datetime.Sub(a.Datetime)
		}
	}
	return total.Hours()
}

// isHeuristicLanding implements spec.md §4.5 rule 2: a transition where at
// least one endpoint is flying is a landing when either the gap exceeds
// HeuristicLandingGap with at least one low-altitude endpoint, or the gap
// exceeds HeuristicBlackoutGap unconditionally.
func isHeuristicLanding(prev, cur position.Position) bool {
	if prev.Grounded() && cur.Grounded() {
		return false
	}
	gap := cur.Datetime.Sub(prev.Datetime)
	if gap > HeuristicBlackoutGap {
		return true
	}
	if gap > HeuristicLandingGap {
		lowAltitude := func(p position.Position) bool {
			return p.Altitude != nil && *p.Altitude < HeuristicLandingAltitudeFt
		}
		if lowAltitude(prev) || lowAltitude(cur) {
			return true
		}
	}
	return false
}

// isLanding implements spec.md §4.5 rule 2: a strict flying->grounded
// transition, or a heuristic landing.
func isLanding(prev, cur position.Position) bool {
	if prev.Flying() && cur.Grounded() {
		return true
	}
	return isHeuristicLanding(prev, cur)
}

// isGroundedTransition implements spec.md §4.5 rule 3: both grounded, or a
// heuristic landing (which resets accumulation without joining a leg).
func isGroundedTransition(prev, cur position.Position) bool {
	if prev.Grounded() && cur.Grounded() {
		return true
	}
	return isHeuristicLanding(prev, cur)
}

// Identify runs the leg-identification state machine over positions
// (assumed strictly time-ordered) and yields every detected Leg, including
// the still-flying residual leg at end of input. No post-filtering is
// applied here; see Legs for the filtered façade.
func Identify(positions []position.Position) iter.Seq[Leg] {
	return func(yield func(Leg) bool) {
		if len(positions) == 0 {
			return
		}

		var current []position.Position
		prev := positions[0]

		for _, cur := range positions[1:] {
			if !isGroundedTransition(prev, cur) {
				if len(current) == 0 {
					current = append(current, prev)
				}
				current = append(current, cur)
			}

			if isLanding(prev, cur) && len(current) > 0 {
				if !yield(Leg{Positions: current}) {
					return
				}
				current = nil
			}

			prev = cur
		}

		if len(current) > 0 {
			yield(Leg{Positions: current})
		}
	}
}

// Legs is the façade used by the ETL orchestrator: it runs Identify and
// discards any leg shorter than MinLegDuration or closer than
// MinLegDistanceKm (spec.md §4.5 post-filter).
func Legs(positions []position.Position) []Leg {
	var out []Leg
	for leg := range Identify(positions) {
		if leg.Duration() < MinLegDuration {
			continue
		}
		if leg.GreatCircleDistanceKm() < MinLegDistanceKm {
			continue
		}
		out = append(out, leg)
	}
	return out
}
