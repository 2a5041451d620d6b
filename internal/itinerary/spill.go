package itinerary

import (
	"fleet-planning-service/internal/domain"
	"math"
	"sort"
)

// DummyID is the id of the "lost to another carrier" spill target. It is
// one past the largest itinerary id, which is N+1 for ids numbered 1..N.
func DummyID(its []domain.Itinerary) int {
	max := 0
	for _, it := range its {
		if it.ID > max {
			max = it.ID
		}
	}
	return max + 1
}

// SpillTargets lists, per itinerary, the itineraries its spilled passengers
// may be recaptured on: same market, equal or worse priority, never itself.
// The dummy id always closes the list.
func SpillTargets(its []domain.Itinerary) map[int][]int {
	dummy := DummyID(its)
	out := make(map[int][]int, len(its))

	for _, p := range its {
		var targets []int
		for _, q := range its {
			if q.ID == p.ID || q.Market() != p.Market() {
				continue
			}
			if q.Type.Priority() >= p.Type.Priority() {
				targets = append(targets, q.ID)
			}
		}
		sort.Ints(targets)
		out[p.ID] = append(targets, dummy)
	}
	return out
}

// SpillKey identifies the spill-recapture flow from itinerary P to Q.
type SpillKey struct {
	P int
	Q int
}

// SpillKeys flattens SpillTargets into an ordered key list.
func SpillKeys(its []domain.Itinerary, targets map[int][]int) []SpillKey {
	ids := make([]int, 0, len(its))
	for _, it := range its {
		ids = append(ids, it.ID)
	}
	sort.Ints(ids)

	var keys []SpillKey
	for _, p := range ids {
		for _, q := range targets[p] {
			keys = append(keys, SpillKey{P: p, Q: q})
		}
	}
	return keys
}

// CorrectionKey pairs a cancelled itinerary with an alternative that
// absorbs (or loses) part of its demand.
type CorrectionKey struct {
	Cancelled   int
	Alternative int
}

// CorrectionRates are the percentages applied to a cancelled itinerary's
// demand.
type CorrectionRates struct {
	IncreasePct float64
	DecreasePct float64
}

// DemandCorrections computes the whole-passenger demand shift toward every
// alternative when an optional itinerary is cancelled.
//
// An alternative in the same market whose priority is equal to or worse
// than the cancelled itinerary's gains IncreasePct of the cancelled
// demand; any other alternative loses DecreasePct. Pairs that share an optional flight are skipped since the
// alternative may disappear with the cancellation. Positive values round
// up and negative values round down.
func DemandCorrections(its []domain.Itinerary, flights domain.FlightIndex, rates CorrectionRates) map[CorrectionKey]int {
	out := make(map[CorrectionKey]int)

	for _, p := range its {
		if !p.Optional {
			continue
		}
		for _, alt := range its {
			if alt.ID == p.ID {
				continue
			}

			skip := false
			for _, n := range p.SharedLegs(alt) {
				if flights[n].Optional {
					skip = true
					break
				}
			}
			if skip {
				continue
			}

			var v float64
			if p.Market() == alt.Market() && p.Type.Priority() <= alt.Type.Priority() {
				v = rates.IncreasePct / 100 * float64(p.Demand)
			} else {
				v = -rates.DecreasePct / 100 * float64(p.Demand)
			}
			out[CorrectionKey{Cancelled: p.ID, Alternative: alt.ID}] = roundAway(v)
		}
	}
	return out
}

func roundAway(v float64) int {
	if v >= 0 {
		return int(math.Ceil(v - 1e-9))
	}
	return int(math.Floor(v + 1e-9))
}
