package trips

import (
	"math"
	"sort"

	"github.com/pthm-cable/forage/events"
)

// PathReconstructor measures trip distance along the recorded position samples.
type PathReconstructor struct {
	// SnapDistance is the endpoint gap above which the pickup/drop position
	// is added to the polyline. Smaller gaps are treated as sampling jitter.
	SnapDistance float64
}

// samplesBetween returns the sub-slice of time-sorted positions within [from, to].
func samplesBetween(positions []events.Event, from, to int64) []events.Event {
	lo := sort.Search(len(positions), func(i int) bool {
		return positions[i].Timestamp >= from
	})
	hi := sort.Search(len(positions), func(i int) bool {
		return positions[i].Timestamp > to
	})
	if lo >= hi {
		return nil
	}
	return positions[lo:hi]
}

// Reconstruct returns a copy of t with Distance and SampleCount set from the
// agent's time-sorted position samples. With fewer than two samples inside the
// trip interval the straight-line distance is kept. Unplaced trips are
// returned unchanged.
func (r PathReconstructor) Reconstruct(t Trip, positions []events.Event) Trip {
	if t.Unplaced {
		return t
	}
	samples := samplesBetween(positions, t.PickupTime, t.DropTime)
	t.SampleCount = len(samples)

	straight := t.StraightLine()
	if len(samples) < 2 {
		t.Distance = straight
		return t
	}

	var total float64
	prev := samples[0].Pos()
	if t.PickupPos.Dist(prev) > r.SnapDistance {
		total += t.PickupPos.Dist(prev)
	}
	for _, s := range samples[1:] {
		p := s.Pos()
		total += prev.Dist(p)
		prev = p
	}
	if prev.Dist(t.DropPos) > r.SnapDistance {
		total += prev.Dist(t.DropPos)
	}

	// Snapping can shave up to 2*SnapDistance off the ends
	t.Distance = math.Max(total, straight)
	return t
}
