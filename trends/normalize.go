package trends

import (
	"sort"

	"github.com/pthm-cable/forage/trips"
)

// SpeedPoint is one trip in the pooled colony series.
type SpeedPoint struct {
	AgentID   int     `json:"agent_id" csv:"agent_id"`
	TripIndex int     `json:"trip_index" csv:"trip_index"` // position in the agent's trip list
	Timestamp int64   `json:"timestamp" csv:"timestamp"`   // pickup time
	Speed     float64 `json:"speed" csv:"speed"`

	// Set by normalization
	Reference  float64 `json:"reference" csv:"reference"`
	Normalized float64 `json:"normalized" csv:"normalized"`
}

// Pool collects the trips with a speed from every agent into one series
// sorted by pickup time. Ties keep agent order, then trip order.
func Pool(byAgent [][]trips.Trip) []SpeedPoint {
	var pts []SpeedPoint
	for _, ts := range byAgent {
		for i, t := range ts {
			speed, ok := t.Speed()
			if !ok {
				continue
			}
			pts = append(pts, SpeedPoint{
				AgentID:   t.AgentID,
				TripIndex: i,
				Timestamp: t.PickupTime,
				Speed:     speed,
			})
		}
	}
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].Timestamp < pts[j].Timestamp
	})
	return pts
}

// window holds the bounds shared by both normalization strategies.
type window struct {
	halfWidth  float64
	start, end float64
}

func newWindow(sorted []SpeedPoint, fraction float64) window {
	first := float64(sorted[0].Timestamp)
	last := float64(sorted[len(sorted)-1].Timestamp)
	return window{halfWidth: (last - first) * fraction, start: first, end: last}
}

// bounds returns the clamped window around ts.
func (w window) bounds(ts int64) (lo, hi float64) {
	c := float64(ts)
	lo, hi = c-w.halfWidth, c+w.halfWidth
	if lo < w.start {
		lo = w.start
	}
	if hi > w.end {
		hi = w.end
	}
	return lo, hi
}

// ratio returns speed / mean(window), or 1 when the reference is unusable.
func ratio(speed float64, window []SpeedPoint) (ref, norm float64) {
	if len(window) == 0 {
		return 0, 1
	}
	var sum float64
	for _, p := range window {
		sum += p.Speed
	}
	ref = sum / float64(len(window))
	if ref == 0 {
		return 0, 1
	}
	return ref, speed / ref
}

// Normalize expresses each point's speed relative to the mean speed of all
// points whose timestamp falls in a window of +-fraction of the total span
// around it. sorted must be ordered by timestamp; a new slice is returned.
// This is the reference all-pairs scan; NormalizeSliding gives identical output.
func Normalize(sorted []SpeedPoint, fraction float64) []SpeedPoint {
	if len(sorted) == 0 {
		return nil
	}
	w := newWindow(sorted, fraction)
	out := make([]SpeedPoint, len(sorted))
	in := make([]SpeedPoint, 0, len(sorted))

	for i, p := range sorted {
		lo, hi := w.bounds(p.Timestamp)
		in = in[:0]
		for _, q := range sorted {
			if t := float64(q.Timestamp); t >= lo && t <= hi {
				in = append(in, q)
			}
		}
		out[i] = p
		out[i].Reference, out[i].Normalized = ratio(p.Speed, in)
	}
	return out
}

// NormalizeSliding computes the same values as Normalize with two pointers
// over the sorted timestamps instead of a full scan per point. Window sums are
// taken over the same contiguous run in the same order, so results are
// bit-identical.
func NormalizeSliding(sorted []SpeedPoint, fraction float64) []SpeedPoint {
	if len(sorted) == 0 {
		return nil
	}
	w := newWindow(sorted, fraction)
	out := make([]SpeedPoint, len(sorted))

	lo, hi := 0, 0
	for i, p := range sorted {
		start, end := w.bounds(p.Timestamp)
		for lo < len(sorted) && float64(sorted[lo].Timestamp) < start {
			lo++
		}
		if hi < lo {
			hi = lo
		}
		for hi < len(sorted) && float64(sorted[hi].Timestamp) <= end {
			hi++
		}
		out[i] = p
		out[i].Reference, out[i].Normalized = ratio(p.Speed, sorted[lo:hi])
	}
	return out
}
