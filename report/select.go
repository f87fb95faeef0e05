package report

import (
	"math"
	"sort"

	"github.com/pthm-cable/forage/trips"
)

// defaultPercentiles are used when five representatives are requested.
var defaultPercentiles = []float64{10, 30, 50, 70, 90}

func sortByPickup(ts []trips.Trip) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].PickupTime < ts[j].PickupTime
	})
}

// rank returns agents with a mean duration, fastest first.
// Equal durations keep roster order.
func rank(agents []AgentReport) []Ranked {
	var ranked []Ranked
	for _, a := range agents {
		if a.MeanDuration == nil {
			continue
		}
		ranked = append(ranked, Ranked{AgentID: a.AgentID, MeanDuration: *a.MeanDuration})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MeanDuration < ranked[j].MeanDuration
	})
	return ranked
}

// Percentiles returns the selection percentiles for k representatives:
// 10/30/50/70/90 for five, otherwise k evenly spaced values over [5, 95].
// A single representative sits at the low end, 5.
func Percentiles(k int) []float64 {
	switch {
	case k <= 0:
		return nil
	case k == 5:
		return append([]float64(nil), defaultPercentiles...)
	case k == 1:
		return []float64{5}
	}
	out := make([]float64, k)
	step := 90 / float64(k-1)
	for i := range out {
		out[i] = 5 + step*float64(i)
	}
	out[k-1] = 95
	return out
}

// SelectRepresentatives picks up to k agents spread across the ranking by
// mean trip duration. Agents without trips are not ranked. When at most k
// agents are ranked, all of them are returned. Percentiles that land on the
// same agent yield a single entry.
func SelectRepresentatives(agents []AgentReport, k int) []Representative {
	ranked := rank(agents)
	n := len(ranked)
	if n == 0 || k <= 0 {
		return nil
	}

	if n <= k {
		out := make([]Representative, n)
		for i, r := range ranked {
			pct := 50.0
			if n > 1 {
				pct = 100 * float64(i) / float64(n-1)
			}
			out[i] = Representative{AgentID: r.AgentID, Percentile: pct, MeanDuration: r.MeanDuration}
		}
		return out
	}

	var out []Representative
	seen := make(map[int]bool)
	for _, p := range Percentiles(k) {
		idx := int(math.Round(p / 100 * float64(n-1)))
		idx = min(max(idx, 0), n-1)
		if seen[idx] {
			continue
		}
		seen[idx] = true
		r := ranked[idx]
		out = append(out, Representative{AgentID: r.AgentID, Percentile: p, MeanDuration: r.MeanDuration})
	}
	return out
}

// BestWorst returns the agents with the shortest and longest mean trip
// duration, or nils when no agent has trips.
func BestWorst(agents []AgentReport) (best, worst *Ranked) {
	ranked := rank(agents)
	if len(ranked) == 0 {
		return nil, nil
	}
	b, w := ranked[0], ranked[len(ranked)-1]
	return &b, &w
}
