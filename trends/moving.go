package trends

import (
	"math"
	"sort"

	"github.com/pthm-cable/forage/trips"
)

// MovingPoint is one trip of the pooled series with its centered rolling means.
type MovingPoint struct {
	AgentID      int     `json:"agent_id" csv:"agent_id"`
	Timestamp    int64   `json:"timestamp" csv:"timestamp"`
	TimePercent  float64 `json:"time_percent" csv:"time_percent"`
	Velocity     float64 `json:"velocity" csv:"velocity"`
	Efficiency   float64 `json:"efficiency" csv:"efficiency"`
	VelocityMA   float64 `json:"velocity_ma" csv:"velocity_ma"`
	EfficiencyMA float64 `json:"efficiency_ma" csv:"efficiency_ma"`
}

// Bin is the mean of per-agent rolling means over a slice of run progress.
type Bin struct {
	StartPercent float64 `json:"start_percent" csv:"start_percent"`
	Velocity     float64 `json:"velocity" csv:"velocity"`
	Efficiency   float64 `json:"efficiency" csv:"efficiency"`
	Samples      int     `json:"samples" csv:"samples"`
	Interpolated bool    `json:"interpolated" csv:"interpolated"`
}

// RollingMean returns the centered rolling mean of values with the given
// window, averaging whatever part of the window exists at the edges.
func RollingMean(values []float64, window int) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if window < 1 {
		window = 1
	}
	for i := range values {
		lo := i - window/2
		hi := lo + window
		if lo < 0 {
			lo = 0
		}
		if hi > n {
			hi = n
		}
		var sum float64
		for _, v := range values[lo:hi] {
			sum += v
		}
		out[i] = sum / float64(hi-lo)
	}
	return out
}

// timePercent maps a pickup time onto [0, 100] of the span [start, end].
func timePercent(ts, start, end int64) float64 {
	if end <= start {
		return 0
	}
	return float64(ts-start) / float64(end-start) * 100
}

// rated flattens trips with a rate and sorts them by pickup time.
func rated(byAgent [][]trips.Trip) []trips.Trip {
	var all []trips.Trip
	for _, ts := range byAgent {
		for _, t := range ts {
			if t.HasRate() {
				all = append(all, t)
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PickupTime < all[j].PickupTime
	})
	return all
}

// MovingAverages computes centered rolling means of velocity and efficiency
// across all agents' trips in pickup order.
func MovingAverages(byAgent [][]trips.Trip, window int) []MovingPoint {
	all := rated(byAgent)
	if len(all) == 0 {
		return nil
	}
	start, end := all[0].PickupTime, all[len(all)-1].PickupTime

	vel := make([]float64, len(all))
	eff := make([]float64, len(all))
	for i, t := range all {
		vel[i], eff[i] = t.Velocity, t.Efficiency
	}
	velMA := RollingMean(vel, window)
	effMA := RollingMean(eff, window)

	out := make([]MovingPoint, len(all))
	for i, t := range all {
		out[i] = MovingPoint{
			AgentID:      t.AgentID,
			Timestamp:    t.PickupTime,
			TimePercent:  timePercent(t.PickupTime, start, end),
			Velocity:     t.Velocity,
			Efficiency:   t.Efficiency,
			VelocityMA:   velMA[i],
			EfficiencyMA: effMA[i],
		}
	}
	return out
}

// AgentTrendBins smooths each qualifying agent's trips with a rolling mean of
// min(window/5, trips) and averages the smoothed values in bins of binPercent
// of run progress. Empty bins after the first populated one are filled by
// linear interpolation, or carried forward at the end; leading empty bins
// are omitted.
func AgentTrendBins(byAgent [][]trips.Trip, window, minTrips int, binPercent float64) []Bin {
	all := rated(byAgent)
	if len(all) == 0 || binPercent <= 0 {
		return nil
	}
	start, end := all[0].PickupTime, all[len(all)-1].PickupTime

	nbins := int(math.Floor(100 / binPercent))
	if nbins < 1 {
		nbins = 1
	}
	velSum := make([]float64, nbins)
	effSum := make([]float64, nbins)
	count := make([]int, nbins)

	for _, ts := range byAgent {
		var agent []trips.Trip
		for _, t := range ts {
			if t.HasRate() {
				agent = append(agent, t)
			}
		}
		if len(agent) < minTrips || len(agent) == 0 {
			continue
		}
		w := window / 5
		if w > len(agent) {
			w = len(agent)
		}
		vel := make([]float64, len(agent))
		eff := make([]float64, len(agent))
		for i, t := range agent {
			vel[i], eff[i] = t.Velocity, t.Efficiency
		}
		velMA := RollingMean(vel, w)
		effMA := RollingMean(eff, w)

		for i, t := range agent {
			b := int(timePercent(t.PickupTime, start, end) / binPercent)
			if b >= nbins {
				b = nbins - 1
			}
			velSum[b] += velMA[i]
			effSum[b] += effMA[i]
			count[b]++
		}
	}

	return fillBins(velSum, effSum, count, binPercent)
}

// fillBins converts bin sums into means and fills gaps.
func fillBins(velSum, effSum []float64, count []int, binPercent float64) []Bin {
	nbins := len(count)
	bins := make([]Bin, nbins)
	firstFilled := -1
	for i := range bins {
		bins[i].StartPercent = float64(i) * binPercent
		if count[i] > 0 {
			bins[i].Velocity = velSum[i] / float64(count[i])
			bins[i].Efficiency = effSum[i] / float64(count[i])
			bins[i].Samples = count[i]
			if firstFilled < 0 {
				firstFilled = i
			}
		}
	}
	if firstFilled < 0 {
		return nil
	}

	prev := firstFilled
	for i := firstFilled + 1; i < nbins; i++ {
		if count[i] > 0 {
			for j := prev + 1; j < i; j++ {
				f := float64(j-prev) / float64(i-prev)
				bins[j].Velocity = bins[prev].Velocity + f*(bins[i].Velocity-bins[prev].Velocity)
				bins[j].Efficiency = bins[prev].Efficiency + f*(bins[i].Efficiency-bins[prev].Efficiency)
				bins[j].Interpolated = true
			}
			prev = i
		}
	}
	for j := prev + 1; j < nbins; j++ {
		bins[j].Velocity = bins[prev].Velocity
		bins[j].Efficiency = bins[prev].Efficiency
		bins[j].Interpolated = true
	}

	return bins[firstFilled:]
}
