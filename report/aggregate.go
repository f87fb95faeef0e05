package report

import (
	"github.com/pthm-cable/forage/stats"
	"github.com/pthm-cable/forage/trends"
	"github.com/pthm-cable/forage/trips"
)

// GlobalStats summarizes every metric over the pooled population. Each trip
// (or agent, for per-agent metrics) contributes one value.
type GlobalStats struct {
	Duration             stats.Summary `json:"duration_sec"`
	Distance             stats.Summary `json:"distance"`
	Speed                stats.Summary `json:"speed"`
	Velocity             stats.Summary `json:"velocity"`
	Efficiency           stats.Summary `json:"efficiency"`
	LogEfficiency        stats.Summary `json:"log_efficiency"`
	NormalizedEfficiency stats.Summary `json:"normalized_efficiency"`

	// Per agent
	Consistency        stats.Summary `json:"consistency"`
	SpeedTrend         stats.Summary `json:"speed_trend_pct"`
	VelocityTrend      stats.Summary `json:"velocity_trend_pct"`
	EfficiencyTrend    stats.Summary `json:"efficiency_trend_pct"`
	LogEfficiencyTrend stats.Summary `json:"log_efficiency_trend_pct"`
	TripsPerAgent      stats.Summary `json:"trips_per_agent"`
	TripsPerSecond     stats.Summary `json:"trips_per_second"`
	MeanInterval       stats.Summary `json:"mean_interval_sec"`
}

// Aggregate computes GlobalStats. Agents without trips count toward
// TripsPerAgent only; unmeasured values are skipped, never zero-filled.
func Aggregate(agents []AgentReport, normalized []trends.SpeedPoint) GlobalStats {
	var (
		duration, distance, speed, velocity, efficiency, logEff []float64
		consistency, speedTrend, velTrend, effTrend, logTrend  []float64
		perAgent, perSecond, interval                          []float64
	)

	for _, a := range agents {
		perAgent = append(perAgent, float64(len(a.Trips)))
		for _, t := range a.Trips {
			duration = append(duration, t.DurationSec)
			if !t.Unplaced {
				distance = append(distance, t.Distance)
			}
			if v, ok := t.Speed(); ok {
				speed = append(speed, v)
			}
			if t.HasRate() {
				velocity = append(velocity, t.Velocity)
				efficiency = append(efficiency, t.Efficiency)
			}
			if t.LogEfficiency != nil {
				logEff = append(logEff, *t.LogEfficiency)
			}
		}

		if a.Consistency != nil {
			consistency = append(consistency, *a.Consistency)
		}
		speedTrend = appendChange(speedTrend, a.Halves.Speed)
		velTrend = appendChange(velTrend, a.Halves.Velocity)
		effTrend = appendChange(effTrend, a.Halves.Efficiency)
		logTrend = appendChange(logTrend, a.Halves.LogEfficiency)
		if a.Frequency.Status == stats.StatusOK {
			perSecond = append(perSecond, a.Frequency.TripsPerSecond)
			interval = append(interval, a.Frequency.MeanInterval)
		}
	}

	norm := make([]float64, len(normalized))
	for i, p := range normalized {
		norm[i] = p.Normalized
	}

	return GlobalStats{
		Duration:             stats.Summarize(duration),
		Distance:             stats.Summarize(distance),
		Speed:                stats.Summarize(speed),
		Velocity:             stats.Summarize(velocity),
		Efficiency:           stats.Summarize(efficiency),
		LogEfficiency:        stats.Summarize(logEff),
		NormalizedEfficiency: stats.Summarize(norm),
		Consistency:          stats.Summarize(consistency),
		SpeedTrend:           stats.Summarize(speedTrend),
		VelocityTrend:        stats.Summarize(velTrend),
		EfficiencyTrend:      stats.Summarize(effTrend),
		LogEfficiencyTrend:   stats.Summarize(logTrend),
		TripsPerAgent:        stats.Summarize(perAgent),
		TripsPerSecond:       stats.Summarize(perSecond),
		MeanInterval:         stats.Summarize(interval),
	}
}

func appendChange(dst []float64, c trends.Change) []float64 {
	if c.Status != stats.StatusOK {
		return dst
	}
	return append(dst, c.PercentChange)
}

// AttachNormalized returns copies of the agents with each trip's normalized
// efficiency set from the pooled series. Trips not in the series keep nil.
func AttachNormalized(agents []AgentReport, normalized []trends.SpeedPoint) []AgentReport {
	type key struct{ agent, trip int }
	byTrip := make(map[key]float64, len(normalized))
	for _, p := range normalized {
		byTrip[key{p.AgentID, p.TripIndex}] = p.Normalized
	}

	out := make([]AgentReport, len(agents))
	for i, a := range agents {
		out[i] = a
		ts := make([]trips.Trip, len(a.Trips))
		for j, t := range a.Trips {
			if v, ok := byTrip[key{a.AgentID, j}]; ok {
				t = t.WithNormalized(v)
			}
			ts[j] = t
		}
		out[i].Trips = ts
	}
	return out
}

// TripsByAgent returns each agent's trip list in roster order.
func TripsByAgent(agents []AgentReport) [][]trips.Trip {
	out := make([][]trips.Trip, len(agents))
	for i, a := range agents {
		out[i] = a.Trips
	}
	return out
}

// PooledTrips returns every trip across agents in pickup order.
// Ties keep roster order.
func PooledTrips(agents []AgentReport) []trips.Trip {
	var all []trips.Trip
	for _, a := range agents {
		all = append(all, a.Trips...)
	}
	sortByPickup(all)
	return all
}
