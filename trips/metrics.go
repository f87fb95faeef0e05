package trips

import (
	"math"

	"github.com/pthm-cable/forage/stats"
)

// WithMetrics returns a copy of t with velocity and efficiency metrics set.
// Trips without a positive duration keep zero metrics and no log efficiency.
func (t Trip) WithMetrics() Trip {
	t.Velocity, t.Efficiency, t.LogEfficiency = 0, 0, nil
	if !t.HasRate() {
		return t
	}

	t.Velocity = t.Distance / t.DurationSec
	t.Efficiency = t.Distance / math.Pow(t.DurationSec, 1.5)
	if t.Distance > 0 {
		le := t.Distance / (t.DurationSec * math.Log(t.Distance+1))
		t.LogEfficiency = &le
	}
	return t
}

// Consistency returns 1 / (CV(speeds) + epsilon). For placed trips the speed
// is the velocity. Higher values mean more uniform performance. Reports false
// with fewer than two speeds or a non-positive mean speed.
func Consistency(ts []Trip, epsilon float64) (float64, bool) {
	cv, ok := stats.CoefficientOfVariation(Speeds(ts))
	if !ok {
		return 0, false
	}
	return 1 / (cv + epsilon), true
}

// Frequency holds trip cadence over an agent's active span.
type Frequency struct {
	Status         stats.Status `json:"status"`
	Trips          int          `json:"trips"`
	SpanSec        float64      `json:"span_sec"`
	TripsPerSecond float64      `json:"trips_per_second"`
	MeanInterval   float64      `json:"mean_interval_sec"`
}

// ComputeFrequency measures cadence over first pickup -> last drop.
func ComputeFrequency(ts []Trip) Frequency {
	if len(ts) == 0 {
		return Frequency{Status: stats.StatusNoData}
	}
	span := float64(ts[len(ts)-1].DropTime-ts[0].PickupTime) / 1e9
	if span <= 0 {
		return Frequency{Status: stats.StatusInsufficientData, Trips: len(ts)}
	}
	n := float64(len(ts))
	return Frequency{
		Status:         stats.StatusOK,
		Trips:          len(ts),
		SpanSec:        span,
		TripsPerSecond: n / span,
		MeanInterval:   span / n,
	}
}
