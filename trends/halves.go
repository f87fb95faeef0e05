// Package trends analyzes how trip performance changes over the course of a run.
package trends

import (
	"log/slog"

	"github.com/pthm-cable/forage/stats"
	"github.com/pthm-cable/forage/trips"
)

// Change compares one metric between the first and second half of a run.
type Change struct {
	Status        stats.Status `json:"status"`
	First         float64      `json:"first"`
	Second        float64      `json:"second"`
	PercentChange float64      `json:"percent_change"`
}

// Halves is the result of a chronological midpoint split. Speed equals
// Velocity for placed trips and uses 1/duration for unplaced ones; Status
// follows Speed.
type Halves struct {
	Status        stats.Status `json:"status"`
	Mid           int64        `json:"mid"`
	FirstCount    int          `json:"first_count"`
	SecondCount   int          `json:"second_count"`
	Speed         Change       `json:"speed"`
	Velocity      Change       `json:"velocity"`
	Efficiency    Change       `json:"efficiency"`
	LogEfficiency Change       `json:"log_efficiency"`
}

// Split partitions pickup-ordered trips at the midpoint of their pickup span.
// Trips picked up at or before mid land in the first half.
func Split(ts []trips.Trip) (first, second []trips.Trip, mid int64) {
	if len(ts) == 0 {
		return nil, nil, 0
	}
	start := ts[0].PickupTime
	end := ts[len(ts)-1].PickupTime
	mid = start + (end-start)/2

	for _, t := range ts {
		if t.PickupTime <= mid {
			first = append(first, t)
		} else {
			second = append(second, t)
		}
	}
	return first, second, mid
}

// compare builds a Change from the metric values of each half.
func compare(first, second []float64) Change {
	a, okA := stats.Mean(first)
	b, okB := stats.Mean(second)
	if !okA || !okB {
		return Change{Status: stats.StatusInsufficientData}
	}
	pct, ok := stats.PercentChange(a, b)
	if !ok {
		return Change{Status: stats.StatusInsufficientData, First: a, Second: b}
	}
	return Change{Status: stats.StatusOK, First: a, Second: b, PercentChange: pct}
}

type metricFunc func(trips.Trip) (float64, bool)

func speedOf(t trips.Trip) (float64, bool)      { return t.Speed() }
func velocityOf(t trips.Trip) (float64, bool)   { return t.Velocity, t.HasRate() }
func efficiencyOf(t trips.Trip) (float64, bool) { return t.Efficiency, t.HasRate() }
func logEfficiencyOf(t trips.Trip) (float64, bool) {
	if t.LogEfficiency == nil {
		return 0, false
	}
	return *t.LogEfficiency, true
}

func collect(ts []trips.Trip, f metricFunc) []float64 {
	var out []float64
	for _, t := range ts {
		if v, ok := f(t); ok {
			out = append(out, v)
		}
	}
	return out
}

// CompareHalves compares mean speed, velocity, efficiency and log efficiency
// between the chronological halves of pickup-ordered trips.
func CompareHalves(ts []trips.Trip) Halves {
	if len(ts) == 0 {
		return Halves{Status: stats.StatusNoData}
	}

	first, second, mid := Split(ts)
	h := Halves{
		Mid:         mid,
		FirstCount:  len(first),
		SecondCount: len(second),
	}
	if len(first) == 0 || len(second) == 0 {
		h.Status = stats.StatusInsufficientData
		h.Speed = Change{Status: stats.StatusInsufficientData}
		h.Velocity = Change{Status: stats.StatusInsufficientData}
		h.Efficiency = Change{Status: stats.StatusInsufficientData}
		h.LogEfficiency = Change{Status: stats.StatusInsufficientData}
		return h
	}

	h.Speed = compare(collect(first, speedOf), collect(second, speedOf))
	h.Velocity = compare(collect(first, velocityOf), collect(second, velocityOf))
	h.Efficiency = compare(collect(first, efficiencyOf), collect(second, efficiencyOf))
	h.LogEfficiency = compare(collect(first, logEfficiencyOf), collect(second, logEfficiencyOf))

	h.Status = stats.StatusOK
	if h.Speed.Status != stats.StatusOK {
		h.Status = stats.StatusInsufficientData
	}
	return h
}

// LogValue implements slog.LogValuer for structured logging.
func (h Halves) LogValue() slog.Value {
	if h.Status != stats.StatusOK {
		return slog.GroupValue(slog.String("status", string(h.Status)))
	}
	attrs := []slog.Attr{
		slog.Int("first_count", h.FirstCount),
		slog.Int("second_count", h.SecondCount),
		slog.Float64("speed_pct", h.Speed.PercentChange),
	}
	if h.Velocity.Status == stats.StatusOK {
		attrs = append(attrs,
			slog.Float64("velocity_pct", h.Velocity.PercentChange),
			slog.Float64("efficiency_pct", h.Efficiency.PercentChange),
		)
	}
	if h.LogEfficiency.Status == stats.StatusOK {
		attrs = append(attrs, slog.Float64("log_efficiency_pct", h.LogEfficiency.PercentChange))
	}
	return slog.GroupValue(attrs...)
}
