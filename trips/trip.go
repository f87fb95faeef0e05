// Package trips turns pickup/drop events into foraging trips and derives per-trip metrics.
package trips

import (
	"log/slog"

	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/stats"
)

// Trip is one completed pickup -> drop carry by an agent.
// Trips are created by Extract and enriched by returning modified copies.
type Trip struct {
	AgentID     int          `json:"agent_id"`
	PickupTime  int64        `json:"pickup_time"`
	DropTime    int64        `json:"drop_time"`
	PickupPos   events.Point `json:"pickup_pos"`
	DropPos     events.Point `json:"drop_pos"`
	DurationSec float64      `json:"duration_sec"`

	// Unplaced trips come from logs without coordinates. Their distance and
	// rate metrics are unmeasured, not zero.
	Unplaced bool `json:"unplaced"`

	// Set by PathReconstructor
	Distance    float64 `json:"distance"`
	SampleCount int     `json:"sample_count"`

	// Set by WithMetrics; zero when the trip has no positive duration
	Velocity      float64  `json:"velocity"`
	Efficiency    float64  `json:"efficiency"`
	LogEfficiency *float64 `json:"log_efficiency"`

	// Set after pooling all agents
	NormalizedEfficiency *float64 `json:"normalized_efficiency"`
}

// newTrip builds a trip from a matched pickup and drop.
func newTrip(pickup, drop events.Event) Trip {
	return Trip{
		AgentID:     pickup.AgentID,
		PickupTime:  pickup.Timestamp,
		DropTime:    drop.Timestamp,
		PickupPos:   pickup.Pos(),
		DropPos:     drop.Pos(),
		DurationSec: float64(drop.Timestamp-pickup.Timestamp) / 1e9,
		Distance:    pickup.Pos().Dist(drop.Pos()),
		Unplaced:    !pickup.HasPosition() || !drop.HasPosition(),
	}
}

// StraightLine returns the displacement between pickup and drop.
func (t Trip) StraightLine() float64 {
	return t.PickupPos.Dist(t.DropPos)
}

// HasRate reports whether rate metrics (velocity, efficiency) are defined.
func (t Trip) HasRate() bool {
	return t.DurationSec > 0 && !t.Unplaced
}

// Speed returns the value trips are compared by over time: the velocity of a
// placed trip, or 1/duration for an unplaced one. Reports false when the trip
// has no positive duration.
func (t Trip) Speed() (float64, bool) {
	switch {
	case t.HasRate():
		return t.Velocity, true
	case t.Unplaced && t.DurationSec > 0:
		return 1 / t.DurationSec, true
	}
	return 0, false
}

// WithNormalized returns a copy with the temporally-normalized efficiency attached.
func (t Trip) WithNormalized(v float64) Trip {
	t.NormalizedEfficiency = &v
	return t
}

// LogValue implements slog.LogValuer for structured logging.
func (t Trip) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("agent", t.AgentID),
		slog.Int64("pickup", t.PickupTime),
		slog.Int64("drop", t.DropTime),
		slog.Float64("duration_sec", t.DurationSec),
		slog.Float64("distance", t.Distance),
		slog.Float64("velocity", t.Velocity),
		slog.Float64("efficiency", t.Efficiency),
	}
	if t.LogEfficiency != nil {
		attrs = append(attrs, slog.Float64("log_efficiency", *t.LogEfficiency))
	}
	return slog.GroupValue(attrs...)
}

// Speeds returns the Speed of every trip that has one.
func Speeds(ts []Trip) []float64 {
	out := make([]float64, 0, len(ts))
	for _, t := range ts {
		if v, ok := t.Speed(); ok {
			out = append(out, v)
		}
	}
	return out
}

// MeanDuration returns the mean trip duration in seconds, or false when empty.
func MeanDuration(ts []Trip) (float64, bool) {
	durations := make([]float64, len(ts))
	for i, t := range ts {
		durations[i] = t.DurationSec
	}
	return stats.Mean(durations)
}
