// Package report aggregates per-agent results into the final run report.
package report

import (
	"log/slog"

	"github.com/pthm-cable/forage/behavior"
	"github.com/pthm-cable/forage/stats"
	"github.com/pthm-cable/forage/trends"
	"github.com/pthm-cable/forage/trips"
)

// AgentReport holds everything computed for one agent.
// Agents without trips stay in the roster with StatusNoData.
type AgentReport struct {
	AgentID      int             `json:"agent_id"`
	Status       stats.Status    `json:"status"`
	Trips        []trips.Trip    `json:"trips"`
	MeanDuration *float64        `json:"mean_duration_sec"`
	Consistency  *float64        `json:"consistency"`
	Halves       trends.Halves   `json:"halves"`
	Frequency    trips.Frequency `json:"frequency"`
}

// NewAgentReport derives the per-agent metrics from a finished trip list.
func NewAgentReport(agentID int, ts []trips.Trip, epsilon float64) AgentReport {
	a := AgentReport{
		AgentID:   agentID,
		Status:    stats.StatusOK,
		Trips:     ts,
		Halves:    trends.CompareHalves(ts),
		Frequency: trips.ComputeFrequency(ts),
	}
	if len(ts) == 0 {
		a.Status = stats.StatusNoData
		a.Trips = []trips.Trip{}
		return a
	}
	if d, ok := trips.MeanDuration(ts); ok {
		a.MeanDuration = &d
	}
	if c, ok := trips.Consistency(ts, epsilon); ok {
		a.Consistency = &c
	}
	return a
}

// Ranked identifies an agent by its mean trip duration.
type Ranked struct {
	AgentID      int     `json:"agent_id"`
	MeanDuration float64 `json:"mean_duration_sec"`
}

// Representative is an agent chosen to stand for a percentile of the colony.
type Representative struct {
	AgentID      int     `json:"agent_id"`
	Percentile   float64 `json:"percentile"`
	MeanDuration float64 `json:"mean_duration_sec"`
}

// InputStats describes the events the run was computed from.
type InputStats struct {
	Events       int   `json:"events"`
	Unattributed int   `json:"unattributed"` // events without an agent, ignored by trip analysis
	FirstNs      int64 `json:"first_ns"`
	LastNs       int64 `json:"last_ns"`
}

// Report is the complete result of a run. It is built once and not modified.
type Report struct {
	Input           InputStats           `json:"input"`
	Overview        behavior.Overview    `json:"overview"`
	Agents          []AgentReport        `json:"agents"`
	Normalized      []trends.SpeedPoint  `json:"normalized"`
	Colony          trends.Halves        `json:"colony_halves"`
	MovingAverages  []trends.MovingPoint `json:"moving_averages"`
	TrendBins       []trends.Bin         `json:"trend_bins"`
	Global          GlobalStats          `json:"global"`
	Representatives []Representative     `json:"representatives"`
	Best            *Ranked              `json:"best_agent"`
	Worst           *Ranked              `json:"worst_agent"`
	Behavior        *behavior.Report     `json:"behavior,omitempty"`
}

// TripCount returns the number of trips across all agents.
func (r *Report) TripCount() int {
	n := 0
	for _, a := range r.Agents {
		n += len(a.Trips)
	}
	return n
}

// Agent returns the report for an agent id, or nil if it is not in the roster.
func (r *Report) Agent(id int) *AgentReport {
	for i := range r.Agents {
		if r.Agents[i].AgentID == id {
			return &r.Agents[i]
		}
	}
	return nil
}

// LogValue implements slog.LogValuer for structured logging.
func (r *Report) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("agents", len(r.Agents)),
		slog.Int("trips", r.TripCount()),
		slog.Any("velocity", r.Global.Velocity),
		slog.Any("colony", r.Colony),
	}
	if r.Best != nil {
		attrs = append(attrs, slog.Int("best_agent", r.Best.AgentID), slog.Int("worst_agent", r.Worst.AgentID))
	}
	return slog.GroupValue(attrs...)
}

// LogSummary logs the headline results.
func (r *Report) LogSummary() {
	slog.Info("report",
		"agents", len(r.Agents),
		"trips", r.TripCount(),
		"mean_velocity", r.Global.Velocity.Mean,
		"mean_efficiency", r.Global.Efficiency.Mean,
		"colony_status", r.Colony.Status,
		"colony_speed_pct", r.Colony.Speed.PercentChange,
	)
	for _, rep := range r.Representatives {
		slog.Debug("representative",
			"agent", rep.AgentID,
			"percentile", rep.Percentile,
			"mean_duration_sec", rep.MeanDuration,
		)
	}
	slog.Info("overview", "summary", r.Overview)
	if r.Behavior != nil {
		slog.Info("behavior", "summary", *r.Behavior)
	}
}
