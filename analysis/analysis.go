// Package analysis runs the trip pipeline from raw events to the final report.
package analysis

import (
	"fmt"
	"log/slog"

	"github.com/pthm-cable/forage/behavior"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/report"
	"github.com/pthm-cable/forage/trends"
	"github.com/pthm-cable/forage/trips"
)

// agentResult is one worker output slot.
type agentResult struct {
	report report.AgentReport
	err    error
}

// Run analyzes evs under cfg. The input slice is not modified and need not
// be sorted. Integrity failures are returned wrapping events.ErrIntegrity;
// missing data is reported through statuses in the result.
func Run(evs []events.Event, cfg *config.Config) (*report.Report, error) {
	r, _, err := RunTimed(evs, cfg)
	return r, err
}

// RunTimed is Run that also returns per-phase timings.
func RunTimed(evs []events.Event, cfg *config.Config) (*report.Report, PhaseStats, error) {
	timer := NewPhaseTimer()

	timer.StartPhase(PhaseValidate)
	if err := events.ValidateAll(evs); err != nil {
		return nil, timer.Stop(), err
	}
	policy, err := trips.ParsePolicy(cfg.Trips.PickupPolicy)
	if err != nil {
		return nil, timer.Stop(), err
	}

	timer.StartPhase(PhaseGroup)
	sorted := events.SortByTime(evs)
	groups, roster, dropped := events.GroupByAgent(sorted)
	input := report.InputStats{Events: len(sorted), Unattributed: dropped}
	if first, last, ok := events.Span(sorted); ok {
		input.FirstNs, input.LastNs = first, last
	}
	slog.Debug("grouped events", "events", len(sorted), "agents", len(roster), "unattributed", dropped)

	timer.StartPhase(PhaseOverview)
	overview := behavior.ComputeOverview(sorted, behavior.OverviewParamsFrom(cfg))

	timer.StartPhase(PhaseTrips)
	recon := trips.PathReconstructor{SnapDistance: cfg.Trips.SnapDistance}
	results := make([]agentResult, len(roster))
	forEachSlot(len(roster), cfg.Derived.Workers, func(i int) {
		id := roster[i]
		ts, err := agentTrips(groups[id], policy, recon)
		if err != nil {
			results[i].err = fmt.Errorf("agent %d: %w", id, err)
			return
		}
		results[i].report = report.NewAgentReport(id, ts, cfg.Metrics.ConsistencyEpsilon)
	})

	agents := make([]report.AgentReport, len(roster))
	for i, res := range results {
		if res.err != nil {
			return nil, timer.Stop(), res.err
		}
		agents[i] = res.report
	}

	timer.StartPhase(PhaseNormalize)
	pooled := trends.Pool(report.TripsByAgent(agents))
	normalized := trends.NormalizeSliding(pooled, cfg.Trends.WindowFraction)
	agents = report.AttachNormalized(agents, normalized)

	timer.StartPhase(PhaseTrends)
	byAgent := report.TripsByAgent(agents)
	r := &report.Report{
		Input:          input,
		Overview:       overview,
		Agents:         agents,
		Normalized:     normalized,
		Colony:         trends.CompareHalves(report.PooledTrips(agents)),
		MovingAverages: trends.MovingAverages(byAgent, cfg.Trends.MovingAverageWindow),
		TrendBins: trends.AgentTrendBins(byAgent, cfg.Trends.MovingAverageWindow,
			cfg.Trends.MinAgentTrips, cfg.Trends.BinPercent),
	}

	timer.StartPhase(PhaseAggregate)
	r.Global = report.Aggregate(agents, normalized)
	r.Representatives = report.SelectRepresentatives(agents, cfg.Selection.Representatives)
	r.Best, r.Worst = report.BestWorst(agents)

	if cfg.Behavior.Enabled {
		timer.StartPhase(PhaseBehavior)
		b := behavior.Analyze(sorted, behavior.ParamsFrom(cfg))
		r.Behavior = &b
	}

	return r, timer.Stop(), nil
}

// agentTrips extracts and enriches the trips of one agent's sorted events.
func agentTrips(evs []events.Event, policy trips.Policy, recon trips.PathReconstructor) ([]trips.Trip, error) {
	carries := events.Filter(evs, events.CategoryPickup, events.CategoryDrop)
	positions := events.Filter(evs, events.CategoryPosition)

	ts, err := trips.Extract(carries, policy)
	if err != nil {
		return nil, err
	}
	for i, t := range ts {
		ts[i] = recon.Reconstruct(t, positions).WithMetrics()
	}
	return ts, nil
}
