package analysis

import (
	"log/slog"
	"time"
)

// Phase names for the analysis pipeline.
const (
	PhaseValidate  = "validate"
	PhaseOverview  = "overview"
	PhaseGroup     = "group"
	PhaseTrips     = "trips"
	PhaseNormalize = "normalize"
	PhaseTrends    = "trends"
	PhaseAggregate = "aggregate"
	PhaseBehavior  = "behavior"
)

var phaseOrder = []string{
	PhaseValidate, PhaseGroup, PhaseOverview, PhaseTrips, PhaseNormalize,
	PhaseTrends, PhaseAggregate, PhaseBehavior,
}

// PhaseTimer accumulates wall time per pipeline phase.
type PhaseTimer struct {
	start      time.Time
	phaseStart time.Time
	lastPhase  string
	phases     map[string]time.Duration
	total      time.Duration
}

// NewPhaseTimer starts timing a run.
func NewPhaseTimer() *PhaseTimer {
	now := time.Now()
	return &PhaseTimer{start: now, phaseStart: now, phases: make(map[string]time.Duration)}
}

// StartPhase ends the previous phase, if any, and begins timing phase.
func (p *PhaseTimer) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.phases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// Stop ends the final phase and returns the collected timings.
func (p *PhaseTimer) Stop() PhaseStats {
	now := time.Now()
	if p.lastPhase != "" {
		p.phases[p.lastPhase] += now.Sub(p.phaseStart)
		p.lastPhase = ""
	}
	p.total = now.Sub(p.start)

	pct := make(map[string]float64, len(p.phases))
	for phase, d := range p.phases {
		if p.total > 0 {
			pct[phase] = float64(d) / float64(p.total) * 100
		}
	}
	return PhaseStats{Total: p.total, Phases: p.phases, PhasePct: pct}
}

// PhaseStats holds the timing breakdown of one run.
type PhaseStats struct {
	Total    time.Duration
	Phases   map[string]time.Duration
	PhasePct map[string]float64
}

// LogStats logs the timing breakdown.
func (s PhaseStats) LogStats() {
	attrs := []any{"total_us", s.Total.Microseconds()}
	for _, phase := range phaseOrder {
		if d, ok := s.Phases[phase]; ok {
			attrs = append(attrs, phase+"_us", d.Microseconds())
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PhaseStats) LogValue() slog.Value {
	attrs := []slog.Attr{slog.Int64("total_us", s.Total.Microseconds())}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}
