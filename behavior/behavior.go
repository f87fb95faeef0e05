package behavior

import (
	"log/slog"

	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/stats"
)

// Assessment labels for the stabilization score.
const (
	AssessmentHigh     = "high"
	AssessmentGood     = "good"
	AssessmentModerate = "moderate"
	AssessmentLow      = "low"
)

// Score weights how strongly trails have stabilized, out of 100.
type Score struct {
	Entropy    float64 `json:"entropy"`    // up to 30
	Trails     float64 `json:"trails"`     // up to 40
	Pheromone  float64 `json:"pheromone"`  // up to 30
	Total      float64 `json:"total"`
	Assessment string  `json:"assessment"`
}

// Report bundles the colony behavior metrics.
type Report struct {
	Status     stats.Status `json:"status"`
	Entropy    Entropy      `json:"spatial_entropy"`
	Paths      Paths        `json:"beaten_paths"`
	Pheromones Pheromones   `json:"pheromones"`
	Score      Score        `json:"stabilization"`
}

// Analyze runs every behavior metric over time-sorted events. Times are
// measured from the first event; positions off the map are ignored.
func Analyze(sorted []events.Event, p Params) Report {
	if len(sorted) == 0 {
		return Report{
			Status:     stats.StatusNoData,
			Entropy:    Entropy{Status: stats.StatusNoData},
			Paths:      Paths{Status: stats.StatusNoData},
			Pheromones: Pheromones{Status: stats.StatusNoData},
			Score:      Score{Assessment: AssessmentLow},
		}
	}
	origin := sorted[0].Timestamp

	r := Report{
		Status:     stats.StatusOK,
		Entropy:    SpatialEntropy(sorted, origin, p),
		Paths:      BeatenPaths(sorted, origin, p),
		Pheromones: PheromoneUsage(sorted, origin, p),
	}
	r.Score = Stabilization(r.Entropy, r.Paths, r.Pheromones)
	if r.Entropy.Status != stats.StatusOK && r.Pheromones.Status != stats.StatusOK {
		r.Status = stats.StatusNoData
	}
	return r
}

// Stabilization combines the three metrics into a score. Each part is
// clamped to [0, cap] so that rising entropy cannot subtract points.
func Stabilization(e Entropy, paths Paths, ph Pheromones) Score {
	var s Score
	if e.Status == stats.StatusOK {
		s.Entropy = clamp(e.Reduction*0.5, 30)
	}
	if paths.Status == stats.StatusOK {
		s.Trails = clamp(paths.MaxBeaten*0.4, 40)
	}
	if ph.Status == stats.StatusOK {
		s.Pheromone = clamp(ph.MaxUsage*0.3, 30)
	}
	s.Total = s.Entropy + s.Trails + s.Pheromone

	switch {
	case s.Total >= 80:
		s.Assessment = AssessmentHigh
	case s.Total >= 60:
		s.Assessment = AssessmentGood
	case s.Total >= 40:
		s.Assessment = AssessmentModerate
	default:
		s.Assessment = AssessmentLow
	}
	return s
}

func clamp(v, hi float64) float64 {
	return min(max(v, 0), hi)
}

// LogValue implements slog.LogValuer for structured logging.
func (r Report) LogValue() slog.Value {
	if r.Status != stats.StatusOK {
		return slog.GroupValue(slog.String("status", string(r.Status)))
	}
	return slog.GroupValue(
		slog.Float64("entropy_reduction_pct", r.Entropy.Reduction),
		slog.Float64("final_beaten_pct", r.Paths.FinalBeaten),
		slog.Float64("final_pheromone_pct", r.Pheromones.FinalUsage),
		slog.Float64("score", r.Score.Total),
		slog.String("assessment", r.Score.Assessment),
	)
}
