package behavior

import (
	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/stats"
)

const pheromoneEdgeWindows = 10

// PheromoneWindow holds decision shares for one window.
type PheromoneWindow struct {
	StartSec  float64 `json:"start_sec" csv:"start_sec"`
	Decisions int     `json:"decisions" csv:"decisions"`
	UsagePct  float64 `json:"usage_pct" csv:"usage_pct"`
	Intensity float64 `json:"mean_intensity" csv:"mean_intensity"` // over pheromone-using decisions
	FoodPct   float64 `json:"food_pct" csv:"food_pct"`
	NestPct   float64 `json:"nest_pct" csv:"nest_pct"`
	RandomPct float64 `json:"random_pct" csv:"random_pct"`
}

// Pheromones summarizes how decisions shift toward following pheromones.
type Pheromones struct {
	Status         stats.Status      `json:"status"`
	Windows        []PheromoneWindow `json:"windows,omitempty"`
	InitialUsage   float64           `json:"initial_usage_pct"`
	FinalUsage     float64           `json:"final_usage_pct"`
	MaxUsage       float64           `json:"max_usage_pct"`
	InitialRandom  float64           `json:"initial_random_pct"`
	FinalRandom    float64           `json:"final_random_pct"`
	FinalIntensity float64           `json:"final_intensity"`
	PeakIntensity  float64           `json:"peak_intensity"`
}

// PheromoneUsage computes per-window decision shares from decision events.
func PheromoneUsage(sorted []events.Event, origin int64, p Params) Pheromones {
	windows := collect(sorted, origin, p, events.CategoryDecision)
	if len(windows) == 0 {
		return Pheromones{Status: stats.StatusNoData}
	}

	res := Pheromones{Status: stats.StatusOK}
	usage := make([]float64, 0, len(windows))
	random := make([]float64, 0, len(windows))
	intensity := make([]float64, 0, len(windows))

	for _, w := range windows {
		var using, food, nest, rnd int
		var intensitySum float64
		for _, e := range w.Events {
			d := events.ParseDecision(e.Payload)
			if d.UsingPheromones {
				using++
				intensitySum += d.PheromoneIntensity
			}
			switch e.Action {
			case events.ActionFollowFood:
				food++
			case events.ActionFollowNest:
				nest++
			case events.ActionRandomWalk:
				rnd++
			}
		}

		total := float64(len(w.Events))
		pw := PheromoneWindow{
			StartSec:  w.StartSec,
			Decisions: len(w.Events),
			UsagePct:  float64(using) / total * 100,
			FoodPct:   float64(food) / total * 100,
			NestPct:   float64(nest) / total * 100,
			RandomPct: float64(rnd) / total * 100,
		}
		if using > 0 {
			pw.Intensity = intensitySum / float64(using)
		}

		res.Windows = append(res.Windows, pw)
		usage = append(usage, pw.UsagePct)
		random = append(random, pw.RandomPct)
		intensity = append(intensity, pw.Intensity)
	}

	res.InitialUsage = headTailMean(usage, pheromoneEdgeWindows, false)
	res.FinalUsage = headTailMean(usage, pheromoneEdgeWindows, true)
	res.InitialRandom = headTailMean(random, pheromoneEdgeWindows, false)
	res.FinalRandom = headTailMean(random, pheromoneEdgeWindows, true)
	res.FinalIntensity = headTailMean(intensity, pheromoneEdgeWindows, true)
	for i := range usage {
		res.MaxUsage = max(res.MaxUsage, usage[i])
		res.PeakIntensity = max(res.PeakIntensity, intensity[i])
	}
	return res
}
