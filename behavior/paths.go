package behavior

import (
	"math"

	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/stats"
)

const (
	pathEdgeWindows      = 10
	convergenceThreshold = 50.0 // percent of beaten moves
)

// PathWindow classifies the positions of one window.
type PathWindow struct {
	StartSec  float64 `json:"start_sec" csv:"start_sec"`
	Beaten    int     `json:"beaten" csv:"beaten"`
	Virgin    int     `json:"virgin" csv:"virgin"`
	BeatenPct float64 `json:"beaten_pct" csv:"beaten_pct"`
	VirginPct float64 `json:"virgin_pct" csv:"virgin_pct"`
	Area      float64 `json:"explored_area" csv:"explored_area"`
}

// Paths summarizes the shift from exploring new ground to reusing trails.
type Paths struct {
	Status         stats.Status `json:"status"`
	Windows        []PathWindow `json:"windows,omitempty"`
	InitialBeaten  float64      `json:"initial_beaten_pct"`
	FinalBeaten    float64      `json:"final_beaten_pct"`
	MaxBeaten      float64      `json:"max_beaten_pct"`
	Explored       int          `json:"explored_positions"`
	Converged      bool         `json:"converged"`
	ConvergenceSec float64      `json:"convergence_sec,omitempty"`
}

// BeatenPaths walks positions in time order. A position within the trail
// distance of an explored position is beaten; otherwise it is virgin and
// becomes explored itself.
func BeatenPaths(sorted []events.Event, origin int64, p Params) Paths {
	windows := collect(sorted, origin, p, events.CategoryPosition)
	if len(windows) == 0 {
		return Paths{Status: stats.StatusNoData}
	}

	grid := NewTrailGrid(p.MapWidth, p.MapHeight, p.TrailDistance)
	footprint := math.Pi * (p.TrailDistance / 2) * (p.TrailDistance / 2)

	res := Paths{Status: stats.StatusOK}
	pcts := make([]float64, 0, len(windows))
	for _, w := range windows {
		var pw PathWindow
		pw.StartSec = w.StartSec
		for _, e := range w.Events {
			pos := e.Pos()
			if grid.Len() > 0 && grid.Near(pos, p.TrailDistance) {
				pw.Beaten++
				continue
			}
			pw.Virgin++
			grid.Insert(pos)
		}

		total := float64(pw.Beaten + pw.Virgin)
		pw.BeatenPct = float64(pw.Beaten) / total * 100
		pw.VirginPct = float64(pw.Virgin) / total * 100
		pw.Area = float64(grid.Len()) * footprint

		if !res.Converged && pw.BeatenPct > convergenceThreshold {
			res.Converged = true
			res.ConvergenceSec = pw.StartSec
		}
		res.Windows = append(res.Windows, pw)
		pcts = append(pcts, pw.BeatenPct)
	}

	res.InitialBeaten = headTailMean(pcts, pathEdgeWindows, false)
	res.FinalBeaten = headTailMean(pcts, pathEdgeWindows, true)
	for _, v := range pcts {
		res.MaxBeaten = max(res.MaxBeaten, v)
	}
	res.Explored = grid.Len()
	return res
}
