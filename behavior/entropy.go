package behavior

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/stats"
)

// entropyEdgeWindows is how many windows form the initial and final averages.
const entropyEdgeWindows = 5

// EntropyWindow holds the spatial spread of positions in one window.
type EntropyWindow struct {
	StartSec      float64 `json:"start_sec" csv:"start_sec"`
	Visits        int     `json:"visits" csv:"visits"`
	MaxCellVisits int     `json:"max_cell_visits" csv:"max_cell_visits"`
	Entropy       float64 `json:"entropy_bits" csv:"entropy_bits"`
}

// Entropy summarizes how concentrated agent positions become over a run.
// Falling entropy means agents crowd onto fewer cells.
type Entropy struct {
	Status    stats.Status    `json:"status"`
	Windows   []EntropyWindow `json:"windows,omitempty"`
	Initial   float64         `json:"initial_bits"`
	Final     float64         `json:"final_bits"`
	Reduction float64         `json:"reduction_pct"`
}

// cell returns the heat map cell for a position, clamped to the grid.
func (p Params) cell(pt events.Point) int {
	col := int(math.Floor(pt.X / p.GridSize))
	row := int(math.Floor(pt.Y / p.GridSize))
	cols, rows := max(p.GridCols, 1), max(p.GridRows, 1)
	col = min(max(col, 0), cols-1)
	row = min(max(row, 0), rows-1)
	return row*cols + col
}

// SpatialEntropy computes the Shannon entropy (bits) of position visits over
// grid cells in each time window.
func SpatialEntropy(sorted []events.Event, origin int64, p Params) Entropy {
	windows := collect(sorted, origin, p, events.CategoryPosition)
	if len(windows) == 0 {
		return Entropy{Status: stats.StatusNoData}
	}

	res := Entropy{Status: stats.StatusOK}
	values := make([]float64, 0, len(windows))
	for _, w := range windows {
		counts := make(map[int]int)
		for _, e := range w.Events {
			counts[p.cell(e.Pos())]++
		}

		probs := make([]float64, 0, len(counts))
		peak := 0
		for _, n := range counts {
			probs = append(probs, float64(n)/float64(len(w.Events)))
			peak = max(peak, n)
		}
		// Map order is random; sort so the sum is reproducible
		sort.Float64s(probs)
		h := stat.Entropy(probs) / math.Ln2
		if h == 0 {
			// Normalize -0 from a single occupied cell
			h = 0
		}

		res.Windows = append(res.Windows, EntropyWindow{
			StartSec:      w.StartSec,
			Visits:        len(w.Events),
			MaxCellVisits: peak,
			Entropy:       h,
		})
		values = append(values, h)
	}

	res.Initial = headTailMean(values, entropyEdgeWindows, false)
	res.Final = headTailMean(values, entropyEdgeWindows, true)
	if res.Initial > 0 {
		res.Reduction = (res.Initial - res.Final) / res.Initial * 100
	}
	return res
}
