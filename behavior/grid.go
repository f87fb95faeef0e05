package behavior

import (
	"math"

	"github.com/pthm-cable/forage/events"
)

// TrailGrid indexes explored positions in uniform cells so that nearest-trail
// checks only visit neighboring cells. The map does not wrap.
type TrailGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]events.Point
	count    int
}

// NewTrailGrid creates a grid covering width x height with cells of cellSize.
// Use the trail distance as cell size so a radius query touches 3x3 cells.
func NewTrailGrid(width, height, cellSize float64) *TrailGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	return &TrailGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]events.Point, cols*rows),
	}
}

// Insert adds an explored position.
func (g *TrailGrid) Insert(p events.Point) {
	idx := g.cellIndex(p.X, p.Y)
	g.cells[idx] = append(g.cells[idx], p)
	g.count++
}

// Len returns the number of explored positions.
func (g *TrailGrid) Len() int {
	return g.count
}

// Near reports whether any explored position lies within radius of p.
func (g *TrailGrid) Near(p events.Point, radius float64) bool {
	cellRadius := int(math.Ceil(radius / g.cellSize))
	centerCol, centerRow := g.cellCoords(p.X, p.Y)
	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}
			for _, q := range g.cells[row*g.cols+col] {
				dx, dy := q.X-p.X, q.Y-p.Y
				if dx*dx+dy*dy <= radiusSq {
					return true
				}
			}
		}
	}
	return false
}

func (g *TrailGrid) cellCoords(x, y float64) (col, row int) {
	col = int(x / g.cellSize)
	row = int(y / g.cellSize)

	// Clamp to valid range
	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// cellIndex returns the flat index for a world position.
func (g *TrailGrid) cellIndex(x, y float64) int {
	col, row := g.cellCoords(x, y)
	return row*g.cols + col
}
