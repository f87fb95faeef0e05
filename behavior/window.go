// Package behavior measures colony-level movement and decision patterns over
// fixed time windows.
package behavior

import (
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/stats"
)

// Params holds the map geometry and windowing used by all behavior metrics.
type Params struct {
	MapWidth      float64
	MapHeight     float64
	GridSize      float64
	GridCols      int
	GridRows      int
	TrailDistance float64
	WindowNs      int64
}

// ParamsFrom builds Params from the behavior section of cfg.
func ParamsFrom(cfg *config.Config) Params {
	return Params{
		MapWidth:      cfg.Behavior.MapWidth,
		MapHeight:     cfg.Behavior.MapHeight,
		GridSize:      cfg.Behavior.GridSize,
		GridCols:      cfg.Derived.GridCols,
		GridRows:      cfg.Derived.GridRows,
		TrailDistance: cfg.Behavior.TrailDistance,
		WindowNs:      cfg.Derived.WindowNs,
	}
}

// InBounds reports whether p lies on the map, edges included.
func (p Params) InBounds(pt events.Point) bool {
	return pt.X >= 0 && pt.X <= p.MapWidth && pt.Y >= 0 && pt.Y <= p.MapHeight
}

// Window is a run of events sharing one time bin.
type Window struct {
	Index    int64 // bin number counted from the origin
	StartSec float64
	Events   []events.Event
}

// Collector assigns time-ordered events to fixed-width windows relative to an
// origin. Only windows that receive at least one event are emitted.
type Collector struct {
	origin   int64
	windowNs int64

	current Window
	open    bool
	done    []Window
}

// NewCollector creates a collector for windows of windowNs starting at origin.
func NewCollector(origin, windowNs int64) *Collector {
	if windowNs < 1 {
		windowNs = 1
	}
	return &Collector{origin: origin, windowNs: windowNs}
}

// bin returns the window number for ts.
func (c *Collector) bin(ts int64) int64 {
	d := ts - c.origin
	if d < 0 {
		// Floor division for events before the origin
		return -((-d + c.windowNs - 1) / c.windowNs)
	}
	return d / c.windowNs
}

// ShouldFlush reports whether ts falls outside the open window.
func (c *Collector) ShouldFlush(ts int64) bool {
	return c.open && c.bin(ts) != c.current.Index
}

// Record adds an event, flushing the open window when e starts a new one.
func (c *Collector) Record(e events.Event) {
	if c.ShouldFlush(e.Timestamp) {
		c.Flush()
	}
	if !c.open {
		idx := c.bin(e.Timestamp)
		c.current = Window{
			Index:    idx,
			StartSec: float64(idx*c.windowNs) / 1e9,
		}
		c.open = true
	}
	c.current.Events = append(c.current.Events, e)
}

// Flush closes the open window, if any.
func (c *Collector) Flush() {
	if !c.open {
		return
	}
	c.done = append(c.done, c.current)
	c.current = Window{}
	c.open = false
}

// Windows flushes and returns every completed window in time order.
func (c *Collector) Windows() []Window {
	c.Flush()
	return c.done
}

// collect bins the in-bounds events of one category.
func collect(sorted []events.Event, origin int64, p Params, cat events.Category) []Window {
	c := NewCollector(origin, p.WindowNs)
	for _, e := range sorted {
		if e.Category == cat && e.HasPosition() && p.InBounds(e.Pos()) {
			c.Record(e)
		}
	}
	return c.Windows()
}

// headTailMean averages the first (head) or last (tail) k values, or takes the
// single first or last value when there are fewer than k.
func headTailMean(values []float64, k int, tail bool) float64 {
	if len(values) == 0 {
		return 0
	}
	if len(values) < k {
		if tail {
			return values[len(values)-1]
		}
		return values[0]
	}
	part := values[:k]
	if tail {
		part = values[len(values)-k:]
	}
	mean, _ := stats.Mean(part)
	return mean
}
