// Package events provides the typed log record model consumed by the analysis.
package events

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrIntegrity marks input that cannot produce trustworthy statistics.
// Errors wrapping it fail the whole run.
var ErrIntegrity = errors.New("input integrity")

// NoAgent is the AgentID of events whose agent could not be identified.
const NoAgent = -1

// Category identifies the kind of log record.
type Category uint8

const (
	CategoryPosition Category = iota
	CategoryDecision
	CategoryPickup
	CategoryDrop
	CategoryDiscovered
)

var categoryNames = [...]string{
	CategoryPosition:   "ANT_POSITION",
	CategoryDecision:   "ANT_DECISION",
	CategoryPickup:     "FOOD_PICKUP",
	CategoryDrop:       "FOOD_DROP",
	CategoryDiscovered: "FOOD_DISCOVERED",
}

// String returns the wire name of the category.
func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// ParseCategory maps a wire name to its Category.
// Reports false for names outside the analyzed set (e.g. EXPERIMENT_START).
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

// Point is a world position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the euclidean distance between two points.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Event represents a single log record.
type Event struct {
	Timestamp int64 // nanoseconds
	Category  Category
	AgentID   int // NoAgent when unknown
	X, Y      float64

	// Optional fields depending on category
	Payload    string // free-form key=value data
	Action     string // decision type for decision events
	NoPosition bool   // X and Y were absent in the log
}

// Pos returns the event position.
func (e Event) Pos() Point {
	return Point{X: e.X, Y: e.Y}
}

// HasPosition reports whether X and Y were recorded.
func (e Event) HasPosition() bool {
	return !e.NoPosition
}

// HasAgent reports whether the event is attributed to an agent.
func (e Event) HasAgent() bool {
	return e.AgentID >= 0
}

// Validate checks the event for integrity problems.
func (e Event) Validate() error {
	if e.Timestamp < 0 {
		return fmt.Errorf("%w: %s at %d: negative timestamp", ErrIntegrity, e.Category, e.Timestamp)
	}
	if e.HasPosition() && (math.IsNaN(e.X) || math.IsInf(e.X, 0) || math.IsNaN(e.Y) || math.IsInf(e.Y, 0)) {
		return fmt.Errorf("%w: %s at %d: non-finite position (%v, %v)", ErrIntegrity, e.Category, e.Timestamp, e.X, e.Y)
	}
	return nil
}

// NewPositionEvent creates a position sample.
func NewPositionEvent(ts int64, agentID int, x, y float64) Event {
	return Event{Timestamp: ts, Category: CategoryPosition, AgentID: agentID, X: x, Y: y}
}

// NewPickupEvent creates a food pickup event.
func NewPickupEvent(ts int64, agentID int, x, y float64) Event {
	return Event{Timestamp: ts, Category: CategoryPickup, AgentID: agentID, X: x, Y: y}
}

// NewDropEvent creates a food drop event.
func NewDropEvent(ts int64, agentID int, x, y float64) Event {
	return Event{Timestamp: ts, Category: CategoryDrop, AgentID: agentID, X: x, Y: y}
}

// NewDecisionEvent creates a behavioral decision event.
func NewDecisionEvent(ts int64, agentID int, x, y float64, action, payload string) Event {
	return Event{
		Timestamp: ts,
		Category:  CategoryDecision,
		AgentID:   agentID,
		X:         x,
		Y:         y,
		Action:    action,
		Payload:   payload,
	}
}

// ValidateAll validates every event, returning the first failure.
func ValidateAll(evs []Event) error {
	for i := range evs {
		if err := evs[i].Validate(); err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
	}
	return nil
}

// SortByTime returns a copy of evs sorted by timestamp.
// Events sharing a timestamp keep their input order.
func SortByTime(evs []Event) []Event {
	sorted := make([]Event, len(evs))
	copy(sorted, evs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})
	return sorted
}

// IsSorted reports whether evs is in non-decreasing timestamp order.
func IsSorted(evs []Event) bool {
	for i := 1; i < len(evs); i++ {
		if evs[i].Timestamp < evs[i-1].Timestamp {
			return false
		}
	}
	return true
}

// Filter returns the events of the given categories, preserving order.
func Filter(evs []Event, cats ...Category) []Event {
	var mask uint32
	for _, c := range cats {
		mask |= 1 << c
	}
	var out []Event
	for _, e := range evs {
		if mask&(1<<e.Category) != 0 {
			out = append(out, e)
		}
	}
	return out
}

// GroupByAgent splits events per agent, preserving order within each agent.
// Events without an agent are dropped; their count is returned.
// The roster lists agent ids in ascending order.
func GroupByAgent(evs []Event) (groups map[int][]Event, roster []int, dropped int) {
	groups = make(map[int][]Event)
	for _, e := range evs {
		if !e.HasAgent() {
			dropped++
			continue
		}
		if _, ok := groups[e.AgentID]; !ok {
			roster = append(roster, e.AgentID)
		}
		groups[e.AgentID] = append(groups[e.AgentID], e)
	}
	sort.Ints(roster)
	return groups, roster, dropped
}

// Span returns the first and last timestamps of a sorted slice.
func Span(sorted []Event) (first, last int64, ok bool) {
	if len(sorted) == 0 {
		return 0, 0, false
	}
	return sorted[0].Timestamp, sorted[len(sorted)-1].Timestamp, true
}
