package trips

import (
	"fmt"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/events"
)

// Policy decides what happens to a pending pickup when another pickup arrives first.
type Policy uint8

const (
	// PolicyFIFO queues pickups; each drop consumes the oldest one strictly before it.
	PolicyFIFO Policy = iota
	// PolicyOverwrite keeps a single pending pickup; a later pickup replaces it.
	PolicyOverwrite
)

// ParsePolicy maps a config policy name to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case config.PolicyFIFO:
		return PolicyFIFO, nil
	case config.PolicyOverwrite:
		return PolicyOverwrite, nil
	}
	return 0, fmt.Errorf("unknown pickup policy %q", name)
}

// String returns the config name of the policy.
func (p Policy) String() string {
	if p == PolicyOverwrite {
		return config.PolicyOverwrite
	}
	return config.PolicyFIFO
}

// matchState is the value threaded through the extraction fold.
type matchState struct {
	pending []events.Event
	trips   []Trip
}

// step folds one event into the state and returns the new state.
func (p Policy) step(s matchState, e events.Event) matchState {
	switch e.Category {
	case events.CategoryPickup:
		if p == PolicyOverwrite {
			s.pending = append(s.pending[:0], e)
		} else {
			s.pending = append(s.pending, e)
		}
	case events.CategoryDrop:
		// Pending pickups are in time order, so only the head can be strictly earlier
		if len(s.pending) == 0 || s.pending[0].Timestamp >= e.Timestamp {
			return s
		}
		s.trips = append(s.trips, newTrip(s.pending[0], e))
		s.pending = s.pending[1:]
	}
	return s
}

// Extract matches pickups to drops for a single agent's time-sorted events.
// Drops without an earlier pending pickup are discarded. Events other than
// pickups and drops are ignored. Returns trips in pickup order.
func Extract(evs []events.Event, p Policy) ([]Trip, error) {
	if !events.IsSorted(evs) {
		return nil, fmt.Errorf("%w: events not sorted by timestamp", events.ErrIntegrity)
	}

	var s matchState
	for _, e := range evs {
		s = p.step(s, e)
	}

	for _, t := range s.trips {
		if t.DropTime <= t.PickupTime {
			return nil, fmt.Errorf("%w: agent %d: drop at %d does not follow pickup at %d",
				events.ErrIntegrity, t.AgentID, t.DropTime, t.PickupTime)
		}
	}
	return s.trips, nil
}
