package events

import (
	"strconv"
	"strings"
)

// Decision types recorded by the simulation.
const (
	ActionFollowFood = "FOLLOW_FOOD_PHEROMONE"
	ActionFollowNest = "FOLLOW_NEST_PHEROMONE"
	ActionRandomWalk = "RANDOM_WALK"
)

// Decision holds the parsed payload of a decision event.
type Decision struct {
	PheromoneIntensity float64
	UsingPheromones    bool
	Behavior           string
}

// ParseDecision parses a "key=value;key=value" payload.
// Unknown keys are ignored; an unparseable intensity reads as 0.
func ParseDecision(payload string) Decision {
	var d Decision
	for _, field := range strings.FieldsFunc(payload, func(r rune) bool { return r == ';' || r == ',' }) {
		key, value, ok := strings.Cut(strings.TrimSpace(field), "=")
		if !ok {
			continue
		}
		switch key {
		case "pheromone_intensity":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				d.PheromoneIntensity = v
			}
		case "using_pheromones":
			d.UsingPheromones = value == "true"
		case "behavior":
			d.Behavior = value
		}
	}
	return d
}
