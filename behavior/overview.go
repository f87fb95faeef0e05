package behavior

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/events"
	"github.com/pthm-cable/forage/stats"
)

// Movement states recorded in the data column of position samples.
const (
	StateSearching = "SEARCHING"
	StateReturning = "RETURNING"
)

// OverviewParams configures ComputeOverview.
type OverviewParams struct {
	MaxSampleSpeed float64
	StateBins      int
	ReturnRatio    float64
}

// OverviewParamsFrom copies the overview settings out of cfg.
func OverviewParamsFrom(cfg *config.Config) OverviewParams {
	return OverviewParams{
		MaxSampleSpeed: cfg.Overview.MaxSampleSpeed,
		StateBins:      cfg.Overview.StateBins,
		ReturnRatio:    cfg.Overview.ReturnRatio,
	}
}

// CategoryCount is the number and share of events of one category.
type CategoryCount struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Pct      float64 `json:"pct"`
}

// Food summarizes discoveries and pickups.
type Food struct {
	Status            stats.Status `json:"status"`
	Events            int          `json:"events"`
	Agents            int          `json:"agents"`
	MeanPerAgent      float64      `json:"mean_per_agent"`
	MeanFirstFoundSec float64      `json:"mean_first_found_sec"`
	RatePerSec        *float64     `json:"rate_per_sec"`
}

// StateBin counts movement states in one equal-width slice of the run.
type StateBin struct {
	StartSec  float64 `json:"start_sec"`
	Searching int     `json:"searching"`
	Returning int     `json:"returning"`
}

// Movement summarizes position samples.
type Movement struct {
	Status       stats.Status `json:"status"`
	Samples      int          `json:"samples"`
	SearchingPct float64      `json:"searching_pct"`
	ReturningPct float64      `json:"returning_pct"`
	SpeedSamples int          `json:"speed_samples"`
	MeanSpeed    *float64     `json:"mean_speed"`
	Area         float64      `json:"bounding_area"`
	StateBins    []StateBin   `json:"state_bins"`
	// Nil unless both states were observed
	Stabilized *bool `json:"stabilized"`
}

// DecisionCount is the number and share of one decision type.
type DecisionCount struct {
	Action string  `json:"action"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
}

// DecisionMix is the decision-type distribution over the whole run.
type DecisionMix struct {
	Status       stats.Status    `json:"status"`
	Total        int             `json:"total"`
	Types        []DecisionCount `json:"types"`
	PheromonePct float64         `json:"pheromone_pct"`
}

// Productivity relates food events to run time and colony size.
type Productivity struct {
	Status       stats.Status `json:"status"`
	FoodPerSec   float64      `json:"food_per_sec"`
	FoodPerAgent float64      `json:"food_per_agent"`
}

// Overview is a whole-run summary of the event log.
type Overview struct {
	Status       stats.Status    `json:"status"`
	DurationSec  float64         `json:"duration_sec"`
	Events       int             `json:"events"`
	Agents       int             `json:"agents"`
	Categories   []CategoryCount `json:"categories"`
	Food         Food            `json:"food"`
	Movement     Movement        `json:"movement"`
	Decisions    DecisionMix     `json:"decisions"`
	Productivity Productivity    `json:"productivity"`
}

// ComputeOverview summarizes time-sorted events. Times are relative to the
// first event.
func ComputeOverview(sorted []events.Event, p OverviewParams) Overview {
	if len(sorted) == 0 {
		return Overview{
			Status:       stats.StatusNoData,
			Food:         Food{Status: stats.StatusNoData},
			Movement:     Movement{Status: stats.StatusNoData},
			Decisions:    DecisionMix{Status: stats.StatusNoData},
			Productivity: Productivity{Status: stats.StatusNoData},
		}
	}
	origin := sorted[0].Timestamp
	o := Overview{
		Status:      stats.StatusOK,
		DurationSec: float64(sorted[len(sorted)-1].Timestamp-origin) / 1e9,
		Events:      len(sorted),
	}

	agents := make(map[int]bool)
	counts := make([]int, events.CategoryDiscovered+1)
	for _, e := range sorted {
		if e.HasAgent() {
			agents[e.AgentID] = true
		}
		if int(e.Category) < len(counts) {
			counts[e.Category]++
		}
	}
	o.Agents = len(agents)
	for c, n := range counts {
		o.Categories = append(o.Categories, CategoryCount{
			Category: events.Category(c).String(),
			Count:    n,
			Pct:      share(n, len(sorted)),
		})
	}

	o.Food = foodSummary(sorted, origin, o.DurationSec)
	o.Movement = movementSummary(events.Filter(sorted, events.CategoryPosition), origin, p)
	o.Decisions = decisionMix(events.Filter(sorted, events.CategoryDecision))

	o.Productivity = Productivity{Status: stats.StatusInsufficientData}
	if o.DurationSec > 0 && o.Agents > 0 {
		o.Productivity = Productivity{
			Status:       stats.StatusOK,
			FoodPerSec:   float64(o.Food.Events) / o.DurationSec,
			FoodPerAgent: float64(o.Food.Events) / float64(o.Agents),
		}
	}
	return o
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// foodSummary counts discoveries and pickups. Per-agent figures use
// attributed events only.
func foodSummary(sorted []events.Event, origin int64, durationSec float64) Food {
	food := events.Filter(sorted, events.CategoryDiscovered, events.CategoryPickup)
	if len(food) == 0 {
		return Food{Status: stats.StatusNoData}
	}
	f := Food{Status: stats.StatusInsufficientData, Events: len(food)}
	if durationSec > 0 {
		rate := float64(len(food)) / durationSec
		f.RatePerSec = &rate
	}

	groups, roster, _ := events.GroupByAgent(food)
	if len(roster) == 0 {
		return f
	}
	perAgent := make([]float64, len(roster))
	firstFound := make([]float64, len(roster))
	for i, id := range roster {
		evs := groups[id]
		perAgent[i] = float64(len(evs))
		firstFound[i] = float64(evs[0].Timestamp-origin) / 1e9
	}
	f.Status = stats.StatusOK
	f.Agents = len(roster)
	f.MeanPerAgent, _ = stats.Mean(perAgent)
	f.MeanFirstFoundSec, _ = stats.Mean(firstFound)
	return f
}

// movementSummary computes state shares, sample-to-sample speed, the
// bounding-box area and the state evolution over time.
func movementSummary(positions []events.Event, origin int64, p OverviewParams) Movement {
	if len(positions) == 0 {
		return Movement{Status: stats.StatusNoData}
	}
	m := Movement{Status: stats.StatusOK, Samples: len(positions)}

	var searching, returning int
	xs := make([]float64, len(positions))
	ys := make([]float64, len(positions))
	last := make(map[int]events.Event)
	var speeds []float64
	for i, e := range positions {
		switch e.Payload {
		case StateSearching:
			searching++
		case StateReturning:
			returning++
		}
		xs[i], ys[i] = e.X, e.Y

		if !e.HasAgent() {
			continue
		}
		if prev, ok := last[e.AgentID]; ok {
			dt := float64(e.Timestamp-prev.Timestamp) / 1e9
			if dt > 0 {
				if v := prev.Pos().Dist(e.Pos()) / dt; v < p.MaxSampleSpeed {
					speeds = append(speeds, v)
				}
			}
		}
		last[e.AgentID] = e
	}

	m.SearchingPct = share(searching, len(positions))
	m.ReturningPct = share(returning, len(positions))
	m.SpeedSamples = len(speeds)
	if mean, ok := stats.Mean(speeds); ok {
		m.MeanSpeed = &mean
	}
	m.Area = (floats.Max(xs) - floats.Min(xs)) * (floats.Max(ys) - floats.Min(ys))

	m.StateBins = stateBins(positions, origin, p.StateBins)
	if searching > 0 && returning > 0 {
		stable := false
		for _, b := range m.StateBins {
			if n := b.Searching + b.Returning; n > 0 && float64(b.Returning)/float64(n) > p.ReturnRatio {
				stable = true
				break
			}
		}
		m.Stabilized = &stable
	}
	return m
}

// stateBins splits the sample time range into n equal-width bins. The last
// bin includes the final sample.
func stateBins(positions []events.Event, origin int64, n int) []StateBin {
	if n < 1 {
		return nil
	}
	first := positions[0].Timestamp
	width := float64(positions[len(positions)-1].Timestamp-first) / float64(n)

	bins := make([]StateBin, n)
	for i := range bins {
		bins[i].StartSec = (float64(first-origin) + width*float64(i)) / 1e9
	}
	for _, e := range positions {
		i := 0
		if width > 0 {
			i = min(int(float64(e.Timestamp-first)/width), n-1)
		}
		switch e.Payload {
		case StateSearching:
			bins[i].Searching++
		case StateReturning:
			bins[i].Returning++
		}
	}
	return bins
}

// decisionMix counts decision types, most frequent first. Decisions without a
// type count toward Total only.
func decisionMix(decisions []events.Event) DecisionMix {
	if len(decisions) == 0 {
		return DecisionMix{Status: stats.StatusNoData}
	}
	byAction := make(map[string]int)
	using := 0
	for _, e := range decisions {
		if e.Action != "" {
			byAction[e.Action]++
		}
		if events.ParseDecision(e.Payload).UsingPheromones {
			using++
		}
	}

	d := DecisionMix{
		Status:       stats.StatusOK,
		Total:        len(decisions),
		PheromonePct: share(using, len(decisions)),
	}
	for action, n := range byAction {
		d.Types = append(d.Types, DecisionCount{Action: action, Count: n, Pct: share(n, len(decisions))})
	}
	sort.Slice(d.Types, func(i, j int) bool {
		if d.Types[i].Count != d.Types[j].Count {
			return d.Types[i].Count > d.Types[j].Count
		}
		return d.Types[i].Action < d.Types[j].Action
	})
	return d
}

// LogValue implements slog.LogValuer for structured logging.
func (o Overview) LogValue() slog.Value {
	if o.Status != stats.StatusOK {
		return slog.GroupValue(slog.String("status", string(o.Status)))
	}
	attrs := []slog.Attr{
		slog.Float64("duration_sec", o.DurationSec),
		slog.Int("events", o.Events),
		slog.Int("agents", o.Agents),
		slog.Int("food_events", o.Food.Events),
		slog.Int("food_agents", o.Food.Agents),
	}
	if o.Movement.Status == stats.StatusOK {
		attrs = append(attrs,
			slog.Float64("searching_pct", o.Movement.SearchingPct),
			slog.Float64("returning_pct", o.Movement.ReturningPct),
		)
	}
	if o.Decisions.Status == stats.StatusOK {
		attrs = append(attrs, slog.Float64("pheromone_pct", o.Decisions.PheromonePct))
	}
	if o.Productivity.Status == stats.StatusOK {
		attrs = append(attrs, slog.Float64("food_per_sec", o.Productivity.FoodPerSec))
	}
	return slog.GroupValue(attrs...)
}
