package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/stats"
)

// TripCSV is a flat trip row for trips.csv.
type TripCSV struct {
	AgentID              int     `csv:"agent_id"`
	TripIndex            int     `csv:"trip_index"`
	PickupTime           int64   `csv:"pickup_ns"`
	DropTime             int64   `csv:"drop_ns"`
	PickupX              float64 `csv:"pickup_x"`
	PickupY              float64 `csv:"pickup_y"`
	DropX                float64 `csv:"drop_x"`
	DropY                float64 `csv:"drop_y"`
	Unplaced             bool    `csv:"unplaced"`
	DurationSec          float64 `csv:"duration_sec"`
	Distance             float64 `csv:"distance"`
	SampleCount          int     `csv:"sample_count"`
	Velocity             float64 `csv:"velocity"`
	Efficiency           float64 `csv:"efficiency"`
	LogEfficiency        string  `csv:"log_efficiency"`
	NormalizedEfficiency string  `csv:"normalized_efficiency"`
}

// AgentCSV is a flat per-agent row for agents.csv.
type AgentCSV struct {
	AgentID        int     `csv:"agent_id"`
	Status         string  `csv:"status"`
	Trips          int     `csv:"trips"`
	MeanDuration   string  `csv:"mean_duration_sec"`
	Consistency    string  `csv:"consistency"`
	HalvesStatus   string  `csv:"halves_status"`
	SpeedPct       string  `csv:"speed_change_pct"`
	VelocityPct    string  `csv:"velocity_change_pct"`
	EfficiencyPct  string  `csv:"efficiency_change_pct"`
	TripsPerSecond float64 `csv:"trips_per_second"`
	MeanInterval   float64 `csv:"mean_interval_sec"`
}

// optional formats a possibly-missing value; missing values are empty cells.
func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

// TripRows flattens every agent's trips.
func (r *Report) TripRows() []TripCSV {
	var rows []TripCSV
	for _, a := range r.Agents {
		for i, t := range a.Trips {
			rows = append(rows, TripCSV{
				AgentID:              t.AgentID,
				TripIndex:            i,
				PickupTime:           t.PickupTime,
				DropTime:             t.DropTime,
				PickupX:              t.PickupPos.X,
				PickupY:              t.PickupPos.Y,
				DropX:                t.DropPos.X,
				DropY:                t.DropPos.Y,
				DurationSec:          t.DurationSec,
				Distance:             t.Distance,
				SampleCount:          t.SampleCount,
				Velocity:             t.Velocity,
				Efficiency:           t.Efficiency,
				LogEfficiency:        optional(t.LogEfficiency),
				NormalizedEfficiency: optional(t.NormalizedEfficiency),
			})
		}
	}
	return rows
}

// AgentRows flattens the per-agent results in roster order.
func (r *Report) AgentRows() []AgentCSV {
	rows := make([]AgentCSV, len(r.Agents))
	for i, a := range r.Agents {
		row := AgentCSV{
			AgentID:        a.AgentID,
			Status:         string(a.Status),
			Trips:          len(a.Trips),
			MeanDuration:   optional(a.MeanDuration),
			Consistency:    optional(a.Consistency),
			HalvesStatus:   string(a.Halves.Status),
			TripsPerSecond: a.Frequency.TripsPerSecond,
			MeanInterval:   a.Frequency.MeanInterval,
		}
		if c := a.Halves.Speed; c.Status == stats.StatusOK {
			row.SpeedPct = optional(&c.PercentChange)
		}
		if c := a.Halves.Velocity; c.Status == stats.StatusOK {
			row.VelocityPct = optional(&c.PercentChange)
		}
		if c := a.Halves.Efficiency; c.Status == stats.StatusOK {
			row.EfficiencyPct = optional(&c.PercentChange)
		}
		rows[i] = row
	}
	return rows
}

// OutputManager writes run results into an output directory.
type OutputManager struct {
	dir string
}

// NewOutputManager creates the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &OutputManager{dir: dir}, nil
}

// WriteConfig saves the effective configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteReport writes trips.csv, agents.csv, normalized.csv, trend_bins.csv
// and report.json.
func (om *OutputManager) WriteReport(r *Report) error {
	if om == nil {
		return nil
	}

	if err := om.writeCSV("trips.csv", r.TripRows()); err != nil {
		return err
	}
	if err := om.writeCSV("agents.csv", r.AgentRows()); err != nil {
		return err
	}
	if err := om.writeCSV("normalized.csv", r.Normalized); err != nil {
		return err
	}
	if err := om.writeCSV("trend_bins.csv", r.TrendBins); err != nil {
		return err
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	if err := os.WriteFile(filepath.Join(om.dir, "report.json"), data, 0644); err != nil {
		return fmt.Errorf("writing report.json: %w", err)
	}
	return nil
}

// writeCSV writes records with a header. Empty slices produce a header-only file.
func (om *OutputManager) writeCSV(name string, records any) error {
	f, err := os.Create(filepath.Join(om.dir, name))
	if err != nil {
		return fmt.Errorf("creating %s: %w", name, err)
	}
	defer f.Close()

	if err := gocsv.Marshal(records, f); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return f.Close()
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}
