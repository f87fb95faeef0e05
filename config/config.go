// Package config provides configuration loading and access for the analyzer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Pickup matching policies.
const (
	PolicyFIFO      = "fifo"
	PolicyOverwrite = "overwrite"
)

// Config holds all analysis configuration parameters.
type Config struct {
	Trips     TripsConfig     `yaml:"trips"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Trends    TrendsConfig    `yaml:"trends"`
	Selection SelectionConfig `yaml:"selection"`
	Behavior  BehaviorConfig  `yaml:"behavior"`
	Overview  OverviewConfig  `yaml:"overview"`
	Analysis  AnalysisConfig  `yaml:"analysis"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// TripsConfig holds trip extraction and path reconstruction parameters.
type TripsConfig struct {
	PickupPolicy string  `yaml:"pickup_policy"` // fifo or overwrite
	SnapDistance float64 `yaml:"snap_distance"` // Endpoint gap (world units) above which pickup/drop is added to the polyline
}

// MetricsConfig holds per-trip and per-agent metric parameters.
type MetricsConfig struct {
	ConsistencyEpsilon float64 `yaml:"consistency_epsilon"` // Added to CV before inversion
}

// TrendsConfig holds temporal trend parameters.
type TrendsConfig struct {
	WindowFraction      float64 `yaml:"window_fraction"`       // Half-width of the normalization window as a fraction of the run span
	MovingAverageWindow int     `yaml:"moving_average_window"` // Trips per centered rolling window
	BinPercent          float64 `yaml:"bin_percent"`           // Width of per-agent trend bins, in percent of run progress
	MinAgentTrips       int     `yaml:"min_agent_trips"`       // Agents with fewer trips are left out of trend bins
}

// SelectionConfig holds representative-agent selection parameters.
type SelectionConfig struct {
	Representatives int `yaml:"representatives"`
}

// BehaviorConfig holds colony behavior analysis parameters.
type BehaviorConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MapWidth      float64 `yaml:"map_width"`
	MapHeight     float64 `yaml:"map_height"`
	GridSize      float64 `yaml:"grid_size"`      // Heat map cell size
	TrailDistance float64 `yaml:"trail_distance"` // Radius within which a position counts as an existing trail
	TimeWindowSec float64 `yaml:"time_window"`    // Bin width in seconds
}

// OverviewConfig holds run overview parameters.
type OverviewConfig struct {
	MaxSampleSpeed float64 `yaml:"max_sample_speed"` // Speeds between consecutive positions at or above this are dropped as outliers
	StateBins      int     `yaml:"state_bins"`       // Equal-width time bins for the SEARCHING/RETURNING evolution
	ReturnRatio    float64 `yaml:"return_ratio"`     // RETURNING share a bin must exceed to count as stabilized
}

// AnalysisConfig holds pipeline execution parameters.
type AnalysisConfig struct {
	Workers int `yaml:"workers"` // 0 = GOMAXPROCS
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Workers  int   // Effective worker count
	GridCols int   // Behavior.MapWidth / GridSize
	GridRows int   // Behavior.MapHeight / GridSize
	WindowNs int64 // Behavior.TimeWindowSec in nanoseconds
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns the embedded defaults. Panics if they do not parse.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ComputeDerived()

	return cfg, nil
}

// Validate rejects values the analysis cannot run with.
func (c *Config) Validate() error {
	switch c.Trips.PickupPolicy {
	case PolicyFIFO, PolicyOverwrite:
	default:
		return fmt.Errorf("config: trips.pickup_policy must be %q or %q, got %q",
			PolicyFIFO, PolicyOverwrite, c.Trips.PickupPolicy)
	}
	if c.Trips.SnapDistance < 0 {
		return fmt.Errorf("config: trips.snap_distance must be >= 0, got %v", c.Trips.SnapDistance)
	}
	if c.Metrics.ConsistencyEpsilon <= 0 {
		return fmt.Errorf("config: metrics.consistency_epsilon must be > 0, got %v", c.Metrics.ConsistencyEpsilon)
	}
	if c.Trends.WindowFraction < 0 {
		return fmt.Errorf("config: trends.window_fraction must be >= 0, got %v", c.Trends.WindowFraction)
	}
	if c.Trends.MovingAverageWindow < 1 {
		return fmt.Errorf("config: trends.moving_average_window must be >= 1, got %d", c.Trends.MovingAverageWindow)
	}
	if c.Trends.BinPercent <= 0 || c.Trends.BinPercent > 100 {
		return fmt.Errorf("config: trends.bin_percent must be in (0, 100], got %v", c.Trends.BinPercent)
	}
	if c.Selection.Representatives < 0 {
		return fmt.Errorf("config: selection.representatives must be >= 0, got %d", c.Selection.Representatives)
	}
	if c.Overview.MaxSampleSpeed <= 0 || c.Overview.StateBins < 1 {
		return fmt.Errorf("config: overview max_sample_speed must be > 0 and state_bins >= 1")
	}
	if c.Overview.ReturnRatio < 0 || c.Overview.ReturnRatio > 1 {
		return fmt.Errorf("config: overview.return_ratio must be in [0, 1], got %v", c.Overview.ReturnRatio)
	}
	if c.Behavior.Enabled {
		if c.Behavior.GridSize <= 0 || c.Behavior.TrailDistance <= 0 || c.Behavior.TimeWindowSec <= 0 {
			return fmt.Errorf("config: behavior grid_size, trail_distance and time_window must be > 0")
		}
		if c.Behavior.MapWidth <= 0 || c.Behavior.MapHeight <= 0 {
			return fmt.Errorf("config: behavior map dimensions must be > 0")
		}
	}
	return nil
}

// ComputeDerived calculates values derived from loaded config.
// Call it again after changing fields programmatically.
func (c *Config) ComputeDerived() {
	c.Derived.Workers = c.Analysis.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.GOMAXPROCS(0)
	}
	if c.Behavior.GridSize > 0 {
		c.Derived.GridCols = int(c.Behavior.MapWidth / c.Behavior.GridSize)
		c.Derived.GridRows = int(c.Behavior.MapHeight / c.Behavior.GridSize)
	}
	c.Derived.WindowNs = int64(c.Behavior.TimeWindowSec * 1e9)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
