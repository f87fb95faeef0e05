package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Trips.PickupPolicy != PolicyFIFO {
		t.Errorf("pickup_policy = %q, want %q", cfg.Trips.PickupPolicy, PolicyFIFO)
	}
	if cfg.Trips.SnapDistance != 10 {
		t.Errorf("snap_distance = %v, want 10", cfg.Trips.SnapDistance)
	}
	if cfg.Metrics.ConsistencyEpsilon != 0.001 {
		t.Errorf("consistency_epsilon = %v, want 0.001", cfg.Metrics.ConsistencyEpsilon)
	}
	if cfg.Trends.WindowFraction != 0.1 {
		t.Errorf("window_fraction = %v, want 0.1", cfg.Trends.WindowFraction)
	}
	if cfg.Selection.Representatives != 5 {
		t.Errorf("representatives = %d, want 5", cfg.Selection.Representatives)
	}
	if cfg.Derived.Workers < 1 {
		t.Errorf("derived workers = %d, want >= 1", cfg.Derived.Workers)
	}
	if cfg.Overview.MaxSampleSpeed != 1000 || cfg.Overview.StateBins != 5 || cfg.Overview.ReturnRatio != 0.3 {
		t.Errorf("overview = %+v, want 1000/5/0.3", cfg.Overview)
	}
	if cfg.Derived.GridCols != 32 || cfg.Derived.GridRows != 24 {
		t.Errorf("grid = %dx%d, want 32x24", cfg.Derived.GridCols, cfg.Derived.GridRows)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	overlay := "trips:\n  pickup_policy: overwrite\ntrends:\n  window_fraction: 0.25\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Trips.PickupPolicy != PolicyOverwrite {
		t.Errorf("pickup_policy = %q, want overwrite", cfg.Trips.PickupPolicy)
	}
	if cfg.Trends.WindowFraction != 0.25 {
		t.Errorf("window_fraction = %v, want 0.25", cfg.Trends.WindowFraction)
	}
	// Fields absent from the overlay keep their defaults
	if cfg.Trips.SnapDistance != 10 {
		t.Errorf("snap_distance = %v, want default 10", cfg.Trips.SnapDistance)
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(path, []byte("trips:\n  pickup_policy: lifo\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown pickup policy")
	}
}

func TestValidateOverview(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*Config)
	}{
		{"zero speed limit", func(c *Config) { c.Overview.MaxSampleSpeed = 0 }},
		{"no state bins", func(c *Config) { c.Overview.StateBins = 0 }},
		{"ratio above one", func(c *Config) { c.Overview.ReturnRatio = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mod(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Selection.Representatives = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Selection.Representatives != 7 {
		t.Errorf("representatives = %d, want 7", loaded.Selection.Representatives)
	}
}
