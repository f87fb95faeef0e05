package report

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/stats"
	"github.com/pthm-cable/forage/trends"
	"github.com/pthm-cable/forage/trips"
)

// agentWithDuration builds an agent whose single trip lasts dur seconds.
func agentWithDuration(id int, dur float64) AgentReport {
	t := trips.Trip{
		AgentID:     id,
		PickupTime:  0,
		DropTime:    int64(dur * 1e9),
		DurationSec: dur,
		Distance:    10,
	}.WithMetrics()
	return NewAgentReport(id, []trips.Trip{t}, 0.001)
}

func TestNewAgentReportNoData(t *testing.T) {
	a := NewAgentReport(7, nil, 0.001)
	if a.Status != stats.StatusNoData {
		t.Errorf("status = %v, want no_data", a.Status)
	}
	if a.MeanDuration != nil || a.Consistency != nil {
		t.Error("agent without trips must have no mean duration or consistency")
	}
	if a.Halves.Status != stats.StatusNoData {
		t.Errorf("halves status = %v, want no_data", a.Halves.Status)
	}
}

func TestPercentiles(t *testing.T) {
	tests := []struct {
		k    int
		want []float64
	}{
		{0, nil},
		{1, []float64{5}},
		{2, []float64{5, 95}},
		{3, []float64{5, 50, 95}},
		{5, []float64{10, 30, 50, 70, 90}},
	}
	for _, tt := range tests {
		got := Percentiles(tt.k)
		if len(got) != len(tt.want) {
			t.Fatalf("k=%d: got %v, want %v", tt.k, got, tt.want)
		}
		for i := range got {
			if math.Abs(got[i]-tt.want[i]) > 1e-9 {
				t.Errorf("k=%d: got %v, want %v", tt.k, got, tt.want)
				break
			}
		}
	}
}

func TestSelectRepresentatives(t *testing.T) {
	// Roster order differs from duration order
	var agents []AgentReport
	durations := []float64{9, 1, 5, 3, 7, 2, 8, 4, 6, 10, 11}
	for i, d := range durations {
		agents = append(agents, agentWithDuration(i, d))
	}
	agents = append(agents, NewAgentReport(99, nil, 0.001)) // not ranked

	reps := SelectRepresentatives(agents, 5)
	// n = 11, indexes round(p/100*10) = 1, 3, 5, 7, 9 -> durations 2, 4, 6, 8, 10
	wantDur := []float64{2, 4, 6, 8, 10}
	if len(reps) != len(wantDur) {
		t.Fatalf("got %d representatives, want %d", len(reps), len(wantDur))
	}
	for i, r := range reps {
		if r.MeanDuration != wantDur[i] {
			t.Errorf("rep %d duration = %v, want %v", i, r.MeanDuration, wantDur[i])
		}
		if r.Percentile != defaultPercentiles[i] {
			t.Errorf("rep %d percentile = %v, want %v", i, r.Percentile, defaultPercentiles[i])
		}
	}
}

func TestSelectRepresentativesBounds(t *testing.T) {
	for n := 1; n <= 12; n++ {
		var agents []AgentReport
		for i := 0; i < n; i++ {
			agents = append(agents, agentWithDuration(i, float64(i+1)))
		}
		for k := 1; k <= 7; k++ {
			reps := SelectRepresentatives(agents, k)
			if n <= k && len(reps) != n {
				t.Errorf("n=%d k=%d: got %d reps, want all %d", n, k, len(reps), n)
			}
			if len(reps) > k {
				t.Errorf("n=%d k=%d: got %d reps, more than requested", n, k, len(reps))
			}
			seen := map[int]bool{}
			for _, r := range reps {
				if r.AgentID < 0 || r.AgentID >= n {
					t.Errorf("n=%d k=%d: agent %d out of range", n, k, r.AgentID)
				}
				if seen[r.AgentID] {
					t.Errorf("n=%d k=%d: agent %d selected twice", n, k, r.AgentID)
				}
				seen[r.AgentID] = true
			}
		}
	}
}

func TestSelectSingleRepresentative(t *testing.T) {
	var agents []AgentReport
	for i := 0; i < 21; i++ {
		agents = append(agents, agentWithDuration(i, float64(21-i)))
	}
	// round(0.05 * 20) = 1: the second fastest agent
	reps := SelectRepresentatives(agents, 1)
	if len(reps) != 1 || reps[0].AgentID != 19 || reps[0].Percentile != 5 {
		t.Errorf("reps = %+v, want agent 19 at percentile 5", reps)
	}
}

func TestSelectRepresentativesStableTies(t *testing.T) {
	agents := []AgentReport{
		agentWithDuration(4, 2),
		agentWithDuration(2, 2),
		agentWithDuration(3, 1),
	}
	reps := SelectRepresentatives(agents, 3)
	got := []int{reps[0].AgentID, reps[1].AgentID, reps[2].AgentID}
	want := []int{3, 4, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBestWorst(t *testing.T) {
	best, worst := BestWorst([]AgentReport{NewAgentReport(1, nil, 0.001)})
	if best != nil || worst != nil {
		t.Error("expected no best/worst without trips")
	}

	best, worst = BestWorst([]AgentReport{
		agentWithDuration(1, 5),
		agentWithDuration(2, 1),
		agentWithDuration(3, 9),
	})
	if best.AgentID != 2 || worst.AgentID != 3 {
		t.Errorf("best/worst = %d/%d, want 2/3", best.AgentID, worst.AgentID)
	}
}

func TestAggregateSkipsUnmeasured(t *testing.T) {
	instant := trips.Trip{AgentID: 1, PickupTime: 5, DropTime: 5, Distance: 3}.WithMetrics()
	agents := []AgentReport{
		agentWithDuration(0, 2),
		NewAgentReport(1, []trips.Trip{instant}, 0.001),
		NewAgentReport(2, nil, 0.001),
	}
	g := Aggregate(agents, nil)

	if g.Duration.Count != 2 {
		t.Errorf("duration count = %d, want 2", g.Duration.Count)
	}
	if g.Velocity.Count != 1 || g.Velocity.Mean != 5 {
		t.Errorf("velocity = %+v, want one value of 5", g.Velocity)
	}
	if g.TripsPerAgent.Count != 3 {
		t.Errorf("trips per agent count = %d, want 3", g.TripsPerAgent.Count)
	}
	if g.Consistency.Status != stats.StatusInsufficientData {
		t.Errorf("consistency status = %v, want insufficient_data", g.Consistency.Status)
	}
	if g.NormalizedEfficiency.Status != stats.StatusInsufficientData {
		t.Errorf("normalized status = %v, want insufficient_data", g.NormalizedEfficiency.Status)
	}
}

func TestAttachNormalized(t *testing.T) {
	agents := []AgentReport{agentWithDuration(1, 2), NewAgentReport(2, nil, 0.001)}
	norm := []trends.SpeedPoint{{AgentID: 1, TripIndex: 0, Normalized: 1.25}}

	out := AttachNormalized(agents, norm)
	if got := out[0].Trips[0].NormalizedEfficiency; got == nil || *got != 1.25 {
		t.Errorf("normalized = %v, want 1.25", got)
	}
	if agents[0].Trips[0].NormalizedEfficiency != nil {
		t.Error("input agents must not be modified")
	}
}

func TestOutputManager(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir: got %v, %v; want disabled output", om, err)
	}
	if err := om.WriteReport(&Report{}); err != nil {
		t.Errorf("disabled output must be a no-op: %v", err)
	}

	dir := filepath.Join(t.TempDir(), "out")
	om, err = NewOutputManager(dir)
	if err != nil {
		t.Fatalf("NewOutputManager: %v", err)
	}

	agents := []AgentReport{agentWithDuration(1, 2), NewAgentReport(2, nil, 0.001)}
	r := &Report{Agents: agents, Global: Aggregate(agents, nil)}
	if err := om.WriteReport(r); err != nil {
		t.Fatalf("WriteReport: %v", err)
	}
	if err := om.WriteConfig(config.Default()); err != nil {
		t.Fatalf("WriteConfig: %v", err)
	}

	for _, name := range []string{"trips.csv", "agents.csv", "normalized.csv", "trend_bins.csv", "report.json", "config.yaml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(dir, "agents.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("agents.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "agent_id,status,trips") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[2], "2,no_data,0,,") {
		t.Errorf("no-data row = %q", lines[2])
	}

	var back Report
	raw, _ := os.ReadFile(filepath.Join(dir, "report.json"))
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("report.json: %v", err)
	}
	if len(back.Agents) != 2 || back.Agents[1].Status != stats.StatusNoData {
		t.Errorf("round-tripped agents = %+v", back.Agents)
	}
}
