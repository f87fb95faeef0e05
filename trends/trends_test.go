package trends

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/forage/stats"
	"github.com/pthm-cable/forage/trips"
)

const sec = int64(1e9)

// trip builds a rated trip picked up at pickup seconds.
func trip(agent int, pickup, dur, dist float64) trips.Trip {
	t := trips.Trip{
		AgentID:     agent,
		PickupTime:  int64(pickup * 1e9),
		DropTime:    int64((pickup + dur) * 1e9),
		DurationSec: dur,
		Distance:    dist,
	}
	return t.WithMetrics()
}

func TestSplitPartitionsEveryTrip(t *testing.T) {
	ts := []trips.Trip{
		trip(1, 0, 1, 10),
		trip(1, 3, 1, 10),
		trip(1, 5, 1, 10),
		trip(1, 6, 1, 10),
		trip(1, 10, 1, 10),
	}
	first, second, mid := Split(ts)
	if mid != 5*sec {
		t.Errorf("mid = %d, want %d", mid, 5*sec)
	}
	if len(first)+len(second) != len(ts) {
		t.Fatalf("halves hold %d trips, want %d", len(first)+len(second), len(ts))
	}
	for _, tr := range first {
		if tr.PickupTime > mid {
			t.Errorf("first half holds trip at %d past mid", tr.PickupTime)
		}
	}
	for _, tr := range second {
		if tr.PickupTime <= mid {
			t.Errorf("second half holds trip at %d before mid", tr.PickupTime)
		}
	}
	if len(first) != 3 {
		t.Errorf("first half = %d trips, want 3 (boundary trip goes first)", len(first))
	}
}

func TestCompareHalves(t *testing.T) {
	ts := []trips.Trip{
		trip(1, 0, 2, 10), // 5 u/s
		trip(1, 2, 2, 10), // 5 u/s
		trip(1, 8, 1, 10), // 10 u/s
		trip(1, 10, 1, 10),
	}
	h := CompareHalves(ts)
	if h.Status != stats.StatusOK {
		t.Fatalf("status = %v, want ok", h.Status)
	}
	if h.Velocity.First != 5 || h.Velocity.Second != 10 {
		t.Errorf("velocity halves = %v/%v, want 5/10", h.Velocity.First, h.Velocity.Second)
	}
	if math.Abs(h.Velocity.PercentChange-100) > 1e-9 {
		t.Errorf("velocity change = %v, want 100", h.Velocity.PercentChange)
	}
}

func TestCompareHalvesInsufficient(t *testing.T) {
	tests := []struct {
		name string
		ts   []trips.Trip
		want stats.Status
	}{
		{"no trips", nil, stats.StatusNoData},
		{"single trip", []trips.Trip{trip(1, 0, 1, 10)}, stats.StatusInsufficientData},
		{"same pickup time", []trips.Trip{trip(1, 4, 1, 10), trip(2, 4, 2, 10)}, stats.StatusInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CompareHalves(tt.ts)
			if h.Status != tt.want {
				t.Errorf("status = %v, want %v", h.Status, tt.want)
			}
			if h.Velocity.PercentChange != 0 {
				t.Errorf("percent change = %v, want none", h.Velocity.PercentChange)
			}
		})
	}
}

func TestCompareHalvesZeroFirstVelocity(t *testing.T) {
	ts := []trips.Trip{trip(1, 0, 1, 0), trip(1, 10, 1, 10)}
	h := CompareHalves(ts)
	if h.Velocity.Status != stats.StatusInsufficientData {
		t.Errorf("velocity status = %v, want insufficient_data", h.Velocity.Status)
	}
	if h.LogEfficiency.Status != stats.StatusInsufficientData {
		t.Errorf("log efficiency status = %v, want insufficient_data", h.LogEfficiency.Status)
	}
}

func TestPoolSkipsTripsWithoutRate(t *testing.T) {
	byAgent := [][]trips.Trip{
		{trip(1, 5, 1, 10), trips.Trip{AgentID: 1, PickupTime: 6 * sec, DropTime: 6 * sec}.WithMetrics()},
		{trip(2, 1, 1, 20)},
	}
	pts := Pool(byAgent)
	if len(pts) != 2 {
		t.Fatalf("pooled %d points, want 2", len(pts))
	}
	if pts[0].AgentID != 2 || pts[1].AgentID != 1 {
		t.Errorf("pool order = %d,%d, want 2,1", pts[0].AgentID, pts[1].AgentID)
	}
}

func TestUnplacedTripsUseInverseDuration(t *testing.T) {
	unplaced := func(pickup, dur float64) trips.Trip {
		return trips.Trip{
			AgentID:     3,
			PickupTime:  int64(pickup * 1e9),
			DropTime:    int64((pickup + dur) * 1e9),
			DurationSec: dur,
			Unplaced:    true,
		}.WithMetrics()
	}
	ts := []trips.Trip{unplaced(0, 4), unplaced(10, 2)}

	pts := Pool([][]trips.Trip{ts})
	if len(pts) != 2 || pts[0].Speed != 0.25 || pts[1].Speed != 0.5 {
		t.Fatalf("pooled = %+v, want speeds 0.25, 0.5", pts)
	}

	h := CompareHalves(ts)
	if h.Status != stats.StatusOK || h.Speed.PercentChange != 100 {
		t.Errorf("halves = %+v, want speed +100%%", h)
	}
	if h.Velocity.Status != stats.StatusInsufficientData {
		t.Errorf("velocity = %+v, want insufficient_data", h.Velocity)
	}
	if len(MovingAverages([][]trips.Trip{ts}, 5)) != 0 {
		t.Error("unplaced trips have no velocity to average")
	}
}

func TestNormalizeUniformSpeedIsNeutral(t *testing.T) {
	var pts []SpeedPoint
	for i := 0; i < 20; i++ {
		pts = append(pts, SpeedPoint{AgentID: i % 3, Timestamp: int64(i) * sec, Speed: 7})
	}
	for _, f := range []func([]SpeedPoint, float64) []SpeedPoint{Normalize, NormalizeSliding} {
		for _, p := range f(pts, 0.1) {
			if p.Normalized != 1 {
				t.Fatalf("normalized = %v at %d, want 1", p.Normalized, p.Timestamp)
			}
		}
	}
}

func TestNormalizeZeroReference(t *testing.T) {
	pts := []SpeedPoint{{Timestamp: 0}, {Timestamp: sec}}
	for _, p := range NormalizeSliding(pts, 0.5) {
		if p.Normalized != 1 {
			t.Errorf("normalized = %v, want 1 for zero reference", p.Normalized)
		}
	}
}

func TestNormalizeSlidingMatchesFullScan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iter := 0; iter < 50; iter++ {
		n := 1 + rng.Intn(200)
		pts := make([]SpeedPoint, n)
		var ts int64
		for i := range pts {
			// Frequent ties exercise the window edges
			ts += int64(rng.Intn(4)) * sec / 4
			pts[i] = SpeedPoint{AgentID: rng.Intn(5), Timestamp: ts, Speed: rng.Float64() * 50}
		}
		fraction := []float64{0, 0.05, 0.1, 0.5, 1}[rng.Intn(5)]

		want := Normalize(pts, fraction)
		got := NormalizeSliding(pts, fraction)
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("iter %d point %d: sliding %+v, full scan %+v", iter, i, got[i], want[i])
			}
		}
	}
}

func TestRollingMean(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		window int
		want   []float64
	}{
		{"window one", []float64{1, 2, 3}, 1, []float64{1, 2, 3}},
		{"odd window", []float64{1, 2, 3, 4}, 3, []float64{1.5, 2, 3, 3.5}},
		{"even window", []float64{2, 4, 6, 8}, 2, []float64{2, 3, 5, 7}},
		{"window exceeds data", []float64{1, 3}, 50, []float64{2, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RollingMean(tt.values, tt.window)
			for i := range tt.want {
				if math.Abs(got[i]-tt.want[i]) > 1e-12 {
					t.Errorf("got %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestMovingAverages(t *testing.T) {
	byAgent := [][]trips.Trip{
		{trip(1, 0, 1, 10), trip(1, 10, 1, 30)},
		{trip(2, 5, 1, 20)},
	}
	pts := MovingAverages(byAgent, 3)
	if len(pts) != 3 {
		t.Fatalf("got %d points, want 3", len(pts))
	}
	if pts[0].TimePercent != 0 || pts[1].TimePercent != 50 || pts[2].TimePercent != 100 {
		t.Errorf("time percents = %v,%v,%v", pts[0].TimePercent, pts[1].TimePercent, pts[2].TimePercent)
	}
	if pts[1].AgentID != 2 {
		t.Errorf("middle point agent = %d, want 2", pts[1].AgentID)
	}
	if pts[1].VelocityMA != 20 {
		t.Errorf("middle velocity MA = %v, want 20", pts[1].VelocityMA)
	}
}

func TestAgentTrendBins(t *testing.T) {
	byAgent := [][]trips.Trip{
		{trip(1, 10, 1, 10), trip(1, 20, 1, 10), trip(1, 100, 1, 10)},
		{trip(2, 0, 1, 99)}, // too few trips to contribute, still sets the span
	}
	bins := AgentTrendBins(byAgent, 50, 3, 10)
	if len(bins) == 0 {
		t.Fatal("expected bins")
	}
	if bins[0].StartPercent != 10 {
		t.Errorf("first bin starts at %v, want 10", bins[0].StartPercent)
	}
	for _, b := range bins {
		if math.Abs(b.Velocity-10) > 1e-9 {
			t.Errorf("bin %v velocity = %v, want 10", b.StartPercent, b.Velocity)
		}
	}
	if bins[0].Interpolated || bins[1].Interpolated {
		t.Error("populated bins must not be marked interpolated")
	}
	if !bins[2].Interpolated || bins[2].Samples != 0 {
		t.Error("gap between populated bins must be interpolated")
	}
	if last := bins[len(bins)-1]; last.Interpolated || last.StartPercent != 90 {
		t.Errorf("last bin = %+v, want populated bin at 90", last)
	}
}
