package sim

import (
	"math"
	"testing"
)

func TestThreat_AccumulateAndTotal(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	tt.RegisterIncomingFire(Vec2{X: 1}, 6)
	tt.RegisterIncomingFire(Vec2{X: 1}, 6)
	if got := tt.TotalThreat(); got != 12 {
		t.Fatalf("expected total 12, got %f", got)
	}
}

func TestThreat_DecayRemovesFadedBuckets(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	tt.RegisterIncomingFire(Vec2{X: 1}, 6)
	// At 4/s decay a magnitude-6 bucket fades past the removal floor
	// within two seconds.
	for i := 0; i < 120; i++ {
		tt.Decay(1.0 / 60)
	}
	if got := tt.TotalThreat(); got != 0 {
		t.Fatalf("expected threat fully decayed, got %f", got)
	}
	if _, ok := tt.HighestThreatDirection(); ok {
		t.Fatal("no direction expected after full decay")
	}
}

func TestThreat_MergesAlignedSignals(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	tt.RegisterIncomingFire(Vec2{X: 1}, 10)
	// 20 degrees off axis: cos is ~0.94, above the merge cutoff.
	dir := Vec2{X: math.Cos(20 * math.Pi / 180), Y: math.Sin(20 * math.Pi / 180)}
	tt.RegisterIncomingFire(dir, 10)
	buckets := tt.ActiveThreats(0)
	if len(buckets) != 1 {
		t.Fatalf("aligned signals should merge into one bucket, got %d", len(buckets))
	}
	b := buckets[0]
	if b.Magnitude != 20 {
		t.Fatalf("merged magnitude should be 20, got %f", b.Magnitude)
	}
	// Equal weights steer the merged direction halfway between the two.
	if b.Dir.Dot(Vec2{X: 1}) >= 1-1e-9 {
		t.Fatal("merged direction should have steered off the original axis")
	}
	if b.Dir.Dot(dir) < 0.97 {
		t.Fatalf("merged direction should sit between the signals, dot %f", b.Dir.Dot(dir))
	}
}

func TestThreat_PerpendicularSignalsStaySeparate(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	tt.RegisterIncomingFire(Vec2{X: 1}, 8)
	tt.RegisterIncomingFire(Vec2{Y: 1}, 4)
	if got := len(tt.ActiveThreats(0)); got != 2 {
		t.Fatalf("expected two buckets, got %d", got)
	}
	dir, ok := tt.HighestThreatDirection()
	if !ok {
		t.Fatal("expected a highest direction")
	}
	if dir.Dot(Vec2{X: 1}) < 0.99 {
		t.Fatalf("strongest bucket should point east, got %v", dir)
	}
}

func TestThreat_UnderFireThreshold(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	tt.RegisterIncomingFire(Vec2{X: 1}, 4.9)
	if tt.IsUnderFire() {
		t.Fatal("threat below the threshold should not read as under fire")
	}
	tt.RegisterIncomingFire(Vec2{X: 1}, 0.2)
	if !tt.IsUnderFire() {
		t.Fatal("threat past the threshold should read as under fire")
	}
}

func TestThreat_SightingsUseTunableWeight(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	tt.RegisterVisibleEnemy(Vec2{X: 100, Y: 100}, Vec2{X: 200, Y: 100}, 1.0)
	if got := tt.TotalThreat(); got != tun.VisibleEnemyWeight {
		t.Fatalf("one sighting should add the per-scan weight, got %f", got)
	}
	dir, _ := tt.HighestThreatDirection()
	if dir.X < 0.99 || math.Abs(dir.Y) > 1e-9 {
		t.Fatalf("sighting to the east should yield an east bucket, got %v", dir)
	}
}

func TestThreat_ClearDropsEverything(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	tt.RegisterIncomingFire(Vec2{X: 1}, 30)
	tt.Clear()
	if tt.TotalThreat() != 0 || tt.IsUnderFire() {
		t.Fatal("clear should drop all buckets")
	}
}

func TestThreat_ZeroDirectionIgnored(t *testing.T) {
	tun := DefaultTunables()
	tt := NewThreatTracker(&tun)
	// Sighting at the observer's own position has no direction.
	tt.RegisterVisibleEnemy(Vec2{X: 50, Y: 50}, Vec2{X: 50, Y: 50}, 1.0)
	tt.RegisterIncomingFire(Vec2{}, 10)
	if tt.TotalThreat() != 0 {
		t.Fatal("zero-direction signals should be dropped")
	}
}
