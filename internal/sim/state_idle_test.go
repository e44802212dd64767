package sim

import "testing"

func TestIdle_IncomingFireWakesTheScan(t *testing.T) {
	// A lone idler takes fire from a shooter it cannot see. With no enemy
	// in view and no cover anywhere, the wake-up runs the whole chain:
	// scramble for cover, give up, fight from right here.
	ts := NewTestSim(
		WithMapSize(16, 10),
		WithRedAgent(TileCoord{8, 5}.Center().X, TileCoord{8, 5}.Center().Y),
	)
	red := ts.Agent(0)
	red.Threats.RegisterIncomingFire(Vec2{1, 0}, 12)

	ts.RunTicks(60)

	tick, ok := transitionAt(ts, "R0", "idle → seek_cover")
	if !ok {
		t.Fatal("expected incoming fire to break the idle stand")
	}
	if tick > 3 {
		t.Fatalf("woke at tick %d, want the first scan", tick)
	}
	if got := ts.SimLog.CountCategory("cover", "give_up"); got == 0 {
		t.Fatal("expected the bare map to force fighting in the open")
	}
	if red.StateKind() == StateIdle {
		t.Fatal("threat is still live, the idle stand must not resume")
	}
	if red.Tile() != (TileCoord{8, 5}) {
		t.Fatalf("nowhere to go on a bare map, yet the agent moved to %v", red.Tile())
	}
}

func TestReady_QuietWatchSettlesToIdle(t *testing.T) {
	// Ready is a hold, not a home. With zero threat and nothing on the
	// scans, the calm timer should hand the agent back to Idle.
	ts := NewTestSim(
		WithMapSize(16, 10),
		WithRedAgent(TileCoord{8, 5}.Center().X, TileCoord{8, 5}.Center().Y),
	)
	red := ts.Agent(0)
	red.ChangeState(ts.World, NewReadyState())

	ts.RunTicks(250)

	tick, ok := transitionAt(ts, "R0", "ready → idle")
	if !ok {
		t.Fatal("expected the quiet watch to stand down")
	}
	if tick < 236 || tick > 245 {
		t.Fatalf("stood down at tick %d, want four quiet seconds", tick)
	}
	if red.StateKind() != StateIdle {
		t.Fatalf("expected Idle at the end of the stand-down, got %s", red.StateKind())
	}
}
