package sim

import "testing"

// flankField is the shared picture: the target sits behind full cover
// facing west, so the open bearings are north, south, and east, and the
// perpendicular-first scoring sends a western attacker around the top.
func flankField(redTile TileCoord) *TestSim {
	ts := NewTestSim(
		WithMapSize(24, 16),
		WithObstacle(11, 8, CoverFull),
		WithCustomAgent(TeamRed, redTile.Center().X, redTile.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{12, 8}.Center().X, TileCoord{12, 8}.Center().Y, DefaultStats(), inertGun()),
	)
	// The target cowers tucked for the whole run.
	ts.Agent(1).Threats.RegisterIncomingFire(Vec2{-1, 0}, 1000)
	return ts
}

func TestFlank_ThreatEnRouteAbortsToOverwatch(t *testing.T) {
	ts := flankField(TileCoord{4, 8})
	red, blue := ts.Agent(0), ts.Agent(1)
	red.ChangeState(ts.World, NewFlankState(blue.ID))

	ts.RunTicks(60)
	// Heavy enough to break off the run, not enough to pin.
	red.Threats.RegisterIncomingFire(Vec2{1, 0}, 28)
	ts.RunTicks(60)

	if got := ts.SimLog.CountCategory("move", "flank"); got != 1 {
		t.Fatalf("expected one committed flank move, got %d", got)
	}
	if got := ts.SimLog.CountCategory("move", "flank_abort"); got != 1 {
		t.Fatalf("expected the en-route threat to abort the flank, got %d aborts", got)
	}
	tick, ok := transitionAt(ts, "R0", "flank → overwatch")
	if !ok {
		t.Fatal("expected the aborted flank to fall back to overwatch")
	}
	if tick < 61 || tick > 115 {
		t.Fatalf("fell back at tick %d, want shortly after the threat spike", tick)
	}
	if _, ok := transitionAt(ts, "R0", "flank → pinned"); ok {
		t.Fatal("threat below the pin threshold must not pin")
	}
	if red.StateKind() != StateOverwatch {
		t.Fatalf("expected the watch to hold, got %s", red.StateKind())
	}
	if id, ok := ts.Tiles.OccupantOf(red.Tile()); !ok || id != red.ID {
		t.Fatal("expected the abort to claim the tile it stopped on")
	}
}

func TestFlank_ArrivalConfirmsLineAndEngages(t *testing.T) {
	ts := flankField(TileCoord{8, 8})
	red, blue := ts.Agent(0), ts.Agent(1)
	red.ChangeState(ts.World, NewFlankState(blue.ID))

	ts.RunTicks(280)

	if got := ts.SimLog.CountCategory("move", "flank_done"); got != 1 {
		t.Fatalf("expected the arrival to confirm its fire line, got %d", got)
	}
	tick, ok := transitionAt(ts, "R0", "flank → combat")
	if !ok {
		t.Fatal("expected the confirmed flank to commit to combat")
	}
	if tick < 130 || tick > 230 {
		t.Fatalf("committed at tick %d, want a walk around the cover", tick)
	}
	if red.Tile() != (TileCoord{12, 6}) {
		t.Fatalf("expected the perpendicular tile north of the target, got %v", red.Tile())
	}
	if id, ok := ts.Tiles.OccupantOf(TileCoord{12, 6}); !ok || id != red.ID {
		t.Fatal("expected the flank tile claimed on arrival")
	}
	if got := ts.SimLog.CountCategory("shot", "hit"); got == 0 {
		t.Fatal("expected the new angle to land fire past the cover")
	}
	if !blue.Alive() {
		t.Fatal("a few seconds of aimed fire should wound, not finish")
	}
	if red.StateKind() != StateCombat {
		t.Fatalf("expected the engagement to hold, got %s", red.StateKind())
	}
}
