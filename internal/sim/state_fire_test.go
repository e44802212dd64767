package sim

import "testing"

// transitionAt finds the first logged transition with the given value for
// the labeled agent.
func transitionAt(ts *TestSim, label, value string) (int, bool) {
	for _, e := range ts.SimLog.Entries() {
		if e.Category == "state" && e.Key == "transition" && e.Agent == label && e.Value == value {
			return e.Tick, true
		}
	}
	return -1, false
}

func TestSuppress_ExposedTargetGraduatesToAimedFire(t *testing.T) {
	// The target stands fully presented in the open. Suppression is for
	// keeping heads down; a head that stays up past the grace window gets
	// aimed fire instead.
	ts := NewTestSim(
		WithMapSize(36, 12),
		WithCustomAgent(TeamRed, TileCoord{5, 5}.Center().X, TileCoord{5, 5}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{30, 5}.Center().X, TileCoord{30, 5}.Center().Y, DefaultStats(), inertGun()),
	)
	red, blue := ts.Agent(0), ts.Agent(1)

	// Park the target watching an empty corner so nothing moves it; on
	// bare ground overwatch never tucks, so it stays presented.
	blue.ChangeState(ts.World, NewOverwatchState(NoAgent, TileCoord{30, 1}.Center()))
	red.ChangeState(ts.World, NewSuppressState(blue.ID))

	ts.RunTicks(40)

	tick, ok := transitionAt(ts, "R0", "suppress → combat")
	if !ok {
		t.Fatal("expected suppression to hand off to aimed combat")
	}
	if tick < 29 || tick > 36 {
		t.Fatalf("handoff at tick %d, want roughly the half-second grace window", tick)
	}
	if got := ts.SimLog.CountCategory("shot", "hit"); got != 2 {
		t.Fatalf("expected 2 suppressing hits before the handoff, got %d", got)
	}
	if blue.Health != 64 {
		t.Fatalf("two rifle hits should leave the target at 64, got %.0f", blue.Health)
	}
	if ts.SimLog.HasEntry("shot", "suppress_blocked", "") {
		t.Fatal("open ground, the fire line was never blocked")
	}
	if ts.SimLog.HasEntry("shot", "suppress_abort", "") {
		t.Fatal("nothing shot back, no reason to abort")
	}
}

func TestSuppress_HeavyIncomingFireBreaksOff(t *testing.T) {
	ts := NewTestSim(
		WithMapSize(36, 12),
		WithCustomAgent(TeamRed, TileCoord{5, 5}.Center().X, TileCoord{5, 5}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{30, 5}.Center().X, TileCoord{30, 5}.Center().Y, DefaultStats(), inertGun()),
	)
	red, blue := ts.Agent(0), ts.Agent(1)
	blue.ChangeState(ts.World, NewOverwatchState(NoAgent, TileCoord{30, 1}.Center()))
	red.ChangeState(ts.World, NewSuppressState(blue.ID))

	ts.RunTicks(10)

	// 33 sits between the bravery-5 abort line at 30 and the pin line at
	// 35: heavy enough to break off the fire mission, not enough to pin.
	red.Threats.RegisterIncomingFire(Vec2{-1, 0}, 33)
	ts.RunTicks(3)

	if !ts.SimLog.HasEntry("shot", "suppress_abort", "") {
		t.Fatal("expected the fire mission abandoned under return fire")
	}
	if _, ok := transitionAt(ts, "R0", "suppress → seek_cover"); !ok {
		t.Fatal("expected the abort to run for cover")
	}
	if ts.SimLog.HasEntry("state", "transition", "suppress → pinned") {
		t.Fatal("threat below the pin line must not pin")
	}
	if !blue.Alive() {
		t.Fatal("a few seconds of wild fire should not have killed the target")
	}
}

func TestSuppress_RunsOutTheClockIntoCombat(t *testing.T) {
	// Target pinned behind full cover: every round slaps the wall, the
	// squad's claim on the target holds, and the hard time cap finally
	// resolves the state into combat.
	ts := NewTestSim(
		WithMapSize(30, 12),
		WithObstacle(11, 5, CoverFull),
		WithCustomAgent(TeamRed, TileCoord{5, 5}.Center().X, TileCoord{5, 5}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{12, 5}.Center().X, TileCoord{12, 5}.Center().Y, DefaultStats(), inertGun()),
		WithRedSquad(0),
	)
	red, blue := ts.Agent(0), ts.Agent(1)
	blue.Threats.RegisterIncomingFire(Vec2{1, 0}, 60)
	red.ChangeState(ts.World, NewSuppressState(blue.ID))

	ts.RunTicks(150)

	if red.StateKind() != StateSuppress {
		t.Fatalf("mid-mission the suppressor should still be firing, got %s", red.StateKind())
	}
	if !red.Squad.IsTargetBeingSuppressed(blue.ID, ts.World.Now()) {
		t.Fatal("expected the squad to know this target is claimed")
	}

	ts.RunTicks(165)

	tick, ok := transitionAt(ts, "R0", "suppress → combat")
	if !ok {
		t.Fatal("expected the time cap to force combat")
	}
	if tick < 295 || tick > 315 {
		t.Fatalf("cap fired at tick %d, want about five seconds in", tick)
	}
	if got := ts.SimLog.CountCategory("shot", "miss"); got < 13 || got > 17 {
		t.Fatalf("expected a steady stream of wall hits, got %d", got)
	}
	if got := ts.SimLog.CountCategory("shot", "hit"); got != 0 {
		t.Fatalf("full cover, nothing should have landed, got %d hits", got)
	}
	if blue.Health != 100 {
		t.Fatalf("suppression is not supposed to wound, target at %.0f", blue.Health)
	}
	if blue.StateKind() != StatePinned {
		t.Fatalf("a burst a third of a second should keep the target pinned, got %s", blue.StateKind())
	}
}

func TestOverwatch_PeekFadeDisarmsTheSnap(t *testing.T) {
	ts := NewTestSim(
		WithMapSize(36, 12),
		WithCustomAgent(TeamRed, TileCoord{5, 5}.Center().X, TileCoord{5, 5}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{30, 5}.Center().X, TileCoord{30, 5}.Center().Y, DefaultStats(), inertGun()),
	)
	red, blue := ts.Agent(0), ts.Agent(1)
	blue.setExposed(ts.World, false)
	red.ChangeState(ts.World, NewOverwatchState(blue.ID, blue.Pos))

	ts.RunTicks(5)

	// Show for three ticks, then drop again before the reflex delay
	// elapses. The armed reaction must stand down without a shot.
	blue.setExposed(ts.World, true)
	ts.RunTicks(3)
	blue.setExposed(ts.World, false)
	ts.RunTicks(40)

	if got := ts.SimLog.CountCategory("shot", "hit") + ts.SimLog.CountCategory("shot", "miss"); got != 0 {
		t.Fatalf("the peek faded in time, expected no shots, got %d", got)
	}
	if red.StateKind() != StateOverwatch {
		t.Fatalf("expected the watch to continue, got %s", red.StateKind())
	}
	if blue.Health != 100 {
		t.Fatalf("unhit target should be untouched, got %.0f", blue.Health)
	}
}

func TestOverwatch_StaleWatchRepositionsWhenSquadFights(t *testing.T) {
	// One squadmate trades fire while the watcher stares at a wall. Once
	// patience runs out the watcher steps sideways to a tile with an
	// actual firing line.
	ts := NewTestSim(
		WithMapSize(36, 16),
		WithObstacle(6, 5, CoverFull),
		WithRedAgent(TileCoord{5, 5}.Center().X, TileCoord{5, 5}.Center().Y),
		WithCustomAgent(TeamRed, TileCoord{26, 12}.Center().X, TileCoord{26, 12}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{30, 12}.Center().X, TileCoord{30, 12}.Center().Y, DefaultStats(), inertGun()),
		WithRedSquad(0, 1),
	)
	watcher, fighter, blue := ts.Agent(0), ts.Agent(1), ts.Agent(2)
	fighter.ChangeState(ts.World, NewCombatState(blue.ID, false))
	watcher.ChangeState(ts.World, NewOverwatchState(NoAgent, TileCoord{12, 5}.Center()))

	ts.RunTicks(195)

	tick, ok := transitionAt(ts, "R0", "overwatch → reposition")
	if !ok {
		t.Fatal("expected the passive watcher pushed toward a firing position")
	}
	if tick < 175 || tick > 190 {
		t.Fatalf("patience ran out at tick %d, want about three seconds", tick)
	}
	if _, ok := transitionAt(ts, "R0", "overwatch → combat"); ok {
		t.Fatal("the watcher had no line and no peek, it must not have fired")
	}
	if !blue.Alive() {
		t.Fatal("the lone fighter should not have finished the target this fast")
	}
}

func TestOverwatch_RescanAcquiresStandingEnemy(t *testing.T) {
	// Neither watcher is looking the right way, but the periodic rescan
	// picks up a presented enemy inside vision and snaps at it.
	ts := NewTestSim(
		WithMapSize(20, 12),
		WithCustomAgent(TeamRed, TileCoord{5, 5}.Center().X, TileCoord{5, 5}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{12, 5}.Center().X, TileCoord{12, 5}.Center().Y, DefaultStats(), inertGun()),
	)
	red, blue := ts.Agent(0), ts.Agent(1)
	red.ChangeState(ts.World, NewOverwatchState(NoAgent, TileCoord{5, 1}.Center()))
	blue.ChangeState(ts.World, NewOverwatchState(NoAgent, TileCoord{12, 1}.Center()))

	ts.RunTicks(70)

	tick, ok := transitionAt(ts, "R0", "overwatch → combat")
	if !ok {
		t.Fatal("expected the rescan to find the standing enemy and snap")
	}
	if tick < 45 || tick > 62 {
		t.Fatalf("snap at tick %d, want one rescan interval plus the reflex delay", tick)
	}
	if got := ts.SimLog.CountCategory("shot", "hit"); got != 1 {
		t.Fatalf("expected exactly the snap shot to land, got %d", got)
	}
	if blue.Health != 82 {
		t.Fatalf("one rifle hit should leave 82, got %.0f", blue.Health)
	}
	if _, ok := transitionAt(ts, "B0", "overwatch → combat"); !ok {
		t.Fatal("the other watcher saw the same thing; it should have committed too")
	}
}
