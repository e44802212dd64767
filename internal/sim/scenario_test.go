package sim

import "testing"

// dumpLog prints the full SimLog to t.Log so it appears in `go test -v`
// output.
func dumpLog(t *testing.T, ts *TestSim) {
	t.Helper()
	entries := ts.SimLog.Entries()
	if len(entries) == 0 {
		t.Log("(no log entries)")
		return
	}
	for _, e := range entries {
		t.Log(e.String())
	}
}

// dumpReport prints the after-action summary block.
func dumpReport(t *testing.T, ts *TestSim) {
	t.Helper()
	t.Log(AfterActionReport(ts.World, 40))
}

// --- Scenario: Meeting Engagement ---

func TestScenario_MeetingEngagement(t *testing.T) {
	t.Log("=== TestScenario_MeetingEngagement ===")
	t.Log("--- Setup: 3v3 squads advancing past mid-map walls ---")

	ts := NewTestSim(
		WithMapSize(40, 24),
		WithSeed(11),
		WithWall(19, 8, 1, 4, CoverFull),
		WithWall(20, 13, 1, 3, CoverHalf),
		WithRedAgent(TileCoord{4, 10}.Center().X, TileCoord{4, 10}.Center().Y),
		WithRedAgent(TileCoord{4, 12}.Center().X, TileCoord{4, 12}.Center().Y),
		WithRedAgent(TileCoord{4, 14}.Center().X, TileCoord{4, 14}.Center().Y),
		WithBlueAgent(TileCoord{35, 10}.Center().X, TileCoord{35, 10}.Center().Y),
		WithBlueAgent(TileCoord{35, 12}.Center().X, TileCoord{35, 12}.Center().Y),
		WithBlueAgent(TileCoord{35, 14}.Center().X, TileCoord{35, 14}.Center().Y),
		WithRedSquad(0, 1, 2),
		WithBlueSquad(3, 4, 5),
	)

	// March both squads toward the walls; contact happens en route.
	for i, dest := range []TileCoord{{17, 10}, {17, 12}, {17, 14}} {
		ts.Agent(i).ChangeState(ts.World, NewMovingState(dest.Center()))
	}
	for i, dest := range []TileCoord{{22, 10}, {22, 12}, {22, 14}} {
		ts.Agent(3 + i).ChangeState(ts.World, NewMovingState(dest.Center()))
	}

	ts.RunSeconds(90)
	dumpLog(t, ts)
	dumpReport(t, ts)

	// Each squad marks first contact exactly once.
	if got := ts.SimLog.CountCategory("squad", "contact"); got != 2 {
		t.Errorf("expected 2 first-engagement entries, got %d", got)
	}
	shots := ts.SimLog.CountCategory("shot", "hit") + ts.SimLog.CountCategory("shot", "miss")
	if shots < 20 {
		t.Errorf("expected a real firefight, got %d shots", shots)
	}
	if ts.SimLog.CountCategory("shot", "hit") == 0 {
		t.Error("expected at least one round to land in 90s")
	}

	if n := ts.SimLog.CountCategory("cover", "found"); n > 0 {
		t.Logf("PASS: %d cover moves during the fight", n)
	}
	if n := ts.SimLog.CountCategory("threat", "pinned"); n > 0 {
		t.Logf("NOTE: %d pins under concentrated fire", n)
	}
	if n := ts.SimLog.CountCategory("state", "death"); n > 0 {
		t.Logf("PASS: %d casualties", n)
	} else {
		t.Log("NOTE: no casualties; both sides kept their heads down")
	}
	r := DetermineOutcome(ts.World)
	t.Logf("NOTE: outcome %s (%s)", r.Outcome, r.Description)
}

// --- Scenario: Flank Breaks Standoff ---

func TestScenario_FlankBreaksStandoff(t *testing.T) {
	t.Log("=== TestScenario_FlankBreaksStandoff ===")
	t.Log("--- Setup: dug-in blue behind half cover, lone red with a clean gun ---")

	ts := NewTestSim(
		WithMapSize(30, 20),
		WithSeed(5),
		WithObstacle(13, 10, CoverHalf),
		WithCustomAgent(TeamRed, TileCoord{8, 10}.Center().X, TileCoord{8, 10}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{14, 10}.Center().X, TileCoord{14, 10}.Center().Y, DefaultStats(), inertGun()),
	)
	red, blue := ts.Agent(0), ts.Agent(1)

	ts.RunTicks(1200)
	dumpLog(t, ts)
	dumpReport(t, ts)

	// Frontal fire slaps cover forever; doctrine has to order the flank.
	if !ts.SimLog.HasEntry("state", "stuck_choice", "flank") {
		t.Error("expected doctrine to pick a flank against the covered target")
	}
	if !ts.SimLog.HasEntry("move", "flank_done", "") {
		t.Error("expected the flank to arrive with a confirmed firing line")
	}
	if blue.Alive() {
		t.Errorf("expected the flank angle to finish blue, still at %.0f hp", blue.Health)
	}
	if !red.Alive() {
		t.Error("blue cannot shoot back; red must survive")
	}
	if r := DetermineOutcome(ts.World); r.Outcome != OutcomeRedVictory {
		t.Errorf("expected red victory, got %s (%s)", r.Outcome, r.Description)
	}
}

// --- Scenario: Suppression Pins The Defender ---

func TestScenario_SuppressionPinsDefender(t *testing.T) {
	t.Log("=== TestScenario_SuppressionPinsDefender ===")
	t.Log("--- Setup: three guns pour fire into full cover; nobody can be hit ---")

	ts := NewTestSim(
		WithMapSize(30, 20),
		WithSeed(3),
		WithObstacle(15, 10, CoverFull),
		WithRedAgent(TileCoord{6, 8}.Center().X, TileCoord{6, 8}.Center().Y),
		WithRedAgent(TileCoord{6, 10}.Center().X, TileCoord{6, 10}.Center().Y),
		WithRedAgent(TileCoord{6, 12}.Center().X, TileCoord{6, 12}.Center().Y),
		WithCustomAgent(TeamBlue, TileCoord{16, 10}.Center().X, TileCoord{16, 10}.Center().Y, DefaultStats(), inertGun()),
	)
	blue := ts.Agent(3)
	for i := 0; i < 3; i++ {
		ts.Agent(i).ChangeState(ts.World, NewSuppressState(blue.ID))
	}

	ts.RunSeconds(5)
	dumpLog(t, ts)
	dumpReport(t, ts)

	// Every line is stopped by the target's own cover: valid suppression,
	// zero lethality.
	if ts.SimLog.CountCategory("shot", "suppress_blocked") != 0 {
		t.Error("lines onto the target's cover must not abort suppression")
	}
	if n := ts.SimLog.CountCategory("shot", "miss"); n < 20 {
		t.Errorf("expected a sustained rate of fire, got %d rounds", n)
	}
	if ts.SimLog.CountCategory("shot", "hit") != 0 {
		t.Error("rounds into full cover must never land")
	}
	if blue.Health != 100 {
		t.Errorf("expected blue untouched, got %.0f hp", blue.Health)
	}
	if !ts.SimLog.HasEntry("threat", "pinned", "") {
		t.Error("expected the weight of fire to pin blue")
	}
	if blue.StateKind() != StatePinned {
		t.Errorf("expected blue pinned at the end, got %s", blue.StateKind())
	}
	if blue.Exposed() {
		t.Error("expected blue heads-down under the fire")
	}
	for i := 0; i < 3; i++ {
		if got := ts.Agent(i).StateKind(); got != StateSuppress {
			t.Errorf("red %d: expected suppression still running, got %s", i, got)
		}
	}
}

// --- Scenario: Overwatch Snaps A Distant Peeker ---

func TestScenario_OverwatchSnapsDistantPeeker(t *testing.T) {
	t.Log("=== TestScenario_OverwatchSnapsDistantPeeker ===")
	t.Log("--- Setup: red watches a doorway 25 tiles out, past scan range ---")

	ts := NewTestSim(
		WithMapSize(40, 24),
		WithSeed(4),
		WithCustomAgent(TeamRed, TileCoord{5, 5}.Center().X, TileCoord{5, 5}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{30, 5}.Center().X, TileCoord{30, 5}.Center().Y, DefaultStats(), inertGun()),
	)
	red, blue := ts.Agent(0), ts.Agent(1)

	blue.setExposed(ts.World, false)
	red.ChangeState(ts.World, NewOverwatchState(blue.ID, blue.Pos))
	ts.RunTicks(5)

	// The peek event, not a scan, is what arms the snap: the target sits
	// well outside vision range.
	blue.setExposed(ts.World, true)
	peekTick := ts.Tick()
	ts.RunTicks(595)
	dumpLog(t, ts)
	dumpReport(t, ts)

	hits := ts.SimLog.Filter("shot", "hit")
	if len(hits) == 0 {
		t.Fatal("expected the snap shot to land")
	}
	snapDelay := hits[0].Tick - peekTick
	if snapDelay < 5 || snapDelay > 10 {
		t.Errorf("expected a reflex-delayed snap (~7 ticks), got %d", snapDelay)
	}
	if !ts.SimLog.HasEntry("state", "transition", "overwatch → combat") {
		t.Error("expected the snap to commit into combat")
	}
	if blue.Alive() {
		t.Errorf("expected sustained fire to finish blue, still at %.0f hp", blue.Health)
	}
	if r := DetermineOutcome(ts.World); r.Outcome != OutcomeRedVictory {
		t.Errorf("expected red victory, got %s", r.Outcome)
	}
}

// --- Scenario: Leader Anchors While The Squad Flanks ---

func TestScenario_LeaderAnchorsWhileSquadFlanks(t *testing.T) {
	t.Log("=== TestScenario_LeaderAnchorsWhileSquadFlanks ===")
	t.Log("--- Setup: 4-man squad vs a target dug in behind half cover ---")

	ts := NewTestSim(
		WithMapSize(30, 20),
		WithSeed(9),
		WithObstacle(15, 10, CoverHalf),
		WithCustomAgent(TeamRed, TileCoord{6, 8}.Center().X, TileCoord{6, 8}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamRed, TileCoord{6, 10}.Center().X, TileCoord{6, 10}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamRed, TileCoord{6, 12}.Center().X, TileCoord{6, 12}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamRed, TileCoord{6, 14}.Center().X, TileCoord{6, 14}.Center().Y, DefaultStats(), laserRifle()),
		WithCustomAgent(TeamBlue, TileCoord{16, 10}.Center().X, TileCoord{16, 10}.Center().Y, DefaultStats(), inertGun()),
		WithRedSquad(0, 1, 2, 3),
	)
	leader := ts.Agent(0)

	died := ts.RunUntil(func(ts *TestSim) bool { return !ts.Agent(4).Alive() }, 2400)
	dumpLog(t, ts)
	dumpReport(t, ts)

	if died < 0 {
		t.Fatal("expected the squad to finish the covered target within 40s")
	}
	t.Logf("PASS: target down at tick %d", died)

	// With three living squadmates the leader's doctrine is to hold; the
	// flank orders all fall on the others.
	for _, e := range ts.SimLog.Filter("state", "stuck_choice") {
		if e.Agent == leader.Label && e.Value != "overwatch" {
			t.Errorf("leader chose %q; anchored leaders hold overwatch", e.Value)
		}
	}
	flankers := map[string]bool{}
	for _, e := range ts.SimLog.Filter("move", "flank") {
		if e.Agent == leader.Label {
			t.Error("the anchored leader must not flank")
		}
		flankers[e.Agent] = true
	}
	if len(flankers) == 0 {
		t.Error("expected at least one squadmate ordered around the flank")
	}
	if got := ts.SimLog.CountCategory("squad", "contact"); got != 1 {
		t.Errorf("one squad, one first-engagement entry; got %d", got)
	}
	if r := DetermineOutcome(ts.World); r.Outcome != OutcomeRedVictory {
		t.Errorf("expected red victory, got %s (%s)", r.Outcome, r.Description)
	}
}
