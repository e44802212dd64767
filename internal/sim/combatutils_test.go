package sim

import "testing"

func TestClassifyShotLine(t *testing.T) {
	g := NewGrid(20, 20)
	cm := NewCoverMap()
	cm.RebuildFrom(g)
	from := TileCoord{2, 5}.Center()
	to := TileCoord{9, 5}.Center()
	if got := ClassifyShotLine(g, cm, from, to); got != ShotClear {
		t.Fatalf("empty grid: expected clear, got %v", got)
	}

	// Terrain mid-line, nowhere near the target tile.
	g.AddObstacle(TileCoord{5, 5}, CoverFull)
	cm.RebuildFrom(g)
	if got := ClassifyShotLine(g, cm, from, to); got != ShotBlockedEnRoute {
		t.Fatalf("mid-line wall: expected blocked, got %v", got)
	}
}

func TestClassifyShotLine_TargetCover(t *testing.T) {
	g := NewGrid(20, 20)
	// Obstacle directly west of the target tile: the blocker is the
	// target's own cover, not intervening terrain.
	g.AddObstacle(TileCoord{8, 5}, CoverFull)
	cm := NewCoverMap()
	cm.RebuildFrom(g)
	got := ClassifyShotLine(g, cm, TileCoord{2, 5}.Center(), TileCoord{9, 5}.Center())
	if got != ShotBlockedByTargetCover {
		t.Fatalf("expected target_cover, got %v", got)
	}
}

func TestTargetFullyCovered(t *testing.T) {
	redPos := TileCoord{2, 5}.Center()
	bluePos := TileCoord{9, 5}.Center()
	ts := NewTestSim(
		WithMapSize(20, 14),
		WithObstacle(8, 5, CoverFull),
		WithRedAgent(redPos.X, redPos.Y),
		WithBlueAgent(bluePos.X, bluePos.Y),
	)
	shooter, target := ts.Agent(0), ts.Agent(1)

	if TargetFullyCovered(ts.Covers, shooter.Pos, target, ts.Tun.CoverAlignmentMin) {
		t.Fatal("an exposed target is never fully covered")
	}
	target.setExposed(ts.World, false)
	if !TargetFullyCovered(ts.Covers, shooter.Pos, target, ts.Tun.CoverAlignmentMin) {
		t.Fatal("tucked behind aligned cover should read fully covered")
	}
	// A shooter due south sees past the west-facing cover.
	flank := TileCoord{9, 11}.Center()
	if TargetFullyCovered(ts.Covers, flank, target, ts.Tun.CoverAlignmentMin) {
		t.Fatal("cover does not protect against a perpendicular shooter")
	}
}

func TestShotOrigin_LeansAroundCover(t *testing.T) {
	pos := TileCoord{9, 5}.Center()
	ts := NewTestSim(
		WithMapSize(20, 12),
		WithObstacle(8, 5, CoverFull),
		WithRedAgent(pos.X, pos.Y),
	)
	a := ts.Agent(0)

	origin := ShotOrigin(ts.Covers, a, TileCoord{2, 5}.Center())
	if origin == a.Pos {
		t.Fatal("expected a lean offset when firing toward own cover")
	}
	if WorldToTile(origin) != a.Tile() {
		t.Fatalf("lean must stay inside the agent's tile, got %v", WorldToTile(origin))
	}
	if origin.X != a.Pos.X {
		t.Fatalf("lean should be perpendicular to the cover, got %v", origin)
	}

	// Firing east, away from the cover, no lean applies.
	if got := ShotOrigin(ts.Covers, a, TileCoord{15, 5}.Center()); got != a.Pos {
		t.Fatalf("no source toward the target: expected the agent position, got %v", got)
	}
}

func TestCanFireOn_OverOwnHalfCover(t *testing.T) {
	pos := TileCoord{9, 5}.Center()
	ts := NewTestSim(
		WithMapSize(20, 12),
		WithObstacle(8, 5, CoverHalf),
		WithRedAgent(pos.X, pos.Y),
	)
	if !CanFireOn(ts.Grid, ts.Covers, ts.Agent(0), TileCoord{2, 5}.Center()) {
		t.Fatal("half cover should not stop the agent's own fire")
	}
}

func TestCanFireOn_OwnFullCoverBlocksStraightShot(t *testing.T) {
	pos := TileCoord{9, 5}.Center()
	ts := NewTestSim(
		WithMapSize(20, 12),
		WithObstacle(8, 5, CoverFull),
		WithRedAgent(pos.X, pos.Y),
	)
	// The lean stays inside the agent's own tile, so a straight shot
	// through own full cover stays blocked; the shooter has to hold a
	// target off axis or reposition.
	if CanFireOn(ts.Grid, ts.Covers, ts.Agent(0), TileCoord{2, 5}.Center()) {
		t.Fatal("straight line through own full cover should be blocked")
	}
}

func TestTargetScore_DistanceAndWounds(t *testing.T) {
	shooter := NewAgent(TeamRed, TileCoord{5, 5}.Center(), DefaultStats(), DefaultRifle())
	near := NewAgent(TeamBlue, TileCoord{9, 5}.Center(), DefaultStats(), DefaultRifle())
	far := NewAgent(TeamBlue, TileCoord{15, 5}.Center(), DefaultStats(), DefaultRifle())
	if TargetScore(shooter, near) <= TargetScore(shooter, far) {
		t.Fatal("closer target should score higher")
	}

	wounded := NewAgent(TeamBlue, TileCoord{15, 5}.Center(), DefaultStats(), DefaultRifle())
	wounded.Health = 40
	if TargetScore(shooter, wounded) <= TargetScore(shooter, far) {
		t.Fatal("wounded target should outrank a healthy one at the same range")
	}
}

func TestTargetScore_TargetingShooterBonus(t *testing.T) {
	p0 := TileCoord{5, 5}.Center()
	p1 := TileCoord{13, 5}.Center()
	p2 := TileCoord{11, 5}.Center()
	ts := NewTestSim(
		WithMapSize(30, 12),
		WithRedAgent(p0.X, p0.Y),
		WithBlueAgent(p1.X, p1.Y),
		WithBlueAgent(p2.X, p2.Y),
	)
	shooter, hostile, idle := ts.Agent(0), ts.Agent(1), ts.Agent(2)
	hostile.ChangeState(ts.World, NewCombatState(shooter.ID, false))

	// The farther enemy is shooting back; that outweighs two tiles of
	// range advantage.
	got := SelectTarget(shooter, []*Agent{hostile, idle})
	if got != hostile {
		t.Fatalf("expected the engaging enemy to win selection, got %v", got.Label)
	}
}

func TestSelectTarget_SkipsDeadAndSelf(t *testing.T) {
	shooter := NewAgent(TeamRed, TileCoord{5, 5}.Center(), DefaultStats(), DefaultRifle())
	dead := NewAgent(TeamBlue, TileCoord{7, 5}.Center(), DefaultStats(), DefaultRifle())
	dead.Health = 0
	live := NewAgent(TeamBlue, TileCoord{12, 5}.Center(), DefaultStats(), DefaultRifle())
	if got := SelectTarget(shooter, []*Agent{shooter, dead, live}); got != live {
		t.Fatal("selection should skip the shooter and the dead")
	}
	if SelectTarget(shooter, []*Agent{dead}) != nil {
		t.Fatal("no live candidates should yield nil")
	}
}

func TestUncoveredThreat(t *testing.T) {
	tun := DefaultTunables()
	tr := NewThreatTracker(&tun)
	tr.RegisterIncomingFire(Vec2{X: 1}, 10)
	tr.RegisterIncomingFire(Vec2{Y: 1}, 7)

	// East-facing cover blanks the east bucket.
	if got := UncoveredThreat(tr, Vec2{X: 1}, true, tun.CoverAlignmentMin); got != 7 {
		t.Fatalf("expected only the south bucket to count, got %f", got)
	}
	if got := UncoveredThreat(tr, Vec2{}, false, tun.CoverAlignmentMin); got != 17 {
		t.Fatalf("expected the full total without cover, got %f", got)
	}
}

func TestAbandonThreshold(t *testing.T) {
	tun := DefaultTunables()
	// Bravery 5 sits at scale 1.
	if got := AbandonThreshold(&tun, 5, false); got != tun.AbandonThreatBase {
		t.Fatalf("expected the base threshold, got %f", got)
	}
	if got := AbandonThreshold(&tun, 5, true); got != tun.AbandonThreatBase*tun.CommitFactor {
		t.Fatalf("commitment should scale the threshold, got %f", got)
	}
	if AbandonThreshold(&tun, 0, false) >= AbandonThreshold(&tun, 10, false) {
		t.Fatal("braver agents should hold at higher threat")
	}
}

func TestFiringPointFrom_PicksNearFlank(t *testing.T) {
	tile := TileCoord{9, 5}
	cover := CoverSource{Dir: Vec2{X: -1}}
	c := tile.Center()

	// Threat north-west: lean out the north flank.
	p := FiringPointFrom(tile, cover, TileCoord{2, 2}.Center())
	if p.Y >= c.Y {
		t.Fatalf("expected a lean toward the north flank, got %v", p)
	}
	// Threat south-west: south flank.
	p = FiringPointFrom(tile, cover, TileCoord{2, 9}.Center())
	if p.Y <= c.Y {
		t.Fatalf("expected a lean toward the south flank, got %v", p)
	}
	if WorldToTile(p) != tile {
		t.Fatal("lean must stay inside the tile")
	}
}

func TestFindFlankTile_AttacksOpenBearing(t *testing.T) {
	redPos := TileCoord{8, 10}.Center()
	bluePos := TileCoord{14, 10}.Center()
	ts := NewTestSim(
		WithMapSize(30, 22),
		WithWall(13, 8, 1, 5, CoverFull),
		WithRedAgent(redPos.X, redPos.Y),
		WithBlueAgent(bluePos.X, bluePos.Y),
	)
	red, blue := ts.Agent(0), ts.Agent(1)

	tile, ok := FindFlankTile(ts.Grid, ts.Covers, ts.Tiles, red, blue, ts.Tun)
	if !ok {
		t.Fatal("expected a flank tile")
	}
	// Perpendicular bearing at minimum standoff, destination backed by
	// the wall's own end.
	if tile != (TileCoord{14, 8}) {
		t.Fatalf("expected (14,8), got %v", tile)
	}
	if !ts.Grid.LineOfSight(tile.Center(), blue.Pos) {
		t.Fatal("flank tile must hold a fire line on the target")
	}
}

func TestFindFlankTile_HonorsWeaponRange(t *testing.T) {
	short := DefaultRifle()
	short.Range = 2.5 * TileSize
	redPos := TileCoord{8, 10}.Center()
	bluePos := TileCoord{14, 10}.Center()
	ts := NewTestSim(
		WithMapSize(30, 22),
		WithWall(13, 8, 1, 5, CoverFull),
		WithCustomAgent(TeamRed, redPos.X, redPos.Y, DefaultStats(), short),
		WithBlueAgent(bluePos.X, bluePos.Y),
	)
	red, blue := ts.Agent(0), ts.Agent(1)

	tile, ok := FindFlankTile(ts.Grid, ts.Covers, ts.Tiles, red, blue, ts.Tun)
	if !ok {
		t.Fatal("expected a flank tile inside the short range")
	}
	d := tile.Center().DistTo(blue.Pos)
	if d < 2*TileSize || d > short.Range {
		t.Fatalf("flank distance %.1f outside [%d, %.1f]", d, 2*TileSize, short.Range)
	}
}

func TestFindFlankTile_RangeBelowStandoff(t *testing.T) {
	tiny := DefaultRifle()
	tiny.Range = 1.5 * TileSize
	redPos := TileCoord{8, 10}.Center()
	bluePos := TileCoord{14, 10}.Center()
	ts := NewTestSim(
		WithMapSize(30, 22),
		WithCustomAgent(TeamRed, redPos.X, redPos.Y, DefaultStats(), tiny),
		WithBlueAgent(bluePos.X, bluePos.Y),
	)
	red, blue := ts.Agent(0), ts.Agent(1)
	if _, ok := FindFlankTile(ts.Grid, ts.Covers, ts.Tiles, red, blue, ts.Tun); ok {
		t.Fatal("a range under the minimum standoff leaves no flank ring")
	}
}

func TestFindFiringPosition_StepsClearOfWall(t *testing.T) {
	pos := TileCoord{10, 10}.Center()
	threat := TileCoord{20, 10}.Center()
	ts := NewTestSim(
		WithMapSize(30, 22),
		WithWall(12, 8, 1, 5, CoverFull),
		WithRedAgent(pos.X, pos.Y),
	)
	tile, ok := FindFiringPosition(ts.Grid, ts.Tiles, pos, threat, 6, ts.Agent(0).ID)
	if !ok {
		t.Fatal("expected a firing position")
	}
	// The spiral lands on the first tile past the wall with a clear line,
	// straight down the engagement axis.
	if tile != (TileCoord{13, 10}) {
		t.Fatalf("expected (13,10), got %v", tile)
	}
	if !ts.Grid.LineOfSight(tile.Center(), threat) {
		t.Fatalf("firing position %v has no line on the threat", tile)
	}
}

func TestFindFiringPosition_KeepsCurrentTileWhenClear(t *testing.T) {
	ts := NewTestSim(WithMapSize(30, 22))
	pos := TileCoord{10, 10}.Center()
	tile, ok := FindFiringPosition(ts.Grid, ts.Tiles, pos, TileCoord{20, 10}.Center(), 6, NoAgent)
	if !ok || tile != (TileCoord{10, 10}) {
		t.Fatalf("a clear start tile should answer immediately, got %v", tile)
	}
}
