package sim

import "math"

// Stateless combat queries shared by the behavior states. Everything here
// reads world structures and returns answers; no function in this file
// mutates an agent or the grid.

// ShotBlock classifies what, if anything, interrupts a fire line.
type ShotBlock int

const (
	ShotClear ShotBlock = iota
	ShotBlockedEnRoute        // terrain between shooter and target
	ShotBlockedByTargetCover  // only the target's own cover intervenes
)

func (s ShotBlock) String() string {
	switch s {
	case ShotClear:
		return "clear"
	case ShotBlockedEnRoute:
		return "blocked"
	case ShotBlockedByTargetCover:
		return "target_cover"
	default:
		return "unknown"
	}
}

// ClassifyShotLine walks the fire line from a shooter to a target position
// and reports what blocks it. A blocker that is one of the target tile's
// baked cover obstacles counts as the target's cover: suppressive fire can
// still rake that position even though aimed shots cannot land.
func ClassifyShotLine(g *Grid, covers *CoverMap, from, to Vec2) ShotBlock {
	blocker, _, hit := g.FirstSightBlocker(from, to)
	if !hit {
		return ShotClear
	}
	for _, src := range covers.SourcesAt(WorldToTile(to)) {
		if src.ObstacleTile == blocker {
			return ShotBlockedByTargetCover
		}
	}
	return ShotBlockedEnRoute
}

// TargetFullyCovered reports whether the target cannot currently be hit
// from shooterPos: tucked behind cover that is aligned against the shooter.
// A peeking target is always hittable no matter what protects its tile.
func TargetFullyCovered(covers *CoverMap, shooterPos Vec2, target *Agent, alignmentMin float64) bool {
	if target.Exposed() {
		return false
	}
	dirToShooter := shooterPos.Sub(target.Pos).Norm()
	if dirToShooter == (Vec2{}) {
		return false
	}
	_, _, ok := BestSourceAgainst(covers.SourcesAt(target.Tile()), dirToShooter, alignmentMin)
	return ok
}

// TargetScore rates a candidate as a fire target. Closer enemies score
// higher, enemies shooting at the scorer or its squad higher still, and a
// presented or wounded target edges out a tucked healthy one.
func TargetScore(shooter, candidate *Agent) float64 {
	distTiles := shooter.Pos.DistTo(candidate.Pos) / TileSize
	score := 100.0 - distTiles*2.5
	if tid, ok := candidate.CurrentTarget(); ok {
		switch {
		case tid == shooter.ID:
			score += 30
		case shooter.Squad != nil && shooter.Squad.HasMember(tid):
			score += 12
		}
	}
	if candidate.Exposed() {
		score += 15
	}
	score += (1 - candidate.HealthFrac()) * 10
	return score
}

// SelectTarget returns the highest-scoring living candidate, nil if none.
// Ties keep the earlier candidate so selection is stable across rescans.
func SelectTarget(shooter *Agent, candidates []*Agent) *Agent {
	var best *Agent
	bestScore := 0.0
	for _, c := range candidates {
		if c == nil || !c.Alive() || c == shooter {
			continue
		}
		if s := TargetScore(shooter, c); best == nil || s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

// UncoveredThreat sums the threat the agent's cover does not face. Without
// cover every bucket counts in full.
func UncoveredThreat(tr *ThreatTracker, coverDir Vec2, hasCover bool, alignmentMin float64) float64 {
	total := 0.0
	for _, b := range tr.ActiveThreats(0) {
		if hasCover && coverDir.Dot(b.Dir) >= alignmentMin {
			continue
		}
		total += b.Magnitude
	}
	return total
}

// AbandonThreshold is the uncovered threat level past which a held position
// should be given up, scaled by bravery and doubled while committed.
func AbandonThreshold(tun *Tunables, bravery float64, committed bool) float64 {
	th := tun.AbandonThreatBase * braveryScale(bravery)
	if committed {
		th *= tun.CommitFactor
	}
	return th
}

// FiringPointFrom is the world point an agent on tile leans to when firing
// around the given cover source: offset sideways from the obstacle, on
// whichever flank is nearer the threat.
func FiringPointFrom(tile TileCoord, cover CoverSource, threatPos Vec2) Vec2 {
	c := tile.Center()
	perp := Vec2{-cover.Dir.Y, cover.Dir.X}
	lean := perp.Scale(0.45 * TileSize)
	left := c.Add(lean)
	right := c.Sub(lean)
	if left.DistTo(threatPos) <= right.DistTo(threatPos) {
		return left
	}
	return right
}

// ShotOrigin is where an agent's fire actually leaves from: the lean point
// when its tile has a source roughly toward the target, its position
// otherwise.
func ShotOrigin(covers *CoverMap, a *Agent, targetPos Vec2) Vec2 {
	toTarget := targetPos.Sub(a.Pos).Norm()
	if src, _, ok := BestSourceAgainst(covers.SourcesAt(a.Tile()), toTarget, 0.01); ok {
		return FiringPointFrom(a.Tile(), src, targetPos)
	}
	return a.Pos
}

// CanFireOn reports whether the agent has a usable fire line on targetPos,
// leaning around own cover if needed.
func CanFireOn(g *Grid, covers *CoverMap, a *Agent, targetPos Vec2) bool {
	return g.LineOfSight(ShotOrigin(covers, a, targetPos), targetPos)
}

// FindFlankTile searches around the target for a position that attacks it
// from an angle its cover does not protect. Requirements, in order: inside
// the search radius, walkable, unclaimed, not the seeker's current or
// previous tile, a clear fire line on the target, and an approach bearing
// the target's cover leaves open. Among survivors, bearings perpendicular
// to the current engagement axis win, with shorter approaches and
// cover-backed destinations breaking ties.
func FindFlankTile(g *Grid, covers *CoverMap, tiles *TileReservationTable, seeker, target *Agent, tun *Tunables) (TileCoord, bool) {
	axis := target.Pos.Sub(seeker.Pos).Norm()
	if axis == (Vec2{}) {
		return TileCoord{}, false
	}
	center := target.Tile()
	radius := int(tun.FlankSearchRadiusTiles)
	targetSources := covers.SourcesAt(center)
	maxRange := seeker.Weapon.Profile.Range
	minRange := 2.0 * TileSize

	var best TileCoord
	bestScore := -math.MaxFloat64
	found := false

	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			t := TileCoord{center.X + dx, center.Y + dy}
			if g.IsBlocked(t) || t == seeker.Tile() || t == seeker.PrevTile() {
				continue
			}
			if !tiles.IsAvailable(t, seeker.ID) {
				continue
			}
			pos := t.Center()
			toTarget := pos.DistTo(target.Pos)
			if toTarget < minRange || toTarget > maxRange {
				continue
			}
			bearing := pos.Sub(target.Pos).Norm()
			if _, _, protected := BestSourceAgainst(targetSources, bearing, tun.CoverAlignmentMin); protected {
				continue
			}
			if !g.LineOfSight(pos, target.Pos) {
				continue
			}
			score := 50 * (1 - math.Abs(axis.Dot(bearing)))
			score -= seeker.Pos.DistTo(pos) / TileSize * 2
			if covers.HasCover(t) {
				score += 10
			}
			if score > bestScore {
				best, bestScore, found = t, score, true
			}
		}
	}
	return best, found
}

// FindFiringPosition spirals outward from the agent and returns the nearest
// unclaimed walkable tile with a clear fire line on threatPos, preferring
// tiles that do not retreat from the threat.
func FindFiringPosition(g *Grid, tiles *TileReservationTable, from, threatPos Vec2, maxRadiusTiles int, exclude AgentID) (TileCoord, bool) {
	start := WorldToTile(from)
	forward := threatPos.Sub(from).Norm()
	for r := 0; r <= maxRadiusTiles; r++ {
		var best TileCoord
		bestScore := -math.MaxFloat64
		found := false
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx) != r && absInt(dy) != r {
					continue // ring only
				}
				t := TileCoord{start.X + dx, start.Y + dy}
				if g.IsBlocked(t) || !tiles.IsAvailable(t, exclude) {
					continue
				}
				pos := t.Center()
				if !g.LineOfSight(pos, threatPos) {
					continue
				}
				score := 0.0
				if step := pos.Sub(from).Norm(); step != (Vec2{}) {
					score = forward.Dot(step)
				}
				if score > bestScore {
					best, bestScore, found = t, score, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return TileCoord{}, false
}
