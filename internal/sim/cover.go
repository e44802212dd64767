package sim

import "math"

// CoverSource associates a protected tile with one adjacent obstacle: the
// direction from the tile toward the obstacle and the obstacle's strength.
// A tile can hold several sources, one per protecting neighbor.
type CoverSource struct {
	ObstacleID   int
	Strength     CoverStrength
	Dir          Vec2 // unit vector from the protected tile toward the obstacle
	ObstacleTile TileCoord
}

// CoverMap is the baked tile -> cover-source table. The bake walks the
// obstacle registry and assigns a source to every walkable tile cardinally
// adjacent to an obstacle. Rebuilt wholesale when obstacles change; queries
// never mutate it.
type CoverMap struct {
	sources map[TileCoord][]CoverSource
}

func NewCoverMap() *CoverMap {
	return &CoverMap{sources: make(map[TileCoord][]CoverSource)}
}

var cardinalDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// RebuildFrom re-bakes the whole table from the grid's obstacles.
func (cm *CoverMap) RebuildFrom(g *Grid) {
	cm.sources = make(map[TileCoord][]CoverSource)
	for _, ob := range g.Obstacles() {
		for _, d := range cardinalDirs {
			t := TileCoord{ob.Tile.X - d[0], ob.Tile.Y - d[1]}
			if g.IsBlocked(t) {
				continue
			}
			cm.sources[t] = append(cm.sources[t], CoverSource{
				ObstacleID:   ob.ID,
				Strength:     ob.Strength,
				Dir:          Vec2{float64(d[0]), float64(d[1])},
				ObstacleTile: ob.Tile,
			})
		}
	}
}

// SourcesAt returns the cover sources protecting a tile. The returned slice
// is shared; callers must not mutate it.
func (cm *CoverMap) SourcesAt(t TileCoord) []CoverSource {
	return cm.sources[t]
}

// HasCover reports whether any source protects the tile at all.
func (cm *CoverMap) HasCover(t TileCoord) bool {
	return len(cm.sources[t]) > 0
}

// BestSourceAgainst returns the source best aligned with a threat in
// direction threatDir (unit vector from the tile toward the threat), if any
// clears the alignment cutoff.
func BestSourceAgainst(sources []CoverSource, threatDir Vec2, alignmentMin float64) (CoverSource, float64, bool) {
	var best CoverSource
	bestAlign := 0.0
	found := false
	for _, s := range sources {
		a := s.Dir.Dot(threatDir)
		if a < alignmentMin {
			continue
		}
		if !found || a > bestAlign {
			best, bestAlign, found = s, a, true
		}
	}
	return best, bestAlign, found
}

// CoverResult is one scored candidate standing position. Produced fresh per
// query; threat direction changes make cached results stale immediately.
type CoverResult struct {
	Tile    TileCoord
	Pos     Vec2
	Dist    float64 // px from the seeker
	Score   float64
	Sources []CoverSource
	Best    CoverSource // the source the score was computed against
}

// SearchParams carries the seeker-dependent scoring inputs.
type SearchParams struct {
	Team        Team
	Aggression  float64 // 0..1, from posture
	WeaponRange float64 // px
	IsLeader    bool
	LeaderPos   Vec2
	HasLeader   bool
	RallyPoint  Vec2
	HasRally    bool
}

// CoverEvaluator scores candidate cover tiles against a threat position.
type CoverEvaluator struct {
	grid   *Grid
	covers *CoverMap
	tiles  *TileReservationTable
	space  *SpatialIndex
	tun    *Tunables
}

func NewCoverEvaluator(grid *Grid, covers *CoverMap, tiles *TileReservationTable, space *SpatialIndex, tun *Tunables) *CoverEvaluator {
	return &CoverEvaluator{grid: grid, covers: covers, tiles: tiles, space: space, tun: tun}
}

// FindBestCover enumerates baked cover tiles within maxRadius of agentPos
// and returns the highest-scoring one that is available and aligned against
// the threat. Returns false if every candidate is rejected.
func (ce *CoverEvaluator) FindBestCover(agentPos, threatPos Vec2, params SearchParams, maxRadius float64, exclude AgentID) (CoverResult, bool) {
	center := WorldToTile(agentPos)
	radiusTiles := int(math.Ceil(maxRadius / TileSize))
	if radiusTiles < 1 {
		radiusTiles = 1
	}

	bestScore := -math.MaxFloat64
	var best CoverResult
	found := false

	for dy := -radiusTiles; dy <= radiusTiles; dy++ {
		for dx := -radiusTiles; dx <= radiusTiles; dx++ {
			t := TileCoord{center.X + dx, center.Y + dy}
			sources := ce.covers.SourcesAt(t)
			if len(sources) == 0 {
				continue
			}
			if ce.grid.IsBlocked(t) {
				continue
			}
			if !ce.tiles.IsAvailable(t, exclude) {
				continue
			}
			pos := t.Center()
			dist := agentPos.DistTo(pos)
			if dist > maxRadius {
				continue
			}
			score, res, ok := ce.scoreTile(t, pos, dist, threatPos, sources, params)
			if !ok {
				continue
			}
			if score > bestScore {
				bestScore = score
				best = res
				best.Dist = dist
				found = true
			}
		}
	}
	return best, found
}

// ScorePositionForCover scores the seeker's current tile with zero travel
// cost, for stay-versus-move comparisons. ok is false when the tile would
// be rejected outright (no aligned cover).
func (ce *CoverEvaluator) ScorePositionForCover(agentPos, threatPos Vec2, params SearchParams) (float64, bool) {
	t := WorldToTile(agentPos)
	sources := ce.covers.SourcesAt(t)
	if len(sources) == 0 {
		return 0, false
	}
	score, _, ok := ce.scoreTile(t, t.Center(), 0, threatPos, sources, params)
	if !ok {
		return 0, false
	}
	return score, true
}

// scoreTile applies the candidate scoring stack. Alignment gates first;
// everything after is additive.
func (ce *CoverEvaluator) scoreTile(t TileCoord, pos Vec2, travelDist float64, threatPos Vec2, sources []CoverSource, params SearchParams) (float64, CoverResult, bool) {
	tun := ce.tun
	threatDir := threatPos.Sub(pos).Norm()
	if threatDir == (Vec2{}) {
		return 0, CoverResult{}, false
	}

	best, align, ok := BestSourceAgainst(sources, threatDir, tun.CoverAlignmentMin)
	if !ok {
		return 0, CoverResult{}, false
	}

	score := align * tun.CoverAlignmentWeight

	// Half cover overtakes full cover as aggression rises: aggressive
	// seekers trade protection for the ability to return fire.
	if best.Strength == CoverHalf {
		score += tun.CoverBonusHalfBase + tun.CoverBonusHalfAggroScale*params.Aggression
	} else {
		score += tun.CoverBonusFullBase - tun.CoverBonusFullAggroScale*params.Aggression
	}

	score -= (travelDist / TileSize) * tun.CoverTravelCostPerTile

	// Range band: punish positions that are point-blank or past weapon
	// range, reward the comfortable middle.
	if params.WeaponRange > 0 {
		toThreat := pos.DistTo(threatPos)
		switch {
		case toThreat < params.WeaponRange*tun.RangeBandMinFrac:
			score -= tun.RangeTooClosePenalty
		case toThreat > params.WeaponRange:
			score -= tun.RangeBeyondPenalty
		case toThreat <= params.WeaponRange*tun.RangeBandMaxFrac:
			score += tun.RangeBandBonus
		}
	}

	if ce.space != nil {
		closeRadius := tun.CloseEnemyRadiusTiles * TileSize
		n := len(ce.space.EnemiesWithin(pos, closeRadius, params.Team))
		score -= float64(n) * tun.CloseEnemyPenalty
	}

	if params.HasLeader && !params.IsLeader {
		d := pos.DistTo(params.LeaderPos)
		r := tun.LeaderProximityRadiusTiles * TileSize
		if d < r {
			score += tun.LeaderProximityBonus * (1 - d/r)
		}
	}

	if params.HasRally {
		overTiles := (pos.DistTo(params.RallyPoint) - tun.RallySlackTiles*TileSize) / TileSize
		if overTiles > 0 {
			perTile := tun.RallyPenaltyPerTile
			if params.IsLeader {
				perTile = tun.RallyPenaltyPerTileLeader
			}
			score -= overTiles * perTile
		}
	}

	return score, CoverResult{Tile: t, Pos: pos, Score: score, Sources: sources, Best: best}, true
}
