package sim

// spatialCellTiles is the bucket edge length in tiles. Coarser than the
// grid so radius queries touch few buckets.
const spatialCellTiles = 4

// SpatialIndex buckets live agents by position for radius queries, so
// target scans never enumerate the full agent list. Rebuilt every tick.
type SpatialIndex struct {
	cellPx  float64
	buckets map[[2]int][]*Agent
}

func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		cellPx:  spatialCellTiles * TileSize,
		buckets: make(map[[2]int][]*Agent),
	}
}

func (si *SpatialIndex) cellOf(p Vec2) [2]int {
	return [2]int{int(p.X / si.cellPx), int(p.Y / si.cellPx)}
}

// Rebuild reindexes all live agents.
func (si *SpatialIndex) Rebuild(agents []*Agent) {
	for k := range si.buckets {
		delete(si.buckets, k)
	}
	for _, a := range agents {
		if !a.Alive() {
			continue
		}
		c := si.cellOf(a.Pos)
		si.buckets[c] = append(si.buckets[c], a)
	}
}

// AgentsWithin returns live agents within radius of p, in index order.
func (si *SpatialIndex) AgentsWithin(p Vec2, radius float64) []*Agent {
	var out []*Agent
	si.eachInRange(p, radius, func(a *Agent) {
		out = append(out, a)
	})
	return out
}

// EnemiesWithin returns live agents hostile to team within radius of p.
func (si *SpatialIndex) EnemiesWithin(p Vec2, radius float64, team Team) []*Agent {
	var out []*Agent
	si.eachInRange(p, radius, func(a *Agent) {
		if a.Team != team {
			out = append(out, a)
		}
	})
	return out
}

func (si *SpatialIndex) eachInRange(p Vec2, radius float64, fn func(*Agent)) {
	minC := si.cellOf(Vec2{p.X - radius, p.Y - radius})
	maxC := si.cellOf(Vec2{p.X + radius, p.Y + radius})
	for cy := minC[1]; cy <= maxC[1]; cy++ {
		for cx := minC[0]; cx <= maxC[0]; cx++ {
			for _, a := range si.buckets[[2]int{cx, cy}] {
				if a.Pos.DistTo(p) <= radius {
					fn(a)
				}
			}
		}
	}
}
