package sim

import "math"

// TileSize is the edge length of one grid cell in world px.
const TileSize = 16

// TileCoord addresses one grid cell.
type TileCoord struct{ X, Y int }

// Center returns the world position of the tile's center.
func (t TileCoord) Center() Vec2 {
	return Vec2{float64(t.X*TileSize) + TileSize/2, float64(t.Y*TileSize) + TileSize/2}
}

// DistTo returns the world-space distance between two tile centers.
func (t TileCoord) DistTo(o TileCoord) float64 {
	return t.Center().DistTo(o.Center())
}

// WorldToTile converts a world position to the tile containing it.
func WorldToTile(p Vec2) TileCoord {
	return TileCoord{int(p.X) / TileSize, int(p.Y) / TileSize}
}

// CoverStrength classifies how much protection an obstacle offers.
type CoverStrength int

const (
	CoverHalf CoverStrength = iota // low obstacle: protects, can be fired over
	CoverFull                      // high obstacle: protects and blocks sight
)

func (s CoverStrength) String() string {
	switch s {
	case CoverHalf:
		return "half"
	case CoverFull:
		return "full"
	default:
		return "unknown"
	}
}

// Obstacle is a single-tile blocking object. Full obstacles block sight as
// well as movement; half obstacles only block movement.
type Obstacle struct {
	ID       int
	Tile     TileCoord
	Strength CoverStrength
}

// Grid is the discretized map: per-tile movement and sight blocking plus the
// obstacle registry the cover baker reads.
type Grid struct {
	cols, rows int
	blocked    []bool
	opaque     []bool
	obstacleAt []int32 // obstacle index +1, 0 = none
	obstacles  []Obstacle
}

// NewGrid builds an empty all-walkable grid.
func NewGrid(cols, rows int) *Grid {
	return &Grid{
		cols:       cols,
		rows:       rows,
		blocked:    make([]bool, cols*rows),
		opaque:     make([]bool, cols*rows),
		obstacleAt: make([]int32, cols*rows),
	}
}

func (g *Grid) Cols() int { return g.cols }
func (g *Grid) Rows() int { return g.rows }

// Bounds returns the world-space size of the grid.
func (g *Grid) Bounds() (w, h float64) {
	return float64(g.cols * TileSize), float64(g.rows * TileSize)
}

func (g *Grid) InBounds(t TileCoord) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < g.cols && t.Y < g.rows
}

// IsBlocked reports whether the tile cannot be stood on. Out-of-bounds
// counts as blocked.
func (g *Grid) IsBlocked(t TileCoord) bool {
	if !g.InBounds(t) {
		return true
	}
	return g.blocked[t.Y*g.cols+t.X]
}

// BlocksSight reports whether the tile stops line of sight.
func (g *Grid) BlocksSight(t TileCoord) bool {
	if !g.InBounds(t) {
		return true
	}
	return g.opaque[t.Y*g.cols+t.X]
}

// AddObstacle places a blocking object and returns its id. Placement on an
// already-occupied tile replaces the previous obstacle's footprint.
func (g *Grid) AddObstacle(t TileCoord, strength CoverStrength) int {
	if !g.InBounds(t) {
		return -1
	}
	id := len(g.obstacles)
	g.obstacles = append(g.obstacles, Obstacle{ID: id, Tile: t, Strength: strength})
	i := t.Y*g.cols + t.X
	g.blocked[i] = true
	g.opaque[i] = strength == CoverFull
	g.obstacleAt[i] = int32(id) + 1
	return id
}

// ObstacleAt returns the obstacle on a tile, if any.
func (g *Grid) ObstacleAt(t TileCoord) (Obstacle, bool) {
	if !g.InBounds(t) {
		return Obstacle{}, false
	}
	idx := g.obstacleAt[t.Y*g.cols+t.X]
	if idx == 0 {
		return Obstacle{}, false
	}
	return g.obstacles[idx-1], true
}

// Obstacles returns the registry in placement order.
func (g *Grid) Obstacles() []Obstacle { return g.obstacles }

// LineOfSight walks the tile line between two world points and reports
// whether any interior tile blocks sight. The endpoint tiles themselves do
// not block: an agent pressed against full cover can still see out past it.
func (g *Grid) LineOfSight(from, to Vec2) bool {
	_, _, hit := g.FirstSightBlocker(from, to)
	return !hit
}

// FirstSightBlocker returns the first sight-blocking tile strictly between
// from and to, with its fraction along the line (0 near from, 1 near to).
func (g *Grid) FirstSightBlocker(from, to Vec2) (TileCoord, float64, bool) {
	a := WorldToTile(from)
	b := WorldToTile(to)

	dc := absInt(b.X - a.X)
	dr := absInt(b.Y - a.Y)
	totalSteps := dc
	if dr > totalSteps {
		totalSteps = dr
	}
	if totalSteps <= 1 {
		return TileCoord{}, 0, false
	}

	col, row := a.X, a.Y
	xStep := -1
	if a.X < b.X {
		xStep = 1
	}
	yStep := -1
	if a.Y < b.Y {
		yStep = 1
	}
	err := dc - dr

	step := 0
	for {
		if col == b.X && row == b.Y {
			break
		}
		e2 := err * 2
		if e2 > -dr {
			err -= dr
			col += xStep
		}
		if e2 < dc {
			err += dc
			row += yStep
		}
		step++
		t := TileCoord{col, row}
		if t == b {
			break
		}
		if g.BlocksSight(t) {
			return t, float64(step) / float64(totalSteps), true
		}
	}
	return TileCoord{}, 0, false
}

// NearestWalkable spirals outward from t and returns the closest unblocked
// tile, up to maxRadius tiles away.
func (g *Grid) NearestWalkable(t TileCoord, maxRadius int) (TileCoord, bool) {
	if !g.IsBlocked(t) {
		return t, true
	}
	for r := 1; r <= maxRadius; r++ {
		best := TileCoord{}
		bestDist := math.MaxFloat64
		found := false
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx) != r && absInt(dy) != r {
					continue // ring only
				}
				c := TileCoord{t.X + dx, t.Y + dy}
				if g.IsBlocked(c) {
					continue
				}
				d := t.DistTo(c)
				if d < bestDist {
					best, bestDist, found = c, d, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return TileCoord{}, false
}
