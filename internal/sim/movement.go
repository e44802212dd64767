package sim

// Movement abstracts pathing and motion for one agent. States only command
// and query it; the world pumps Advance once per tick.
type Movement interface {
	// MoveTo begins pathing toward a world position. False means the
	// request could not start (no path); callers retry on their own timer.
	MoveTo(dest Vec2) bool
	MoveToTile(t TileCoord) bool
	IsMoving() bool
	Stop()
	// StopAtNearestTile finishes the current step and halts on its tile
	// instead of stopping mid-transit.
	StopAtNearestTile()
	SetSpeedScale(s float64)
	Advance(dt float64)
}

// GridMover is the built-in Movement: A* over the grid, walked waypoint to
// waypoint at the agent's speed.
type GridMover struct {
	grid  *Grid
	pos   *Vec2
	speed func() float64 // px/s
	scale float64

	path   []Vec2
	idx    int
	moving bool
}

func NewGridMover(grid *Grid, pos *Vec2, speed func() float64) *GridMover {
	return &GridMover{grid: grid, pos: pos, speed: speed, scale: 1}
}

func (gm *GridMover) MoveTo(dest Vec2) bool {
	path := gm.grid.FindPath(*gm.pos, dest)
	if path == nil {
		return false
	}
	gm.path = path
	gm.idx = 0
	gm.moving = true
	return true
}

func (gm *GridMover) MoveToTile(t TileCoord) bool {
	return gm.MoveTo(t.Center())
}

func (gm *GridMover) IsMoving() bool { return gm.moving }

func (gm *GridMover) Stop() {
	gm.moving = false
	gm.path = nil
	gm.idx = 0
}

func (gm *GridMover) StopAtNearestTile() {
	if !gm.moving || gm.idx >= len(gm.path) {
		gm.Stop()
		return
	}
	// Keep only the waypoint currently being walked toward.
	gm.path = gm.path[gm.idx : gm.idx+1]
	gm.idx = 0
}

func (gm *GridMover) SetSpeedScale(s float64) {
	if s < 0 {
		s = 0
	}
	gm.scale = s
}

// Advance walks the remaining movement budget along the path, consuming
// whole waypoints while budget remains.
func (gm *GridMover) Advance(dt float64) {
	if !gm.moving {
		return
	}
	budget := gm.speed() * gm.scale * dt
	for budget > 0 && gm.idx < len(gm.path) {
		target := gm.path[gm.idx]
		d := gm.pos.DistTo(target)
		if d <= budget {
			*gm.pos = target
			budget -= d
			gm.idx++
			continue
		}
		dir := target.Sub(*gm.pos).Norm()
		*gm.pos = gm.pos.Add(dir.Scale(budget))
		budget = 0
	}
	if gm.idx >= len(gm.path) {
		gm.Stop()
	}
}
