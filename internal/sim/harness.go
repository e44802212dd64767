package sim

import (
	"github.com/veldtsim/fireline/internal/doctrine"
)

// TestSim is a headless harness used exclusively by tests. It wraps World
// with deterministic seeding and ordered option passes so a scenario reads
// as one declarative literal.
type TestSim struct {
	*World
	cfg       WorldConfig
	obstacles []plannedObstacle
}

type plannedObstacle struct {
	tile     TileCoord
	strength CoverStrength
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra simOptionKind = iota // map size, seed, tunables, obstacles; applied first
	simOptAgent                      // spawn agents; applied once the grid exists
	simOptSquad                      // form squads; applied after agents exist
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithMapSize sets the playfield dimensions in tiles.
func WithMapSize(cols, rows int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Cols = cols
		ts.cfg.Rows = rows
	}}
}

// WithSeed sets the RNG seed for deterministic runs.
func WithSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Seed = seed
	}}
}

// WithVerbose enables per-tick verbose logging.
func WithVerbose(v bool) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.VerboseLog = v
	}}
}

// WithTunables overrides the default tuning set.
func WithTunables(t Tunables) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Tunables = t
	}}
}

// WithPolicy installs a doctrine policy for stuck-in-combat decisions.
func WithPolicy(p doctrine.Policy) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.cfg.Policy = p
	}}
}

// WithObstacle places a single cover-granting obstacle tile.
func WithObstacle(tx, ty int, strength CoverStrength) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.obstacles = append(ts.obstacles, plannedObstacle{TileCoord{tx, ty}, strength})
	}}
}

// WithWall places a rectangular run of obstacle tiles.
func WithWall(tx, ty, w, h int, strength CoverStrength) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		for dy := 0; dy < h; dy++ {
			for dx := 0; dx < w; dx++ {
				ts.obstacles = append(ts.obstacles, plannedObstacle{TileCoord{tx + dx, ty + dy}, strength})
			}
		}
	}}
}

// WithRedAgent spawns a red agent at world position (x, y) with default
// stats and rifle.
func WithRedAgent(x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Spawn(NewAgent(TeamRed, Vec2{x, y}, DefaultStats(), DefaultRifle()), nil)
	}}
}

// WithBlueAgent spawns a blue agent at world position (x, y) with default
// stats and rifle.
func WithBlueAgent(x, y float64) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Spawn(NewAgent(TeamBlue, Vec2{x, y}, DefaultStats(), DefaultRifle()), nil)
	}}
}

// WithCustomAgent spawns an agent with explicit stats and weapon.
func WithCustomAgent(team Team, x, y float64, stats StatBlock, weapon WeaponProfile) SimOption {
	return SimOption{simOptAgent, func(ts *TestSim) {
		ts.Spawn(NewAgent(team, Vec2{x, y}, stats, weapon), nil)
	}}
}

// WithRedSquad groups existing red agents (by spawn-order ID) into a squad.
func WithRedSquad(ids ...int) SimOption {
	return SimOption{simOptSquad, func(ts *TestSim) {
		ts.formSquad(TeamRed, ids)
	}}
}

// WithBlueSquad groups existing blue agents (by spawn-order ID) into a squad.
func WithBlueSquad(ids ...int) SimOption {
	return SimOption{simOptSquad, func(ts *TestSim) {
		ts.formSquad(TeamBlue, ids)
	}}
}

// WithRally sets the rally point of the most recently formed squad. Place it
// after the squad option it refers to.
func WithRally(x, y float64) SimOption {
	return SimOption{simOptSquad, func(ts *TestSim) {
		if n := len(ts.Squads()); n > 0 {
			ts.Squads()[n-1].SetRallyPoint(Vec2{x, y})
		}
	}}
}

// NewTestSim constructs a TestSim from the given options in three ordered
// passes:
//  1. Infrastructure (map size, seed, tunables, obstacles)
//  2. Agents
//  3. Squads
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		cfg: WorldConfig{Seed: 1},
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}
	ts.World = NewWorld(ts.cfg)
	for _, ob := range ts.obstacles {
		ts.World.AddObstacle(ob.tile, ob.strength)
	}
	for _, o := range opts {
		if o.kind == simOptAgent {
			o.fn(ts)
		}
	}
	for _, o := range opts {
		if o.kind == simOptSquad {
			o.fn(ts)
		}
	}
	return ts
}

// formSquad groups agents into a squad. ids are spawn-order agent IDs.
func (ts *TestSim) formSquad(team Team, ids []int) {
	sq := ts.NewSquad(team)
	for _, id := range ids {
		a := ts.AgentByID(AgentID(id))
		if a == nil || a.Team != team {
			continue
		}
		sq.Add(a)
	}
}

// Agent returns the agent with the given spawn-order ID.
func (ts *TestSim) Agent(id int) *Agent { return ts.AgentByID(AgentID(id)) }

// ByTeam returns all agents of a team, dead or alive.
func (ts *TestSim) ByTeam(team Team) []*Agent {
	var out []*Agent
	for _, a := range ts.Agents() {
		if a.Team == team {
			out = append(out, a)
		}
	}
	return out
}

// RunTicks advances the simulation n fixed-dt ticks.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		ts.Step(DefaultDt)
	}
}

// RunSeconds advances the simulation by whole seconds of fixed-dt ticks.
func (ts *TestSim) RunSeconds(sec float64) {
	ts.RunTicks(int(sec / DefaultDt))
}

// RunUntil advances the simulation up to maxTicks, stopping early if
// predicate returns true. Returns the tick at which the predicate was
// satisfied, or -1.
func (ts *TestSim) RunUntil(predicate func(*TestSim) bool, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		ts.Step(DefaultDt)
		if predicate(ts) {
			return ts.Tick()
		}
	}
	return -1
}
