package sim

import (
	"fmt"
	"math/rand"

	"github.com/rs/zerolog"

	"github.com/veldtsim/fireline/internal/doctrine"
)

// DefaultDt is the canonical fixed step, 60 ticks per second.
const DefaultDt = 1.0 / 60.0

// EventSink receives simulation telemetry. The world calls it inline from
// the tick loop, so implementations must not block; batch and flush on
// their own schedule.
type EventSink interface {
	StateChanged(tick int, a *Agent, from, to StateKind)
	ShotFired(tick int, shooter, target *Agent, hit bool)
	AgentDied(tick int, a *Agent)
	TickDone(tick int, aliveByTeam map[Team]int)
}

// NopSink discards all telemetry.
type NopSink struct{}

func (NopSink) StateChanged(int, *Agent, StateKind, StateKind) {}
func (NopSink) ShotFired(int, *Agent, *Agent, bool)            {}
func (NopSink) AgentDied(int, *Agent)                          {}
func (NopSink) TickDone(int, map[Team]int)                     {}

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (m MultiSink) StateChanged(tick int, a *Agent, from, to StateKind) {
	for _, s := range m {
		s.StateChanged(tick, a, from, to)
	}
}

func (m MultiSink) ShotFired(tick int, shooter, target *Agent, hit bool) {
	for _, s := range m {
		s.ShotFired(tick, shooter, target, hit)
	}
}

func (m MultiSink) AgentDied(tick int, a *Agent) {
	for _, s := range m {
		s.AgentDied(tick, a)
	}
}

func (m MultiSink) TickDone(tick int, aliveByTeam map[Team]int) {
	for _, s := range m {
		s.TickDone(tick, aliveByTeam)
	}
}

// WorldConfig seeds a new world. Zero values fall back to defaults, so
// tests can specify only what they care about.
type WorldConfig struct {
	Cols, Rows int
	Seed       int64
	Tunables   Tunables
	Policy     doctrine.Policy
	Logger     *zerolog.Logger
	Sink       EventSink
	VerboseLog bool
}

// World owns every shared structure and drives the per-agent machines.
// Single-threaded: one Step at a time, agents updated in spawn order, so
// same-tick contention always resolves first come first served.
type World struct {
	Grid     *Grid
	Covers   *CoverMap
	Tiles    *TileReservationTable
	Space    *SpatialIndex
	Eval     *CoverEvaluator
	Bus      *EventBus
	Requests *RequestQueue
	Tun      *Tunables
	Policy   doctrine.Policy
	Log      zerolog.Logger
	SimLog   *SimLog
	Sink     EventSink
	Rng      *rand.Rand

	agents     []*Agent
	byID       map[AgentID]*Agent
	squads     []*Squad
	teamCounts map[Team]int

	tick       int
	now        float64
	seed       int64
	sweepTimer float64
}

func NewWorld(cfg WorldConfig) *World {
	if cfg.Cols <= 0 {
		cfg.Cols = 48
	}
	if cfg.Rows <= 0 {
		cfg.Rows = 32
	}
	if cfg.Tunables == (Tunables{}) {
		cfg.Tunables = DefaultTunables()
	}
	if cfg.Policy == nil {
		cfg.Policy = doctrine.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	tun := cfg.Tunables
	w := &World{
		Grid:       NewGrid(cfg.Cols, cfg.Rows),
		Covers:     NewCoverMap(),
		Space:      NewSpatialIndex(),
		Bus:        NewEventBus(),
		Tun:        &tun,
		Policy:     cfg.Policy,
		Log:        log,
		SimLog:     NewSimLog(cfg.VerboseLog),
		Sink:       cfg.Sink,
		Rng:        rand.New(rand.NewSource(cfg.Seed)), // #nosec G404 -- simulation only
		seed:       cfg.Seed,
		byID:       make(map[AgentID]*Agent),
		teamCounts: make(map[Team]int),
	}
	w.Tiles = NewTileReservationTable(func(id AgentID) bool {
		a := w.byID[id]
		return a != nil && a.Alive()
	})
	w.Eval = NewCoverEvaluator(w.Grid, w.Covers, w.Tiles, w.Space, w.Tun)
	w.Requests = NewRequestQueue(w.Eval)
	return w
}

// AddObstacle places a blocking object and re-bakes the cover table.
// Call during setup; placing obstacles mid-run invalidates in-flight paths.
func (w *World) AddObstacle(t TileCoord, strength CoverStrength) int {
	id := w.Grid.AddObstacle(t, strength)
	w.Covers.RebuildFrom(w.Grid)
	return id
}

// NewSquad registers an empty squad on a team.
func (w *World) NewSquad(team Team) *Squad {
	s := NewSquad(len(w.squads), team)
	w.squads = append(w.squads, s)
	return s
}

// Spawn registers an agent, assigns its id and label, wires the default
// mover and threat tracker, and claims its starting tile. Spawn order is
// update order for the lifetime of the world.
func (w *World) Spawn(a *Agent, sq *Squad) *Agent {
	a.ID = AgentID(len(w.agents))
	if a.Label == "" {
		prefix := "R"
		if a.Team == TeamBlue {
			prefix = "B"
		}
		a.Label = fmt.Sprintf("%s%d", prefix, w.teamCounts[a.Team])
	}
	w.teamCounts[a.Team]++
	if a.Mover == nil {
		a.Mover = NewGridMover(w.Grid, &a.Pos, a.EffectiveSpeed)
	}
	if a.Threats == nil {
		a.Threats = NewThreatTracker(w.Tun)
	}
	if sq != nil {
		sq.Add(a)
	}
	w.agents = append(w.agents, a)
	w.byID[a.ID] = a
	w.Tiles.Occupy(a.ID, a.Tile())
	w.note(a, "state", "spawn", a.Tile().Center().String(), 0)
	return a
}

func (w *World) Agents() []*Agent { return w.agents }

func (w *World) Squads() []*Squad { return w.squads }

func (w *World) AgentByID(id AgentID) *Agent { return w.byID[id] }

// Tick returns the number of completed steps.
func (w *World) Tick() int { return w.tick }

// Now returns sim time in seconds.
func (w *World) Now() float64 { return w.now }

// Seed returns the RNG seed the world was built with.
func (w *World) Seed() int64 { return w.seed }

// SetTunables swaps the live threshold set between steps.
func (w *World) SetTunables(t Tunables) { *w.Tun = t }

// AliveByTeam counts living agents per team.
func (w *World) AliveByTeam() map[Team]int {
	out := make(map[Team]int)
	for _, a := range w.agents {
		if a.Alive() {
			out[a.Team]++
		}
	}
	return out
}

// Step advances the world one fixed tick: rebuild the spatial index, decay
// threat, sweep stale tile claims, resolve queued position searches, run
// every machine in spawn order, pump movement, deliver peek events, then
// refresh squads and flush telemetry.
func (w *World) Step(dt float64) {
	w.tick++
	w.now += dt

	w.Space.Rebuild(w.agents)

	w.sweepTimer += dt
	if w.sweepTimer >= w.Tun.ReservationSweepEvery {
		w.sweepTimer = 0
		w.Tiles.Sweep()
	}

	for _, a := range w.agents {
		if a.Alive() {
			a.Threats.Decay(dt)
		}
	}

	w.Requests.Resolve(w.Tun.PositionRequestsPerTick)

	for _, a := range w.agents {
		if !a.Alive() {
			continue
		}
		a.machine.Tick(a, w, dt)
		if a.Alive() && a.Mover != nil {
			a.Mover.Advance(dt)
			a.trackTile()
		}
	}

	w.Bus.Drain(func(ev Event) {
		for _, a := range w.agents {
			if !a.Alive() || a.ID == ev.Agent {
				continue
			}
			if l, ok := a.machine.current.(peekListener); ok {
				l.OnPeek(a, w, ev)
			}
		}
	})

	for _, s := range w.squads {
		s.Update(w.now)
	}

	w.Sink.TickDone(w.tick, w.AliveByTeam())
}

// RunFor steps the world by whole ticks until seconds of sim time pass.
func (w *World) RunFor(seconds float64) {
	steps := int(seconds / DefaultDt)
	for i := 0; i < steps; i++ {
		w.Step(DefaultDt)
	}
}

// note records a per-agent event on the sim log and the structured logger.
func (w *World) note(a *Agent, category, key, value string, num float64) {
	w.SimLog.Add(w.tick, a.Label, a.Team.String(), category, key, value, num)
	w.Log.Debug().
		Int("tick", w.tick).
		Str("agent", a.Label).
		Str(category, key).
		Msg(value)
}

// noteSquadContact marks the agent's squad as engaged, logging the first
// contact once per squad.
func (w *World) noteSquadContact(a *Agent) {
	if a.Squad == nil {
		return
	}
	if !a.Squad.HasBeenEngaged() {
		w.note(a, "squad", "contact", "first engagement", 0)
	}
	a.Squad.NoteContact()
}

// noteGlobal records an event not tied to one agent.
func (w *World) noteGlobal(category, key, value string, num float64) {
	w.SimLog.Add(w.tick, "--", "--", category, key, value, num)
	w.Log.Debug().Int("tick", w.tick).Str(category, key).Msg(value)
}

func (w *World) noteTransition(a *Agent, from, to StateKind) {
	w.note(a, "state", "transition", from.String()+" → "+to.String(), 0)
	w.Sink.StateChanged(w.tick, a, from, to)
}

func (w *World) noteDeath(a *Agent) {
	w.note(a, "state", "death", "down", 0)
	w.Log.Info().Str("agent", a.Label).Str("team", a.Team.String()).Msg("agent down")
	w.Sink.AgentDied(w.tick, a)
}
