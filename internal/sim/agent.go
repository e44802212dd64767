package sim

// AgentID identifies one agent for the lifetime of a world.
type AgentID int

// NoAgent is the empty id used in ledgers and exclusion parameters.
const NoAgent AgentID = -1

type Team int

const (
	TeamRed Team = iota
	TeamBlue
)

func (t Team) String() string {
	switch t {
	case TeamRed:
		return "red"
	case TeamBlue:
		return "blue"
	default:
		return "unknown"
	}
}

// Posture biases cover choice and engagement range.
type Posture int

const (
	PostureDefensive Posture = iota
	PostureNeutral
	PostureAggressive
)

func (p Posture) String() string {
	switch p {
	case PostureDefensive:
		return "defensive"
	case PostureNeutral:
		return "neutral"
	case PostureAggressive:
		return "aggressive"
	default:
		return "unknown"
	}
}

// Aggression maps the posture onto the 0..1 scale scoring uses.
func (p Posture) Aggression() float64 {
	switch p {
	case PostureDefensive:
		return 0.0
	case PostureAggressive:
		return 1.0
	default:
		return 0.5
	}
}

// StatBlock holds an agent's abilities on a 0..10 scale, 5 = trained
// baseline. Speed is world px per second.
type StatBlock struct {
	Accuracy float64
	Bravery  float64
	Reflex   float64
	Tactics  float64
	Speed    float64
}

func DefaultStats() StatBlock {
	return StatBlock{Accuracy: 5, Bravery: 5, Reflex: 5, Tactics: 5, Speed: 60}
}

// Agent is one combatant. It owns its state machine exclusively; only its
// own state's Update mutates it.
type Agent struct {
	ID      AgentID
	Label   string
	Team    Team
	Pos     Vec2
	Stats   StatBlock
	Posture Posture
	Weapon  Weapon

	Health    float64
	MaxHealth float64

	Squad   *Squad
	Threats *ThreatTracker
	Mover   Movement

	machine StateMachine

	exposed  bool      // standing/peeking rather than tucked behind cover
	curTile  TileCoord // tile currently stood on
	prevTile TileCoord // tile stood on before curTile

	pendingDamage int  // hits landed since the state last consumed them
	lastHitDir    Vec2 // unit vector toward the most recent shooter

	fightingInOpen bool // cover search gave up; suppresses re-seeking
}

// NewAgent builds an agent at a world position. The world assigns the id
// and wires the default mover at spawn; tests may replace Mover afterward.
func NewAgent(team Team, pos Vec2, stats StatBlock, weapon WeaponProfile) *Agent {
	a := &Agent{
		ID:        NoAgent,
		Team:      team,
		Pos:       pos,
		Stats:     stats,
		Posture:   PostureNeutral,
		Weapon:    NewWeapon(weapon),
		Health:    100,
		MaxHealth: 100,
		exposed:   true,
	}
	a.curTile = WorldToTile(pos)
	a.prevTile = a.curTile
	a.machine.current = NewIdleState()
	return a
}

func (a *Agent) Alive() bool { return a.Health > 0 }

// HealthFrac returns remaining health 0..1.
func (a *Agent) HealthFrac() float64 {
	if a.MaxHealth <= 0 {
		return 0
	}
	return clamp01(a.Health / a.MaxHealth)
}

// Tile returns the grid cell the agent currently stands in.
func (a *Agent) Tile() TileCoord { return WorldToTile(a.Pos) }

// PrevTile returns the last tile the agent stood on before the current one.
// Flank searches exclude it so an agent never "flanks" back into the spot
// it just left.
func (a *Agent) PrevTile() TileCoord { return a.prevTile }

// Exposed reports whether the agent is presenting a target (standing,
// aiming, peeking) rather than tucked behind cover.
func (a *Agent) Exposed() bool { return a.exposed }

// StateKind returns the current behavior state's kind.
func (a *Agent) StateKind() StateKind { return a.machine.Kind() }

// CombatPhase returns the nested phase when the agent is in Combat.
func (a *Agent) CombatPhase() (CombatPhase, bool) {
	if c, ok := a.machine.current.(*CombatState); ok {
		return c.phase, true
	}
	return 0, false
}

// targeter is implemented by states that hold a live target.
type targeter interface {
	TargetID() AgentID
}

// CurrentTarget returns who the agent's state is working against, if the
// state tracks a target at all.
func (a *Agent) CurrentTarget() (AgentID, bool) {
	if t, ok := a.machine.current.(targeter); ok && t.TargetID() != NoAgent {
		return t.TargetID(), true
	}
	return NoAgent, false
}

// FightingInOpen reports the no-cover fallback marker.
func (a *Agent) FightingInOpen() bool { return a.fightingInOpen }

// Leads reports whether the agent is its squad's current leader.
func (a *Agent) Leads() bool {
	return a.Squad != nil && a.Squad.Leader() == a
}

// setExposed flips the exposure flag, publishing peek events on change so
// the overwatch-reaction subsystem can respond next tick.
func (a *Agent) setExposed(w *World, exposed bool) {
	if a.exposed == exposed {
		return
	}
	a.exposed = exposed
	if w == nil || w.Bus == nil {
		return
	}
	if exposed {
		w.Bus.Publish(Event{Kind: EventPeekStarted, Agent: a.ID, Pos: a.Pos})
	} else {
		w.Bus.Publish(Event{Kind: EventPeekStopped, Agent: a.ID, Pos: a.Pos})
	}
}

// TakeDamage applies a hit from a shooter at from. Death releases every
// held resource; further updates and transitions are suppressed.
func (a *Agent) TakeDamage(w *World, amount float64, from Vec2) {
	if !a.Alive() {
		return
	}
	a.Health -= amount
	a.lastHitDir = from.Sub(a.Pos).Norm()
	a.pendingDamage++
	if a.Health <= 0 {
		a.Health = 0
		a.die(w)
	}
}

// ConsumeDamage returns the number of hits taken since the last call and
// resets the counter. States call this once per Update so an interrupt is
// observed exactly once and never lost.
func (a *Agent) ConsumeDamage() int {
	n := a.pendingDamage
	a.pendingDamage = 0
	return n
}

// LastHitDir returns the direction toward the most recent shooter.
func (a *Agent) LastHitDir() Vec2 { return a.lastHitDir }

func (a *Agent) die(w *World) {
	if w != nil {
		w.Tiles.Release(a.ID)
		w.noteDeath(a)
	}
	if a.Mover != nil {
		a.Mover.Stop()
	}
	a.exposed = false
}

// EffectiveSpeed is the agent's base walk speed in px/s; states modulate
// it through the mover's speed scale.
func (a *Agent) EffectiveSpeed() float64 { return a.Stats.Speed }

// coverSearchParams assembles the seeker-dependent scoring inputs.
func (a *Agent) coverSearchParams() SearchParams {
	p := SearchParams{
		Team:        a.Team,
		Aggression:  a.Posture.Aggression(),
		WeaponRange: a.Weapon.Profile.Range,
	}
	if a.Squad != nil {
		if leader := a.Squad.Leader(); leader != nil {
			p.HasLeader = true
			p.LeaderPos = leader.Pos
			p.IsLeader = leader == a
		}
		if rally, ok := a.Squad.RallyPoint(); ok {
			p.HasRally = true
			p.RallyPoint = rally
		}
	}
	return p
}

// trackTile records tile changes so PrevTile stays one step behind.
func (a *Agent) trackTile() {
	t := a.Tile()
	if t != a.curTile {
		a.prevTile = a.curTile
		a.curTile = t
	}
}
