package sim

import "github.com/veldtsim/fireline/internal/doctrine"

// CombatPhase is the sub-state of Combat only: the peek-fire-duck cycle an
// engaged agent runs behind its fighting position.
type CombatPhase int

const (
	PhaseSeekingCover CombatPhase = iota
	PhaseInCover
	PhaseStanding
	PhaseAiming
	PhaseShooting
	PhaseDucking
)

func (p CombatPhase) String() string {
	switch p {
	case PhaseSeekingCover:
		return "seeking_cover"
	case PhaseInCover:
		return "in_cover"
	case PhaseStanding:
		return "standing"
	case PhaseAiming:
		return "aiming"
	case PhaseShooting:
		return "shooting"
	case PhaseDucking:
		return "ducking"
	default:
		return "unknown"
	}
}

// CombatState runs the engagement cycle against one target: settle at a
// fighting position, then loop stand, aim, shoot, duck. Damage jumps the
// cycle to Ducking from any non-seeking phase, within the same tick.
type CombatState struct {
	target  AgentID
	atCover bool // entered already settled at a fighting position

	phase      CombatPhase
	phaseTimer float64
	sinceShot  float64
	coverCheck float64
	commit     float64 // abandon threshold stays doubled while positive
	rescan     float64
}

// NewCombatState builds the engagement state. alreadyAtCover marks the
// current tile as the fighting position; without it the first Update hands
// off to cover seeking.
func NewCombatState(target AgentID, alreadyAtCover bool) *CombatState {
	return &CombatState{target: target, atCover: alreadyAtCover, phase: PhaseSeekingCover}
}

func (c *CombatState) Kind() StateKind { return StateCombat }

func (c *CombatState) TargetID() AgentID { return c.target }

// Phase exposes the nested phase for reports and tests.
func (c *CombatState) Phase() CombatPhase { return c.phase }

func (c *CombatState) Enter(a *Agent, w *World) {
	w.noteSquadContact(a)
	if c.atCover {
		c.settle(a, w)
	}
}

// settle treats the current tile as the fighting position and starts the
// in-cover cycle. The commit timer resists immediate re-abandonment.
func (c *CombatState) settle(a *Agent, w *World) {
	c.phase = PhaseInCover
	c.commit = w.Tun.CommitDuration
	c.coverCheck = w.Tun.CoverCheckInterval
	c.sinceShot = w.Tun.ShotInterval // first stand is not delayed
	c.duck(a, w)
}

// duck drops exposure when the tile actually offers something to duck
// behind. In the open the agent stays presented no matter the phase.
func (c *CombatState) duck(a *Agent, w *World) {
	if w.Covers.HasCover(a.Tile()) {
		a.setExposed(w, false)
	}
}

// ForceReposition jumps the phase machine back to cover seeking, used when
// an external order invalidates the current position.
func (c *CombatState) ForceReposition(a *Agent, w *World) {
	a.fightingInOpen = false
	c.phase = PhaseSeekingCover
}

func (c *CombatState) Update(a *Agent, w *World, dt float64) {
	if a.ConsumeDamage() > 0 && c.phase != PhaseSeekingCover {
		c.phase = PhaseDucking
		c.phaseTimer = w.Tun.DuckDuration
		c.duck(a, w)
	}

	if a.Threats.TotalThreat() > pinThreshold(a, w) {
		a.ChangeState(w, NewPinnedState())
		return
	}

	c.sinceShot += dt
	if c.commit > 0 {
		c.commit -= dt
	}

	switch c.phase {
	case PhaseSeekingCover:
		if a.fightingInOpen {
			// No cover exists for this fight; settle where we stand.
			c.settle(a, w)
			return
		}
		a.ChangeState(w, NewSeekCoverState(UrgencyFor(a, w), c.target))
	case PhaseInCover:
		c.updateInCover(a, w, dt)
	case PhaseStanding:
		c.phaseTimer -= dt
		if c.phaseTimer <= 0 {
			c.phase = PhaseAiming
			c.phaseTimer = aimDuration(a, w)
		}
	case PhaseAiming:
		c.phaseTimer -= dt
		if c.phaseTimer <= 0 {
			c.phase = PhaseShooting
			c.phaseTimer = w.Tun.ShootDuration
			c.fire(a, w)
		}
	case PhaseDucking:
		c.phaseTimer -= dt
		if c.phaseTimer <= 0 {
			c.phase = PhaseInCover
		}
	case PhaseShooting:
		c.phaseTimer -= dt
		if c.phaseTimer <= 0 {
			c.phase = PhaseDucking
			c.phaseTimer = w.Tun.DuckDuration
			c.duck(a, w)
		}
	}
}

// updateInCover is the hub of the cycle: re-verify the position, keep the
// target fresh, and decide when the next stand starts.
func (c *CombatState) updateInCover(a *Agent, w *World, dt float64) {
	c.coverCheck -= dt
	if c.coverCheck <= 0 {
		c.coverCheck = w.Tun.CoverCheckInterval
		if c.shouldAbandon(a, w) {
			w.note(a, "cover", "abandon", "position overwhelmed", 0)
			a.fightingInOpen = false
			a.ChangeState(w, NewSeekCoverState(UrgencyHigh, c.target))
			return
		}
	}

	target := liveTarget(w, c.target)
	if target == nil {
		c.rescan -= dt
		if c.rescan > 0 {
			return
		}
		c.rescan = w.Tun.ReadyScanInterval
		if t := w.ScanForTarget(a); t != nil {
			c.target = t.ID
			return
		}
		if a.Squad != nil && a.Squad.IsEngaged() {
			// Hold the position while the squad still fights.
			return
		}
		a.ChangeState(w, NewReadyState())
		return
	}

	if a.Weapon.Empty() {
		a.ChangeState(w, NewReloadState(c.target))
		return
	}
	if c.sinceShot < w.Tun.ShotInterval {
		return
	}

	if TargetFullyCovered(w.Covers, a.Pos, target, w.Tun.CoverAlignmentMin) ||
		!CanFireOn(w.Grid, w.Covers, a, target.Pos) {
		c.decideStuck(a, w, target)
		return
	}

	c.phase = PhaseStanding
	c.phaseTimer = w.Tun.StandDuration
	a.setExposed(w, true)
}

// shouldAbandon applies the stay-or-go rule: leave only when not one active
// threat direction is faced by this tile's cover and the accumulated
// uncovered threat beats the bravery-scaled (and commit-doubled) threshold.
func (c *CombatState) shouldAbandon(a *Agent, w *World) bool {
	srcs := w.Covers.SourcesAt(a.Tile())
	uncovered := 0.0
	for _, b := range a.Threats.ActiveThreats(0) {
		if _, _, ok := BestSourceAgainst(srcs, b.Dir, w.Tun.CoverAlignmentMin); ok {
			return false
		}
		uncovered += b.Magnitude
	}
	return uncovered > AbandonThreshold(w.Tun, a.Stats.Bravery, c.commit > 0)
}

// decideStuck consults the doctrine policy when the target cannot be hit
// from here: flank for a new angle, suppress their cover, push, or hold
// overwatch on their position.
func (c *CombatState) decideStuck(a *Agent, w *World, target *Agent) {
	q := doctrine.Query{
		Bravery:    clamp(a.Stats.Bravery, 0, 10) / 10,
		Aggression: a.Posture.Aggression(),
		AmmoFrac:   a.Weapon.AmmoFrac(),
		UnderFire:  a.Threats.IsUnderFire(),
	}
	if a.Squad != nil {
		q.TargetSuppressed = a.Squad.IsTargetBeingSuppressed(target.ID, w.Now())
		q.LeaderAnchored = a.Leads() && a.Squad.AliveCount()-1 >= w.Tun.LeaderAnchorSquadmates
		for _, m := range a.Squad.Members() {
			if m.Alive() {
				q.SquadThreat += m.Threats.TotalThreat()
			}
		}
	}
	_, flankOK := FindFlankTile(w.Grid, w.Covers, w.Tiles, a, target, w.Tun)
	q.FlankAvailable = flankOK && !q.LeaderAnchored

	choice := w.Policy.Choose(q)
	w.note(a, "state", "stuck_choice", choice.String(), 0)
	switch choice {
	case doctrine.ChoiceFlank:
		if flankOK {
			a.ChangeState(w, NewFlankState(c.target))
			return
		}
		a.ChangeState(w, NewOverwatchState(c.target, target.Pos))
	case doctrine.ChoiceSuppress:
		a.ChangeState(w, NewSuppressState(c.target))
	case doctrine.ChoiceAdvance:
		a.ChangeState(w, NewAdvanceState(c.target))
	default:
		a.ChangeState(w, NewOverwatchState(c.target, target.Pos))
	}
}

func (c *CombatState) fire(a *Agent, w *World) {
	target := liveTarget(w, c.target)
	if target == nil {
		return
	}
	w.FireShot(a, target, 1.0)
	c.sinceShot = 0
}

func (c *CombatState) Exit(a *Agent, w *World) {}

// aimDuration shortens the aim hold as accuracy rises, floored so even the
// best shot spends a beat on the sights.
func aimDuration(a *Agent, w *World) float64 {
	d := w.Tun.AimDurationBase - clamp(a.Stats.Accuracy, 0, 10)/10*w.Tun.AimAccuracyScale
	if d < w.Tun.AimDurationMin {
		d = w.Tun.AimDurationMin
	}
	return d
}
