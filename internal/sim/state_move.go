package sim

// combatMoveSpreadMult widens fire taken on the move.
const combatMoveSpreadMult = 2.0

// MovingState walks the agent toward a destination. A stalled start is
// retried on an interval; lack of positional progress is treated as
// arrival rather than an error. When the situation allows, the move
// becomes a combat move: half speed, opportunistic fire en route.
type MovingState struct {
	dest    Vec2
	started bool
	retry   float64
	giveUp  float64

	lastPos   Vec2
	stuckTime float64

	fireTimer float64
}

func NewMovingState(dest Vec2) *MovingState {
	return &MovingState{dest: dest}
}

func (s *MovingState) Kind() StateKind { return StateMoving }

func (s *MovingState) Enter(a *Agent, w *World) {
	a.setExposed(w, true)
	w.Tiles.Reserve(a.ID, WorldToTile(s.dest))
	s.started = a.Mover.MoveTo(s.dest)
	s.retry = w.Tun.MoveRetryInterval
	s.lastPos = a.Pos
}

func (s *MovingState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	if a.Threats.TotalThreat() > pinThreshold(a, w) {
		a.ChangeState(w, NewPinnedState())
		return
	}

	if !s.started {
		s.giveUp += dt
		if s.giveUp >= w.Tun.MoveGiveUp {
			s.arrive(a, w)
			return
		}
		s.retry -= dt
		if s.retry <= 0 {
			s.retry = w.Tun.MoveRetryInterval
			s.started = a.Mover.MoveTo(s.dest)
		}
		return
	}

	if !a.Mover.IsMoving() {
		s.arrive(a, w)
		return
	}

	// Stuck detection: no progress past an epsilon for the timeout reads
	// as arrival, wherever we are.
	if a.Pos.DistTo(s.lastPos) < w.Tun.StuckEpsilon {
		s.stuckTime += dt
		if s.stuckTime >= w.Tun.StuckTimeout {
			w.note(a, "move", "stuck", "treating as arrival", 0)
			a.Mover.Stop()
			s.arrive(a, w)
			return
		}
	} else {
		s.stuckTime = 0
		s.lastPos = a.Pos
	}

	s.combatMove(a, w, dt)
}

// combatMove slows the walk and squeezes off shots en route when posture
// or a quiet field allows it and the magazine can afford it.
func (s *MovingState) combatMove(a *Agent, w *World, dt float64) {
	s.fireTimer -= dt
	eligible := a.Weapon.AmmoFrac() >= w.Tun.CombatMoveMinAmmo &&
		(a.Posture == PostureAggressive || a.Threats.TotalThreat() < w.Tun.CombatMoveCalmThreat)
	if !eligible {
		a.Mover.SetSpeedScale(1)
		return
	}
	target := w.ScanForTarget(a)
	if target == nil {
		a.Mover.SetSpeedScale(1)
		return
	}
	a.Mover.SetSpeedScale(w.Tun.CombatMoveSpeed)
	if s.fireTimer <= 0 {
		s.fireTimer = w.Tun.CombatMoveFireEvery
		w.FireShot(a, target, combatMoveSpreadMult)
	}
}

// arrive claims the tile and picks what comes next: a visible target means
// Combat; an engaged squad means Combat anyway so the fight can be joined
// from a proper position; otherwise stand down to Ready or Idle.
func (s *MovingState) arrive(a *Agent, w *World) {
	w.Tiles.Occupy(a.ID, a.Tile())
	if target := w.ScanForTarget(a); target != nil {
		a.ChangeState(w, NewCombatState(target.ID, false))
		return
	}
	if a.Squad != nil && a.Squad.IsEngaged() {
		a.ChangeState(w, NewCombatState(NoAgent, false))
		return
	}
	if a.Squad != nil && a.Squad.HasBeenEngaged() {
		a.ChangeState(w, NewReadyState())
		return
	}
	a.ChangeState(w, NewIdleState())
}

func (s *MovingState) Exit(a *Agent, w *World) {
	a.Mover.SetSpeedScale(1)
	if claimed, ok := w.Tiles.HeldBy(a.ID); !ok || claimed != WorldToTile(s.dest) {
		w.Tiles.ReleaseReservation(a.ID)
	}
	if a.Mover.IsMoving() {
		a.Mover.Stop()
	}
}

// RepositionState is a committed walk to a pre-selected fighting position.
// Threat past a bravery-scaled cutoff aborts the move at the nearest whole
// tile, never mid-transit, and turns into a cover search from there.
type RepositionState struct {
	dest   TileCoord
	target AgentID

	started  bool
	retry    float64
	giveUp   float64
	aborting bool
}

func NewRepositionState(dest TileCoord, target AgentID) *RepositionState {
	return &RepositionState{dest: dest, target: target}
}

func (s *RepositionState) Kind() StateKind { return StateReposition }

func (s *RepositionState) TargetID() AgentID { return s.target }

func (s *RepositionState) Enter(a *Agent, w *World) {
	a.setExposed(w, true)
	w.Tiles.Reserve(a.ID, s.dest)
	s.started = a.Mover.MoveToTile(s.dest)
	s.retry = w.Tun.MoveRetryInterval
}

func (s *RepositionState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	if s.aborting {
		if !a.Mover.IsMoving() {
			w.Tiles.Occupy(a.ID, a.Tile())
			a.ChangeState(w, NewSeekCoverState(UrgencyHigh, s.target))
		}
		return
	}

	threshold := w.Tun.RepositionAbortBase * braveryScale(a.Stats.Bravery)
	if a.Threats.TotalThreat() > threshold {
		w.note(a, "move", "reposition_abort", "threat en route", a.Threats.TotalThreat())
		a.Mover.StopAtNearestTile()
		s.aborting = true
		return
	}

	if !s.started {
		s.giveUp += dt
		if s.giveUp >= w.Tun.MoveGiveUp {
			a.ChangeState(w, NewSeekCoverState(UrgencyFor(a, w), s.target))
			return
		}
		s.retry -= dt
		if s.retry <= 0 {
			s.retry = w.Tun.MoveRetryInterval
			s.started = a.Mover.MoveToTile(s.dest)
		}
		return
	}

	if !a.Mover.IsMoving() {
		w.Tiles.Occupy(a.ID, a.Tile())
		a.ChangeState(w, NewCombatState(s.target, true))
	}
}

func (s *RepositionState) Exit(a *Agent, w *World) {
	if claimed, ok := w.Tiles.HeldBy(a.ID); !ok || claimed != s.dest {
		w.Tiles.ReleaseReservation(a.ID)
	}
	if a.Mover.IsMoving() {
		a.Mover.Stop()
	}
}

// AdvanceState is the aggressive push: half speed toward forward cover,
// suppressive fire on the interval while moving, hard-capped so the push
// always resolves into Combat.
type AdvanceState struct {
	target AgentID

	elapsed   float64
	fireTimer float64
	moving    bool
	destTile  TileCoord
}

func NewAdvanceState(target AgentID) *AdvanceState {
	return &AdvanceState{target: target}
}

func (s *AdvanceState) Kind() StateKind { return StateAdvance }

func (s *AdvanceState) TargetID() AgentID { return s.target }

func (s *AdvanceState) Enter(a *Agent, w *World) {
	a.setExposed(w, true)
	a.Mover.SetSpeedScale(w.Tun.AdvanceSpeedScale)

	target := liveTarget(w, s.target)
	if target == nil {
		return
	}
	// Forward cover: search from a point partway toward the target so the
	// result pulls the agent in, never away.
	toward := target.Pos.Sub(a.Pos).Norm()
	searchFrom := a.Pos.Add(toward.Scale(4 * TileSize))
	if res, ok := w.Eval.FindBestCover(searchFrom, target.Pos, a.coverSearchParams(),
		w.Tun.CoverSearchRadiusTiles*TileSize, a.ID); ok {
		if w.Tiles.Reserve(a.ID, res.Tile) && a.Mover.MoveTo(res.Pos) {
			s.destTile = res.Tile
			s.moving = true
			return
		}
	}
	// No forward cover: press straight at them.
	if a.Mover.MoveTo(target.Pos) {
		s.destTile = WorldToTile(target.Pos)
		s.moving = true
	}
}

func (s *AdvanceState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	s.elapsed += dt
	if s.elapsed >= w.Tun.AdvanceMaxTime {
		s.settle(a, w)
		return
	}

	target := liveTarget(w, s.target)
	if target == nil {
		if t := w.ScanForTarget(a); t != nil {
			s.target = t.ID
			return
		}
		a.Mover.Stop()
		a.ChangeState(w, NewReadyState())
		return
	}

	if a.Weapon.Empty() {
		a.ChangeState(w, NewReloadState(s.target))
		return
	}

	s.fireTimer -= dt
	if s.fireTimer <= 0 && CanFireOn(w.Grid, w.Covers, a, target.Pos) {
		s.fireTimer = w.Tun.AdvanceFireInterval
		w.FireShot(a, target, w.Tun.SuppressSpreadMult)
	}

	if s.moving && !a.Mover.IsMoving() {
		s.settle(a, w)
	}
}

// settle claims the current tile and forces the transition into Combat,
// whatever the push achieved.
func (s *AdvanceState) settle(a *Agent, w *World) {
	a.Mover.Stop()
	w.Tiles.Occupy(a.ID, a.Tile())
	a.ChangeState(w, NewCombatState(s.target, true))
}

func (s *AdvanceState) Exit(a *Agent, w *World) {
	a.Mover.SetSpeedScale(1)
	if claimed, ok := w.Tiles.HeldBy(a.ID); !ok || claimed != s.destTile {
		w.Tiles.ReleaseReservation(a.ID)
	}
	if a.Mover.IsMoving() {
		a.Mover.Stop()
	}
}
