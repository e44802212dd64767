package sim

// SuppressState pours rapid, wild fire at a dug-in target's cover so the
// target stays down while squadmates move. Entry is gated by a fire-line
// check: a line stopped by anything other than the target's own cover
// means this position cannot suppress at all.
type SuppressState struct {
	target AgentID

	abort       bool // entry validation failed; leave on first Update
	elapsed     float64
	fireTimer   float64
	exposedTime float64
}

func NewSuppressState(target AgentID) *SuppressState {
	return &SuppressState{target: target}
}

func (s *SuppressState) Kind() StateKind { return StateSuppress }

func (s *SuppressState) TargetID() AgentID { return s.target }

func (s *SuppressState) Enter(a *Agent, w *World) {
	target := liveTarget(w, s.target)
	if target == nil {
		s.abort = true
		return
	}
	origin := ShotOrigin(w.Covers, a, target.Pos)
	if ClassifyShotLine(w.Grid, w.Covers, origin, target.Pos) == ShotBlockedEnRoute {
		// Own or intervening cover blocks the lane, not the target's.
		w.note(a, "shot", "suppress_blocked", "own line blocked", 0)
		s.abort = true
		return
	}
	if a.Squad != nil {
		a.Squad.NoteSuppressing(s.target, w.Now()+w.Tun.SuppressMaxTime)
	}
	a.setExposed(w, true)
}

func (s *SuppressState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	target := liveTarget(w, s.target)
	if s.abort || target == nil {
		s.leave(a, w, target)
		return
	}

	if a.Threats.TotalThreat() > pinThreshold(a, w) {
		a.ChangeState(w, NewPinnedState())
		return
	}
	if a.Threats.TotalThreat() > w.Tun.SuppressAbortThreat*braveryScale(a.Stats.Bravery) {
		w.note(a, "shot", "suppress_abort", "incoming too heavy", a.Threats.TotalThreat())
		a.ChangeState(w, NewSeekCoverState(UrgencyHigh, s.target))
		return
	}
	if a.Weapon.Empty() {
		a.ChangeState(w, NewReloadState(s.target))
		return
	}

	// A target that stays presented past the grace window deserves aimed
	// fire instead.
	if target.Exposed() {
		s.exposedTime += dt
		if s.exposedTime > w.Tun.SuppressExposedExit {
			a.ChangeState(w, NewCombatState(s.target, true))
			return
		}
	} else {
		s.exposedTime = 0
	}

	s.elapsed += dt
	if s.elapsed >= w.Tun.SuppressMaxTime {
		a.ChangeState(w, NewCombatState(s.target, true))
		return
	}

	s.fireTimer -= dt
	if s.fireTimer <= 0 {
		s.fireTimer = w.Tun.ShotInterval / w.Tun.SuppressRateMult
		w.FireShot(a, target, w.Tun.SuppressSpreadMult)
	}
}

// leave is the no-target exit: pick up a new fight if one is visible,
// otherwise fall back to watching.
func (s *SuppressState) leave(a *Agent, w *World, target *Agent) {
	if t := w.ScanForTarget(a); t != nil {
		a.ChangeState(w, NewCombatState(t.ID, true))
		return
	}
	if s.abort && target != nil {
		a.ChangeState(w, NewOverwatchState(s.target, target.Pos))
		return
	}
	a.ChangeState(w, NewReadyState())
}

func (s *SuppressState) Exit(a *Agent, w *World) {}

// OverwatchState watches a last-known position from behind cover and snaps
// at the first exposure, with a reflex-scaled delay. Patience is bounded:
// an engaged squad with a passive watcher pushes it toward a real firing
// position or a flank.
type OverwatchState struct {
	target   AgentID
	watchPos Vec2

	reacting bool
	reaction float64
	patience float64
	rescan   float64
}

func NewOverwatchState(target AgentID, watchPos Vec2) *OverwatchState {
	return &OverwatchState{target: target, watchPos: watchPos}
}

func (s *OverwatchState) Kind() StateKind { return StateOverwatch }

func (s *OverwatchState) TargetID() AgentID { return s.target }

func (s *OverwatchState) Enter(a *Agent, w *World) {
	if w.Covers.HasCover(a.Tile()) {
		a.setExposed(w, false)
	}
	s.rescan = w.Tun.OverwatchRescanEvery
}

// OnPeek arms or disarms the snap reaction as the watched position's
// occupant shows and hides.
func (s *OverwatchState) OnPeek(a *Agent, w *World, ev Event) {
	other := w.AgentByID(ev.Agent)
	if other == nil || other.Team == a.Team {
		return
	}
	switch ev.Kind {
	case EventPeekStarted:
		watched := ev.Agent == s.target ||
			ev.Pos.DistTo(s.watchPos) <= 2*TileSize
		if !watched {
			return
		}
		s.target = ev.Agent
		if !s.reacting {
			s.reacting = true
			s.reaction = reactionTime(a, w)
		}
	case EventPeekStopped:
		if ev.Agent == s.target {
			s.reacting = false
		}
	}
}

func (s *OverwatchState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	if a.Threats.TotalThreat() > pinThreshold(a, w) {
		a.ChangeState(w, NewPinnedState())
		return
	}

	if target := liveTarget(w, s.target); target != nil && w.CanSee(a, target.Pos) {
		s.watchPos = target.Pos
	}

	if s.reacting {
		s.reaction -= dt
		if s.reaction <= 0 {
			s.reacting = false
			if target := liveTarget(w, s.target); target != nil && target.Exposed() {
				a.setExposed(w, true)
				w.FireShot(a, target, 1.0)
				a.ChangeState(w, NewCombatState(s.target, true))
				return
			}
		}
	}

	s.rescan -= dt
	if s.rescan <= 0 {
		s.rescan = w.Tun.OverwatchRescanEvery
		for _, e := range w.VisibleEnemies(a) {
			if !e.Exposed() {
				continue
			}
			s.target = e.ID
			s.watchPos = e.Pos
			if !s.reacting {
				s.reacting = true
				s.reaction = reactionTime(a, w)
			}
			break
		}
	}

	if a.Squad != nil && a.Squad.IsEngaged() {
		s.patience += dt
		if s.patience >= w.Tun.OverwatchPatience {
			s.patience = 0
			s.contribute(a, w)
		}
	} else {
		s.patience = 0
	}
}

// contribute ends a passive watch: find a real firing position, or flank,
// unless leadership anchors the agent in place. Failing both just resets
// the watch.
func (s *OverwatchState) contribute(a *Agent, w *World) {
	if fp, ok := FindFiringPosition(w.Grid, w.Tiles, a.Pos, s.watchPos,
		int(w.Tun.CoverSearchRadiusTiles), a.ID); ok && fp != a.Tile() {
		a.ChangeState(w, NewRepositionState(fp, s.target))
		return
	}
	anchored := a.Leads() && a.Squad.AliveCount()-1 >= w.Tun.LeaderAnchorSquadmates
	if anchored {
		return
	}
	if target := liveTarget(w, s.target); target != nil {
		if _, ok := FindFlankTile(w.Grid, w.Covers, w.Tiles, a, target, w.Tun); ok {
			a.ChangeState(w, NewFlankState(s.target))
		}
	}
}

func (s *OverwatchState) Exit(a *Agent, w *World) {}

// reactionTime is the exposure-to-snap delay, shortened by reflex down to
// a hard floor.
func reactionTime(a *Agent, w *World) float64 {
	r := w.Tun.OverwatchReactionBase - clamp(a.Stats.Reflex, 0, 10)/10*w.Tun.OverwatchReflexScale
	if r < w.Tun.OverwatchReactionMin {
		r = w.Tun.OverwatchReactionMin
	}
	return r
}
