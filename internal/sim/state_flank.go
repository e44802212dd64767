package sim

// FlankState moves for an angle the target's cover leaves open. The search
// excludes the seeker's previous tile so a flank never doubles back into
// the spot just vacated, and arrival re-verifies the fire line from the
// actual firing point before the engagement commits.
type FlankState struct {
	target AgentID
	dest   TileCoord

	moving   bool
	started  bool
	retry    float64
	giveUp   float64
	aborting bool
}

func NewFlankState(target AgentID) *FlankState {
	return &FlankState{target: target}
}

func (s *FlankState) Kind() StateKind { return StateFlank }

func (s *FlankState) TargetID() AgentID { return s.target }

func (s *FlankState) Enter(a *Agent, w *World) {
	a.setExposed(w, true)
	target := liveTarget(w, s.target)
	if target == nil {
		return
	}
	tile, ok := FindFlankTile(w.Grid, w.Covers, w.Tiles, a, target, w.Tun)
	if !ok || !w.Tiles.Reserve(a.ID, tile) {
		w.note(a, "move", "flank_abort", "no flank tile", 0)
		return
	}
	w.note(a, "move", "flank", tile.Center().String(), 0)
	s.dest = tile
	s.moving = true
	s.started = a.Mover.MoveToTile(tile)
	s.retry = w.Tun.MoveRetryInterval
}

func (s *FlankState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	if a.Threats.TotalThreat() > pinThreshold(a, w) {
		a.ChangeState(w, NewPinnedState())
		return
	}

	if s.aborting {
		if !a.Mover.IsMoving() {
			w.Tiles.Occupy(a.ID, a.Tile())
			s.abortWatch(a, w)
		}
		return
	}

	target := liveTarget(w, s.target)
	if target == nil {
		if t := w.ScanForTarget(a); t != nil {
			a.ChangeState(w, NewCombatState(t.ID, false))
			return
		}
		a.Mover.Stop()
		a.ChangeState(w, NewReadyState())
		return
	}

	// No route was found at entry: watching is the fallback.
	if !s.moving {
		s.abortWatch(a, w)
		return
	}

	threshold := w.Tun.FlankAbortThreatBase * braveryScale(a.Stats.Bravery)
	if a.Threats.TotalThreat() > threshold {
		w.note(a, "move", "flank_abort", "threat en route", a.Threats.TotalThreat())
		a.Mover.StopAtNearestTile()
		s.aborting = true
		return
	}

	if !s.started {
		s.giveUp += dt
		if s.giveUp >= w.Tun.MoveGiveUp {
			s.abortWatch(a, w)
			return
		}
		s.retry -= dt
		if s.retry <= 0 {
			s.retry = w.Tun.MoveRetryInterval
			s.started = a.Mover.MoveToTile(s.dest)
		}
		return
	}

	if a.Mover.IsMoving() {
		return
	}

	// Arrived. The tile passed a map-level sight check when chosen; what
	// counts now is the true line from the firing point.
	w.Tiles.Occupy(a.ID, a.Tile())
	if CanFireOn(w.Grid, w.Covers, a, target.Pos) {
		w.note(a, "move", "flank_done", "firing line confirmed", 0)
		a.ChangeState(w, NewCombatState(s.target, true))
		return
	}
	w.note(a, "move", "flank_abort", "no line on arrival", 0)
	s.abortWatch(a, w)
}

// abortWatch falls back to overwatch on the target's last position, or
// Ready when even that anchor is gone.
func (s *FlankState) abortWatch(a *Agent, w *World) {
	if target := liveTarget(w, s.target); target != nil {
		a.ChangeState(w, NewOverwatchState(s.target, target.Pos))
		return
	}
	a.ChangeState(w, NewReadyState())
}

func (s *FlankState) Exit(a *Agent, w *World) {
	if s.moving {
		if claimed, ok := w.Tiles.HeldBy(a.ID); !ok || claimed != s.dest {
			w.Tiles.ReleaseReservation(a.ID)
		}
		if a.Mover.IsMoving() {
			a.Mover.Stop()
		}
	}
}
