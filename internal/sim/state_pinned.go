package sim

// pinThreshold is the total threat past which an agent's nerve breaks,
// scaled by bravery.
func pinThreshold(a *Agent, w *World) float64 {
	return w.Tun.PinThreatBase * braveryScale(a.Stats.Bravery)
}

// pinnedPeekSpreadMult widens the snap shot risked from under fire.
const pinnedPeekSpreadMult = 1.5

// PinnedState locks movement under overwhelming fire. Above the severe
// band the agent stays tucked; in the moderate band it risks short snap
// peeks on a bravery-modulated random interval. Any damage during a peek
// re-ducks instantly.
type PinnedState struct {
	peekTimer float64
	peeking   bool
	peekLeft  float64
}

func NewPinnedState() *PinnedState { return &PinnedState{} }

func (s *PinnedState) Kind() StateKind { return StatePinned }

func (s *PinnedState) Enter(a *Agent, w *World) {
	a.Mover.Stop()
	a.setExposed(w, false)
	s.rollPeek(a, w)
	w.note(a, "threat", "pinned", "", a.Threats.TotalThreat())
}

// rollPeek draws the next peek delay. Braver agents work up the nerve
// faster.
func (s *PinnedState) rollPeek(a *Agent, w *World) {
	span := w.Tun.PeekIntervalMax - w.Tun.PeekIntervalMin
	s.peekTimer = (w.Tun.PeekIntervalMin + w.Rng.Float64()*span) / braveryScale(a.Stats.Bravery)
}

func (s *PinnedState) Update(a *Agent, w *World, dt float64) {
	hit := a.ConsumeDamage() > 0
	if hit {
		if s.peeking {
			s.stopPeek(a, w)
		}
		s.rollPeek(a, w)
	}

	total := a.Threats.TotalThreat()
	base := pinThreshold(a, w)

	if total < base*w.Tun.UnpinFactor {
		s.recover(a, w)
		return
	}

	if s.peeking {
		s.peekLeft -= dt
		if s.peekLeft <= 0 {
			s.stopPeek(a, w)
			s.rollPeek(a, w)
		}
		return
	}

	// Severe band: heads down, the peek clock does not run.
	if total >= base*w.Tun.PinSevereFactor {
		return
	}

	s.peekTimer -= dt
	if s.peekTimer <= 0 {
		s.startPeek(a, w)
	}
}

func (s *PinnedState) startPeek(a *Agent, w *World) {
	s.peeking = true
	s.peekLeft = w.Tun.PeekDuration
	a.setExposed(w, true)
	if target := w.ScanForTarget(a); target != nil && !a.Weapon.Empty() {
		w.FireShot(a, target, pinnedPeekSpreadMult)
	}
}

func (s *PinnedState) stopPeek(a *Agent, w *World) {
	s.peeking = false
	a.setExposed(w, false)
}

// recover leaves Pinned the moment threat falls under the unpin band:
// Combat when an enemy is in view, Moving when fresh cover is worth the
// sprint, Ready otherwise.
func (s *PinnedState) recover(a *Agent, w *World) {
	w.note(a, "threat", "unpinned", "", a.Threats.TotalThreat())
	if target := w.ScanForTarget(a); target != nil {
		a.ChangeState(w, NewCombatState(target.ID, w.Covers.HasCover(a.Tile())))
		return
	}
	if dir, ok := a.Threats.HighestThreatDirection(); ok {
		threat := a.Pos.Add(dir.Scale(w.Tun.ThreatProjectDistTiles * TileSize))
		if res, ok := w.Eval.FindBestCover(a.Pos, threat, a.coverSearchParams(),
			w.Tun.CoverSearchRadiusTiles*TileSize, a.ID); ok && res.Tile != a.Tile() {
			a.ChangeState(w, NewMovingState(res.Pos))
			return
		}
	}
	a.ChangeState(w, NewReadyState())
}

func (s *PinnedState) Exit(a *Agent, w *World) {}

// ReloadState swaps magazines behind whatever protection is at hand.
// Movement locks for the duration; crossing the pin threshold mid-reload
// breaks the agent into Pinned with the magazine unfinished.
type ReloadState struct {
	target AgentID
	left   float64
}

func NewReloadState(target AgentID) *ReloadState {
	return &ReloadState{target: target}
}

func (s *ReloadState) Kind() StateKind { return StateReload }

func (s *ReloadState) TargetID() AgentID { return s.target }

func (s *ReloadState) Enter(a *Agent, w *World) {
	a.Mover.Stop()
	if w.Covers.HasCover(a.Tile()) {
		a.setExposed(w, false)
	}
	s.left = a.Weapon.Profile.ReloadTime
	w.note(a, "shot", "reload", "", s.left)
}

func (s *ReloadState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	if a.Threats.TotalThreat() > pinThreshold(a, w) {
		a.ChangeState(w, NewPinnedState())
		return
	}

	s.left -= dt
	if s.left > 0 {
		return
	}
	a.Weapon.Refill()
	if target := liveTarget(w, s.target); target != nil {
		a.ChangeState(w, NewCombatState(target.ID, true))
		return
	}
	if target := w.ScanForTarget(a); target != nil {
		a.ChangeState(w, NewCombatState(target.ID, true))
		return
	}
	a.ChangeState(w, NewReadyState())
}

func (s *ReloadState) Exit(a *Agent, w *World) {}
