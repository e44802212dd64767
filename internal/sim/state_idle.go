package sim

// liveTarget resolves a stored target id to a living agent, nil when the
// target is gone. States re-resolve every Update; a stale id means "target
// lost", never a fault.
func liveTarget(w *World, id AgentID) *Agent {
	if id == NoAgent {
		return nil
	}
	a := w.AgentByID(id)
	if a == nil || !a.Alive() {
		return nil
	}
	return a
}

// IdleState is the unaware baseline: stand, hold position, look around on
// a slow interval.
type IdleState struct {
	scanTimer float64
}

func NewIdleState() *IdleState { return &IdleState{} }

func (s *IdleState) Kind() StateKind { return StateIdle }

func (s *IdleState) Enter(a *Agent, w *World) {
	a.setExposed(w, true)
	a.fightingInOpen = false
}

func (s *IdleState) Update(a *Agent, w *World, dt float64) {
	hit := a.ConsumeDamage() > 0

	s.scanTimer -= dt
	if s.scanTimer > 0 && !hit && !a.Threats.IsUnderFire() {
		return
	}
	s.scanTimer = w.Tun.IdleScanInterval

	if target := w.ScanForTarget(a); target != nil {
		a.ChangeState(w, NewCombatState(target.ID, false))
		return
	}
	if hit || a.Threats.IsUnderFire() {
		a.ChangeState(w, NewSeekCoverState(UrgencyFor(a, w), NoAgent))
	}
}

func (s *IdleState) Exit(a *Agent, w *World) {}

// ReadyState is the combat-alert hold: weapon up, fast scans, settling
// back to Idle only after a stretch of quiet.
type ReadyState struct {
	scanTimer float64
	calmTime  float64
}

func NewReadyState() *ReadyState { return &ReadyState{} }

func (s *ReadyState) Kind() StateKind { return StateReady }

func (s *ReadyState) Enter(a *Agent, w *World) {
	a.setExposed(w, true)
	a.fightingInOpen = false
}

func (s *ReadyState) Update(a *Agent, w *World, dt float64) {
	hit := a.ConsumeDamage() > 0

	engaged := a.Squad != nil && a.Squad.IsEngaged()
	if a.Threats.TotalThreat() == 0 && !engaged {
		s.calmTime += dt
		if s.calmTime >= w.Tun.ReadyCalmTime {
			a.ChangeState(w, NewIdleState())
			return
		}
	} else {
		s.calmTime = 0
	}

	s.scanTimer -= dt
	if s.scanTimer > 0 && !hit && !a.Threats.IsUnderFire() {
		return
	}
	s.scanTimer = w.Tun.ReadyScanInterval

	if target := w.ScanForTarget(a); target != nil {
		a.ChangeState(w, NewCombatState(target.ID, false))
		return
	}
	if hit || a.Threats.IsUnderFire() {
		a.ChangeState(w, NewSeekCoverState(UrgencyFor(a, w), NoAgent))
	}
}

func (s *ReadyState) Exit(a *Agent, w *World) {}
