package sim

// StateKind enumerates the closed set of behavior states.
type StateKind int

const (
	StateIdle StateKind = iota
	StateReady
	StateMoving
	StateCombat
	StateSeekCover
	StateSuppress
	StateOverwatch
	StateFlank
	StateReposition
	StatePinned
	StateReload
	StateAdvance
)

func (k StateKind) String() string {
	switch k {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateMoving:
		return "moving"
	case StateCombat:
		return "combat"
	case StateSeekCover:
		return "seek_cover"
	case StateSuppress:
		return "suppress"
	case StateOverwatch:
		return "overwatch"
	case StateFlank:
		return "flank"
	case StateReposition:
		return "reposition"
	case StatePinned:
		return "pinned"
	case StateReload:
		return "reload"
	case StateAdvance:
		return "advance"
	default:
		return "unknown"
	}
}

// BehaviorState is one variant of the per-agent machine. Each variant holds
// only its own private timers; all side effects go through the injected
// services on the world.
type BehaviorState interface {
	Kind() StateKind
	Enter(a *Agent, w *World)
	Update(a *Agent, w *World, dt float64)
	Exit(a *Agent, w *World)
}

// StateMachine drives Enter/Update/Exit for one agent. Transitions are
// always accepted; the states themselves guard invalid requests.
type StateMachine struct {
	current BehaviorState
}

// Kind returns the current state's kind.
func (m *StateMachine) Kind() StateKind {
	if m.current == nil {
		return StateIdle
	}
	return m.current.Kind()
}

// Current exposes the live state variant, mainly for tests and reports.
func (m *StateMachine) Current() BehaviorState { return m.current }

// Tick runs one Update on the current state. A dead agent gets nothing:
// no updates, no transitions.
func (m *StateMachine) Tick(a *Agent, w *World, dt float64) {
	if !a.Alive() || m.current == nil {
		return
	}
	m.current.Update(a, w, dt)
}

// ChangeState exits the current state, installs next, and enters it.
// Suppressed entirely once the agent is dead.
func (a *Agent) ChangeState(w *World, next BehaviorState) {
	if !a.Alive() || next == nil {
		return
	}
	m := &a.machine
	prev := m.Kind()
	if m.current != nil {
		m.current.Exit(a, w)
	}
	m.current = next
	if w != nil {
		w.noteTransition(a, prev, next.Kind())
	}
	next.Enter(a, w)
}
