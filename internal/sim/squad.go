package sim

// Squad groups agents under one leader for rally and contact bookkeeping.
// Membership is fixed at spawn; leadership passes down the roster as
// members die.
type Squad struct {
	ID      int
	Team    Team
	members []*Agent

	rally    Vec2
	hasRally bool

	everEngaged bool

	// target id -> sim time the suppression claim lapses
	suppressClaims map[AgentID]float64
}

func NewSquad(id int, team Team) *Squad {
	return &Squad{ID: id, Team: team, suppressClaims: make(map[AgentID]float64)}
}

func (s *Squad) Add(a *Agent) {
	a.Squad = s
	s.members = append(s.members, a)
}

func (s *Squad) Members() []*Agent { return s.members }

func (s *Squad) HasMember(id AgentID) bool {
	for _, m := range s.members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Leader returns the senior living member, nil once the squad is wiped.
func (s *Squad) Leader() *Agent {
	for _, m := range s.members {
		if m.Alive() {
			return m
		}
	}
	return nil
}

func (s *Squad) AliveCount() int {
	n := 0
	for _, m := range s.members {
		if m.Alive() {
			n++
		}
	}
	return n
}

func (s *Squad) SetRallyPoint(p Vec2) {
	s.rally = p
	s.hasRally = true
}

// RallyPoint falls back to the leader's position when none was ordered.
func (s *Squad) RallyPoint() (Vec2, bool) {
	if s.hasRally {
		return s.rally, true
	}
	if l := s.Leader(); l != nil {
		return l.Pos, true
	}
	return Vec2{}, false
}

// NoteContact marks the squad as having seen combat. The flag is sticky so
// late joiners to a fight inherit the squad's alert footing.
func (s *Squad) NoteContact() { s.everEngaged = true }

func (s *Squad) HasBeenEngaged() bool { return s.everEngaged }

// IsEngaged reports whether any living member is currently in a fighting
// state rather than merely moving or holding.
func (s *Squad) IsEngaged() bool {
	for _, m := range s.members {
		if !m.Alive() {
			continue
		}
		switch m.StateKind() {
		case StateCombat, StateSuppress, StateOverwatch, StateFlank, StateAdvance, StateSeekCover, StatePinned:
			return true
		}
	}
	return false
}

// IsUnderHeavyFire reports whether a third or more of the living members
// are pinned or registering active incoming fire.
func (s *Squad) IsUnderHeavyFire() bool {
	alive, hot := 0, 0
	for _, m := range s.members {
		if !m.Alive() {
			continue
		}
		alive++
		if m.StateKind() == StatePinned || m.Threats.IsUnderFire() {
			hot++
		}
	}
	return alive > 0 && hot*3 >= alive
}

// NoteSuppressing records that a member is laying suppressive fire on
// target until the given sim time. Flankers consult this before moving.
func (s *Squad) NoteSuppressing(target AgentID, until float64) {
	if cur, ok := s.suppressClaims[target]; !ok || until > cur {
		s.suppressClaims[target] = until
	}
}

func (s *Squad) IsTargetBeingSuppressed(target AgentID, now float64) bool {
	until, ok := s.suppressClaims[target]
	return ok && now < until
}

// Update expires lapsed suppression claims and refreshes contact state.
func (s *Squad) Update(now float64) {
	for id, until := range s.suppressClaims {
		if now >= until {
			delete(s.suppressClaims, id)
		}
	}
	if !s.everEngaged && s.IsEngaged() {
		s.everEngaged = true
	}
}
