package sim

// Urgency grades how badly an agent needs new cover; it sets the score
// improvement required before relocating is worth the exposure.
type Urgency int

const (
	UrgencyLow Urgency = iota
	UrgencyMedium
	UrgencyHigh
	UrgencyFlanked // current cover faces the wrong way: always move
)

func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyMedium:
		return "medium"
	case UrgencyHigh:
		return "high"
	case UrgencyFlanked:
		return "flanked"
	default:
		return "unknown"
	}
}

// ImproveThreshold is the score gain a candidate must offer over staying
// put. Flanked never consults it.
func (u Urgency) ImproveThreshold(tun *Tunables) float64 {
	switch u {
	case UrgencyHigh:
		return tun.CoverImproveHigh
	case UrgencyMedium:
		return tun.CoverImproveMedium
	default:
		return tun.CoverImproveLow
	}
}

// UrgencyFor grades the agent's current need for cover: Flanked when taking
// fire from a bearing its cover does not face, High under fire otherwise,
// Medium with residual threat, Low when quiet.
func UrgencyFor(a *Agent, w *World) Urgency {
	if a.Threats.IsUnderFire() {
		srcs := w.Covers.SourcesAt(a.Tile())
		if len(srcs) > 0 {
			for _, b := range a.Threats.ActiveThreats(w.Tun.UnderFireThreshold) {
				if _, _, ok := BestSourceAgainst(srcs, b.Dir, w.Tun.CoverAlignmentMin); !ok {
					return UrgencyFlanked
				}
			}
		}
		return UrgencyHigh
	}
	if a.Threats.TotalThreat() > 0 {
		return UrgencyMedium
	}
	return UrgencyLow
}

// SeekCoverState finds and moves to a better-covered tile. The search runs
// through the deferred request queue; a give-up timer bounds how long the
// agent will scramble before fighting in the open.
type SeekCoverState struct {
	urgency Urgency
	target  AgentID

	req    *PositionRequest
	giveUp float64

	moving   bool
	started  bool
	retry    float64
	destTile TileCoord
}

func NewSeekCoverState(urgency Urgency, target AgentID) *SeekCoverState {
	return &SeekCoverState{urgency: urgency, target: target}
}

func (s *SeekCoverState) Kind() StateKind { return StateSeekCover }

func (s *SeekCoverState) TargetID() AgentID { return s.target }

func (s *SeekCoverState) Enter(a *Agent, w *World) {
	a.setExposed(w, true)
	s.submit(a, w)
}

// threatPos picks what to hide from: the live target, else the strongest
// threat bearing projected out to a stand-in range.
func (s *SeekCoverState) threatPos(a *Agent, w *World) (Vec2, bool) {
	if t := liveTarget(w, s.target); t != nil {
		return t.Pos, true
	}
	if dir, ok := a.Threats.HighestThreatDirection(); ok {
		return a.Pos.Add(dir.Scale(w.Tun.ThreatProjectDistTiles * TileSize)), true
	}
	return Vec2{}, false
}

func (s *SeekCoverState) submit(a *Agent, w *World) {
	threat, ok := s.threatPos(a, w)
	if !ok {
		s.req = nil
		return
	}
	s.req = w.Requests.RequestCover(a.Pos, threat, a.coverSearchParams(),
		w.Tun.CoverSearchRadiusTiles*TileSize, a.ID)
}

func (s *SeekCoverState) Update(a *Agent, w *World, dt float64) {
	a.ConsumeDamage()

	if a.Threats.TotalThreat() > pinThreshold(a, w) {
		a.ChangeState(w, NewPinnedState())
		return
	}

	if s.moving {
		s.drive(a, w, dt)
		return
	}

	// Nothing to hide from: the call was degenerate, stand alert instead.
	if s.req == nil {
		a.ChangeState(w, NewReadyState())
		return
	}

	s.giveUp += dt
	switch s.req.State() {
	case RequestPending:
		if s.giveUp >= w.Tun.SeekCoverGiveUp {
			s.fightInOpen(a, w)
		}
	case RequestFailed:
		s.fightInOpen(a, w)
	case RequestReady:
		res, _ := s.req.Result()
		s.decide(a, w, res)
	}
}

// decide compares the found tile against staying put and either commits to
// the move or settles where it stands.
func (s *SeekCoverState) decide(a *Agent, w *World, res CoverResult) {
	threat, ok := s.threatPos(a, w)
	if !ok {
		// Threat evaporated while the search was queued.
		a.ChangeState(w, NewReadyState())
		return
	}
	move := s.urgency == UrgencyFlanked
	if !move {
		curScore := 0.0
		if cur, ok := w.Eval.ScorePositionForCover(a.Pos, threat, a.coverSearchParams()); ok {
			curScore = cur
		}
		move = res.Score-curScore >= s.urgency.ImproveThreshold(w.Tun)
	}
	if !move {
		// Current tile is close enough to the best on offer.
		a.ChangeState(w, NewCombatState(s.target, true))
		return
	}
	if !w.Tiles.Reserve(a.ID, res.Tile) {
		// Lost the race for the tile; search again.
		s.submit(a, w)
		return
	}
	w.note(a, "cover", "found", res.Tile.Center().String(), res.Score)
	s.destTile = res.Tile
	s.moving = true
	s.started = a.Mover.MoveTo(res.Pos)
	s.retry = w.Tun.MoveRetryInterval
}

// drive walks the committed move, retrying a stalled start and settling on
// arrival.
func (s *SeekCoverState) drive(a *Agent, w *World, dt float64) {
	if !s.started {
		s.retry -= dt
		s.giveUp += dt
		if s.giveUp >= w.Tun.MoveGiveUp {
			s.fightInOpen(a, w)
			return
		}
		if s.retry <= 0 {
			s.retry = w.Tun.MoveRetryInterval
			s.started = a.Mover.MoveTo(s.destTile.Center())
		}
		return
	}
	if a.Mover.IsMoving() {
		return
	}
	w.Tiles.Occupy(a.ID, a.Tile())
	a.fightingInOpen = false
	a.ChangeState(w, NewCombatState(s.target, true))
}

// fightInOpen is the no-cover fallback: mark the agent so Combat will not
// re-seek, and fight from right here.
func (s *SeekCoverState) fightInOpen(a *Agent, w *World) {
	a.fightingInOpen = true
	w.note(a, "cover", "give_up", "fighting in the open", 0)
	a.ChangeState(w, NewCombatState(s.target, true))
}

func (s *SeekCoverState) Exit(a *Agent, w *World) {
	if s.req != nil {
		s.req.Cancel()
	}
	if s.moving {
		if claimed, ok := w.Tiles.HeldBy(a.ID); !ok || claimed != s.destTile {
			w.Tiles.ReleaseReservation(a.ID)
		}
		if a.Mover.IsMoving() {
			a.Mover.Stop()
		}
	}
}
