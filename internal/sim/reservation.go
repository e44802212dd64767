package sim

import "math"

// tileHold is the ledger entry for one tile: who stands on it and who is
// en route to it. Either can be empty.
type tileHold struct {
	occupant AgentID
	reserver AgentID
}

// TileReservationTable is the exclusive-occupancy ledger. At most one
// occupant and one reserver per tile; each agent holds at most one occupied
// tile and one reservation at a time. Contention is first-come-first-served
// within a tick.
type TileReservationTable struct {
	holds    map[TileCoord]*tileHold
	occupied map[AgentID]TileCoord
	reserved map[AgentID]TileCoord
	alive    func(AgentID) bool
}

// NewTileReservationTable builds an empty ledger. alive answers whether an
// agent id still refers to a living agent; stale holders are treated as
// absent and cleaned by Sweep.
func NewTileReservationTable(alive func(AgentID) bool) *TileReservationTable {
	if alive == nil {
		alive = func(AgentID) bool { return true }
	}
	return &TileReservationTable{
		holds:    make(map[TileCoord]*tileHold),
		occupied: make(map[AgentID]TileCoord),
		reserved: make(map[AgentID]TileCoord),
		alive:    alive,
	}
}

func (tr *TileReservationTable) hold(t TileCoord) *tileHold {
	h := tr.holds[t]
	if h == nil {
		h = &tileHold{occupant: NoAgent, reserver: NoAgent}
		tr.holds[t] = h
	}
	return h
}

// Occupy claims a tile for standing. A different live occupant or reserver
// blocks the claim; the agent's previous occupancy and any reservation it
// held (on this tile or elsewhere) are released on success.
func (tr *TileReservationTable) Occupy(a AgentID, t TileCoord) bool {
	h := tr.hold(t)
	if h.occupant != NoAgent && h.occupant != a && tr.alive(h.occupant) {
		return false
	}
	if h.reserver != NoAgent && h.reserver != a && tr.alive(h.reserver) {
		return false
	}
	if prev, ok := tr.occupied[a]; ok && prev != t {
		tr.dropOccupant(a, prev)
	}
	if rt, ok := tr.reserved[a]; ok {
		tr.dropReserver(a, rt)
	}
	h.occupant = a
	h.reserver = NoAgent
	tr.occupied[a] = t
	return true
}

// Reserve claims a tile for an agent en route to it. Blocked by a different
// live occupant or reserver; replaces the agent's previous reservation.
func (tr *TileReservationTable) Reserve(a AgentID, t TileCoord) bool {
	h := tr.hold(t)
	if h.occupant != NoAgent && h.occupant != a && tr.alive(h.occupant) {
		return false
	}
	if h.reserver != NoAgent && h.reserver != a && tr.alive(h.reserver) {
		return false
	}
	if prev, ok := tr.reserved[a]; ok && prev != t {
		tr.dropReserver(a, prev)
	}
	h.reserver = a
	tr.reserved[a] = t
	return true
}

// Release frees everything the agent holds. Releasing an agent that holds
// nothing is a no-op.
func (tr *TileReservationTable) Release(a AgentID) {
	if t, ok := tr.occupied[a]; ok {
		tr.dropOccupant(a, t)
	}
	if t, ok := tr.reserved[a]; ok {
		tr.dropReserver(a, t)
	}
}

// ReleaseReservation frees only the agent's en-route claim, keeping any
// occupancy. Used when a move is abandoned mid-transit.
func (tr *TileReservationTable) ReleaseReservation(a AgentID) {
	if t, ok := tr.reserved[a]; ok {
		tr.dropReserver(a, t)
	}
}

func (tr *TileReservationTable) dropOccupant(a AgentID, t TileCoord) {
	if h := tr.holds[t]; h != nil && h.occupant == a {
		h.occupant = NoAgent
		if h.reserver == NoAgent {
			delete(tr.holds, t)
		}
	}
	delete(tr.occupied, a)
}

func (tr *TileReservationTable) dropReserver(a AgentID, t TileCoord) {
	if h := tr.holds[t]; h != nil && h.reserver == a {
		h.reserver = NoAgent
		if h.occupant == NoAgent {
			delete(tr.holds, t)
		}
	}
	delete(tr.reserved, a)
}

// IsAvailable reports whether a tile can be claimed by someone other than
// exclude. Dead holders do not block.
func (tr *TileReservationTable) IsAvailable(t TileCoord, exclude AgentID) bool {
	h := tr.holds[t]
	if h == nil {
		return true
	}
	if h.occupant != NoAgent && h.occupant != exclude && tr.alive(h.occupant) {
		return false
	}
	if h.reserver != NoAgent && h.reserver != exclude && tr.alive(h.reserver) {
		return false
	}
	return true
}

// OccupantOf returns the live occupant of a tile, if any.
func (tr *TileReservationTable) OccupantOf(t TileCoord) (AgentID, bool) {
	h := tr.holds[t]
	if h == nil || h.occupant == NoAgent || !tr.alive(h.occupant) {
		return NoAgent, false
	}
	return h.occupant, true
}

// HeldBy returns the tile an agent occupies, if any.
func (tr *TileReservationTable) HeldBy(a AgentID) (TileCoord, bool) {
	t, ok := tr.occupied[a]
	return t, ok
}

// ReservedBy returns the tile an agent has reserved, if any.
func (tr *TileReservationTable) ReservedBy(a AgentID) (TileCoord, bool) {
	t, ok := tr.reserved[a]
	return t, ok
}

// FindNearestAvailable rings outward from t and returns the closest
// available tile within maxRadius tiles, which may be t itself.
func (tr *TileReservationTable) FindNearestAvailable(t TileCoord, exclude AgentID, maxRadius int) (TileCoord, bool) {
	if tr.IsAvailable(t, exclude) {
		return t, true
	}
	for r := 1; r <= maxRadius; r++ {
		best := TileCoord{}
		bestDist := math.MaxFloat64
		found := false
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if absInt(dx) != r && absInt(dy) != r {
					continue
				}
				c := TileCoord{t.X + dx, t.Y + dy}
				if !tr.IsAvailable(c, exclude) {
					continue
				}
				d := t.DistTo(c)
				if d < bestDist {
					best, bestDist, found = c, d, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return TileCoord{}, false
}

// Sweep removes entries held by agents that are no longer alive.
func (tr *TileReservationTable) Sweep() {
	for a, t := range tr.occupied {
		if !tr.alive(a) {
			tr.dropOccupant(a, t)
		}
	}
	for a, t := range tr.reserved {
		if !tr.alive(a) {
			tr.dropReserver(a, t)
		}
	}
}
