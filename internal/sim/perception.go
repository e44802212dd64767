package sim

// VisibleEnemies returns living enemies inside vision range that the agent
// has line of sight to, via the spatial index.
func (w *World) VisibleEnemies(a *Agent) []*Agent {
	r := w.Tun.VisionRangeTiles * TileSize
	enemies := w.Space.EnemiesWithin(a.Pos, r, a.Team)
	kept := enemies[:0]
	for _, e := range enemies {
		if w.Grid.LineOfSight(a.Pos, e.Pos) {
			kept = append(kept, e)
		}
	}
	return kept
}

// ScanForTarget registers every visible enemy on the agent's threat tracker
// and returns the priority target, nil when nothing is in view. Spotting an
// enemy marks the squad as in contact.
func (w *World) ScanForTarget(a *Agent) *Agent {
	vis := w.VisibleEnemies(a)
	for _, e := range vis {
		a.Threats.RegisterVisibleEnemy(a.Pos, e.Pos, w.Tun.VisibleEnemyWeight)
	}
	if len(vis) == 0 {
		return nil
	}
	w.noteSquadContact(a)
	return SelectTarget(a, vis)
}

// CanSee reports direct line of sight from the agent to a world point.
func (w *World) CanSee(a *Agent, p Vec2) bool {
	return w.Grid.LineOfSight(a.Pos, p)
}
