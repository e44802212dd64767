package sim

import "math"

const (
	targetHalfWidth   = 5.5 // px, presented silhouette half-width
	halfCoverWidthMul = 0.6 // silhouette shrink when peeking over half cover
	witnessRadius     = 2.0 // tiles around an impact that register spillover threat
)

// effectiveSpread is the weapon's base spread half-angle widened or
// narrowed by the shooter's accuracy. spreadMult carries mode effects such
// as suppressive fire.
func effectiveSpread(shooter *Agent, spreadMult float64) float64 {
	acc := clamp(shooter.Stats.Accuracy, 0, 10)
	return shooter.Weapon.Profile.Spread * (1.4 - 0.08*acc) * spreadMult
}

// FireShot resolves one trigger pull from shooter at target. Returns false
// without firing when the magazine is empty. A shot always registers threat
// on the target and nearby friendlies of the target; whether it lands
// depends on angular deflection against the presented silhouette.
func (w *World) FireShot(shooter, target *Agent, spreadMult float64) bool {
	if target == nil || !target.Alive() {
		return false
	}
	if !shooter.Weapon.Consume() {
		return false
	}

	origin := ShotOrigin(w.Covers, shooter, target.Pos)
	dist := origin.DistTo(target.Pos)
	w.noteSquadContact(shooter)

	// Being shot at is threatening whether or not the round lands.
	dirToShooter := origin.Sub(target.Pos).Norm()
	target.Threats.RegisterIncomingFire(dirToShooter, w.Tun.ShotThreatMagnitude)
	w.noteSquadContact(target)
	for _, near := range w.Space.AgentsWithin(target.Pos, witnessRadius*TileSize) {
		if near == target || near.Team != target.Team {
			continue
		}
		near.Threats.RegisterIncomingFire(origin.Sub(near.Pos).Norm(), w.Tun.ShotThreatMagnitude*0.5)
	}

	hit := w.resolveBullet(shooter, target, origin, dist, spreadMult)
	if hit {
		w.note(shooter, "shot", "hit", target.Label, dist)
		target.TakeDamage(w, shooter.Weapon.Profile.Damage, origin)
	} else {
		w.note(shooter, "shot", "miss", target.Label, dist)
	}
	w.Sink.ShotFired(w.Tick(), shooter, target, hit)
	return true
}

// resolveBullet rolls a deflection angle within the shooter's spread cone
// and tests it against the target's angular size. Cover and exposure shrink
// or erase the presented silhouette.
func (w *World) resolveBullet(shooter, target *Agent, origin Vec2, dist float64, spreadMult float64) bool {
	switch ClassifyShotLine(w.Grid, w.Covers, origin, target.Pos) {
	case ShotBlockedEnRoute:
		return false
	case ShotBlockedByTargetCover:
		// Rounds slap the cover. Suppressive, never lethal.
		return false
	}
	if TargetFullyCovered(w.Covers, origin, target, w.Tun.CoverAlignmentMin) {
		return false
	}

	halfWidth := targetHalfWidth
	toShooter := origin.Sub(target.Pos).Norm()
	if src, _, ok := BestSourceAgainst(w.Covers.SourcesAt(target.Tile()), toShooter, w.Tun.CoverAlignmentMin); ok && src.Strength == CoverHalf {
		halfWidth *= halfCoverWidthMul
	}

	if dist < 1 {
		dist = 1
	}
	angularHalfSize := math.Atan2(halfWidth, dist)
	deflection := (w.Rng.Float64()*2 - 1) * effectiveSpread(shooter, spreadMult)
	return math.Abs(deflection) <= angularHalfSize
}
