package doctrine

// Query is the expr environment a choice is evaluated against: one agent's
// view of its stuck engagement, normalized so rule sources stay unitless.
type Query struct {
	Bravery     float64 // 0..1, agent stat normalized
	Aggression  float64 // 0..1, from posture
	AmmoFrac    float64 // 0..1, magazine remaining
	SquadThreat float64 // accumulated threat across the squad

	TargetSuppressed bool // a squadmate is already suppressing the target
	FlankAvailable   bool // a flank route was found this rescan
	LeaderAnchored   bool // agent leads a squad big enough to hold it
	UnderFire        bool // threat tracker registers active incoming fire
}

// Spirited reports whether nerve and posture together favor bold options.
func (q Query) Spirited() bool {
	return q.Bravery*0.5+q.Aggression*0.5 >= 0.5
}

// LowAmmo reports a magazine too thin for sustained fire.
func (q Query) LowAmmo() bool {
	return q.AmmoFrac < 0.3
}
