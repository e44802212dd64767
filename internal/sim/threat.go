package sim

// ThreatBucket is one decaying directional record of danger: a unit vector
// toward the source, a magnitude, and how long it has existed.
type ThreatBucket struct {
	Dir       Vec2 // unit vector from the agent toward the threat
	Magnitude float64
	Age       float64 // s
}

// ThreatTracker aggregates incoming-fire and sighting signals for one agent
// into directional buckets. Signals near an existing bucket's direction
// reinforce it; everything decays toward removal.
type ThreatTracker struct {
	buckets []ThreatBucket
	tun     *Tunables
}

func NewThreatTracker(tun *Tunables) *ThreatTracker {
	return &ThreatTracker{tun: tun}
}

// RegisterVisibleEnemy feeds a sighting at an absolute position, relative to
// the observer at from. Weight scales the tunable per-scan magnitude.
func (tt *ThreatTracker) RegisterVisibleEnemy(from, enemyPos Vec2, weight float64) {
	dir := enemyPos.Sub(from).Norm()
	if dir == (Vec2{}) {
		return
	}
	tt.add(dir, tt.tun.VisibleEnemyWeight*weight)
}

// RegisterIncomingFire feeds a shot fired at the agent from dir (unit vector
// toward the shooter).
func (tt *ThreatTracker) RegisterIncomingFire(dir Vec2, magnitude float64) {
	dir = dir.Norm()
	if dir == (Vec2{}) {
		return
	}
	tt.add(dir, magnitude)
}

func (tt *ThreatTracker) add(dir Vec2, magnitude float64) {
	if magnitude <= 0 {
		return
	}
	// Merge into the closest aligned bucket, steering it toward the newer
	// direction in proportion to the added weight.
	for i := range tt.buckets {
		b := &tt.buckets[i]
		if b.Dir.Dot(dir) >= tt.tun.ThreatMergeCos {
			frac := magnitude / (b.Magnitude + magnitude)
			b.Dir = b.Dir.Scale(1 - frac).Add(dir.Scale(frac)).Norm()
			b.Magnitude += magnitude
			b.Age = 0
			return
		}
	}
	tt.buckets = append(tt.buckets, ThreatBucket{Dir: dir, Magnitude: magnitude})
}

// Decay ages every bucket and drops the ones that have faded out.
func (tt *ThreatTracker) Decay(dt float64) {
	kept := tt.buckets[:0]
	for _, b := range tt.buckets {
		b.Age += dt
		b.Magnitude -= tt.tun.ThreatDecayPerSecond * dt
		if b.Magnitude > tt.tun.ThreatRemoveBelow {
			kept = append(kept, b)
		}
	}
	tt.buckets = kept
}

// HighestThreatDirection returns the direction of the strongest bucket.
func (tt *ThreatTracker) HighestThreatDirection() (Vec2, bool) {
	best := -1
	for i := range tt.buckets {
		if best < 0 || tt.buckets[i].Magnitude > tt.buckets[best].Magnitude {
			best = i
		}
	}
	if best < 0 {
		return Vec2{}, false
	}
	return tt.buckets[best].Dir, true
}

// IsUnderFire reports whether accumulated threat has crossed the
// under-fire threshold.
func (tt *ThreatTracker) IsUnderFire() bool {
	return tt.TotalThreat() >= tt.tun.UnderFireThreshold
}

// ActiveThreats returns all buckets at or above minMagnitude. The returned
// slice is freshly allocated; callers may keep it.
func (tt *ThreatTracker) ActiveThreats(minMagnitude float64) []ThreatBucket {
	var out []ThreatBucket
	for _, b := range tt.buckets {
		if b.Magnitude >= minMagnitude {
			out = append(out, b)
		}
	}
	return out
}

// TotalThreat sums all bucket magnitudes.
func (tt *ThreatTracker) TotalThreat() float64 {
	total := 0.0
	for _, b := range tt.buckets {
		total += b.Magnitude
	}
	return total
}

// Clear discards all buckets.
func (tt *ThreatTracker) Clear() {
	tt.buckets = tt.buckets[:0]
}
