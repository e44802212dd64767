// Package doctrine turns tunable posture weights into a compiled decision
// policy. Agents facing a dug-in target ask the policy whether to flank,
// suppress, hold overwatch, or push; the answer comes from expr rules
// generated from the doctrine's weights.
package doctrine

import "math"

// Doctrine is a high-level tactical posture. Weights are 0.0–1.0; the
// compiler maps them to concrete rule thresholds.
type Doctrine struct {
	Name       string  `json:"name" yaml:"name"`
	Aggression float64 `json:"aggression" yaml:"aggression"` // push vs hold
	Caution    float64 `json:"caution" yaml:"caution"`       // ammo and fire discipline
	Teamwork   float64 `json:"teamwork" yaml:"teamwork"`     // weight on squad-coordinated options
}

// DefaultDoctrine returns a balanced baseline.
func DefaultDoctrine() Doctrine {
	return Doctrine{
		Name:       "balanced",
		Aggression: 0.5,
		Caution:    0.5,
		Teamwork:   0.5,
	}
}

// AssaultDoctrine favors flanking and pushing suppressed targets.
func AssaultDoctrine() Doctrine {
	return Doctrine{Name: "assault", Aggression: 0.85, Caution: 0.2, Teamwork: 0.6}
}

// HoldDoctrine favors overwatch and sustained suppression.
func HoldDoctrine() Doctrine {
	return Doctrine{Name: "hold", Aggression: 0.15, Caution: 0.8, Teamwork: 0.5}
}

// Validate clamps all weights to their valid ranges.
func (d *Doctrine) Validate() {
	d.Aggression = clamp(d.Aggression, 0, 1)
	d.Caution = clamp(d.Caution, 0, 1)
	d.Teamwork = clamp(d.Teamwork, 0, 1)
}

// lerpf linearly interpolates between min and max by t (0–1).
func lerpf(min, max, t float64) float64 {
	return min + (max-min)*t
}

// clamp restricts v to [min, max].
func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// round2 trims a weight for interpolation into condition source.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
