package sim

// WeaponProfile is the static description of a weapon, normally loaded from
// a content pack.
type WeaponProfile struct {
	Name         string
	Range        float64 // px
	MagazineSize int
	ReloadTime   float64 // s
	ShotInterval float64 // s between aimed shots at sustained rate
	Spread       float64 // base miss dispersion, 0..1
	Damage       float64 // hp per hit
}

// DefaultRifle is the fallback profile when no content pack is loaded.
func DefaultRifle() WeaponProfile {
	return WeaponProfile{
		Name:         "rifle",
		Range:        15 * TileSize,
		MagazineSize: 20,
		ReloadTime:   2.2,
		ShotInterval: 1.0,
		Spread:       0.12,
		Damage:       18,
	}
}

// Weapon is the live weapon state carried by one agent.
type Weapon struct {
	Profile WeaponProfile
	Ammo    int // rounds left in the magazine
}

func NewWeapon(p WeaponProfile) Weapon {
	return Weapon{Profile: p, Ammo: p.MagazineSize}
}

// AmmoFrac returns the magazine fraction remaining, 0..1.
func (w *Weapon) AmmoFrac() float64 {
	if w.Profile.MagazineSize <= 0 {
		return 0
	}
	return float64(w.Ammo) / float64(w.Profile.MagazineSize)
}

// Consume spends one round. Returns false on an empty magazine.
func (w *Weapon) Consume() bool {
	if w.Ammo <= 0 {
		return false
	}
	w.Ammo--
	return true
}

// Refill completes a reload.
func (w *Weapon) Refill() {
	w.Ammo = w.Profile.MagazineSize
}

// Empty reports an empty magazine.
func (w *Weapon) Empty() bool { return w.Ammo <= 0 }
