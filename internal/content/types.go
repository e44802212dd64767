package content

import (
	"fmt"

	"github.com/veldtsim/fireline/internal/doctrine"
)

// WeaponSpec is the authoring form of a weapon profile. Range is in tiles.
type WeaponSpec struct {
	Name         string  `yaml:"name"`
	RangeTiles   float64 `yaml:"range_tiles"`
	MagazineSize int     `yaml:"magazine_size"`
	ReloadTime   float64 `yaml:"reload_time"`
	ShotInterval float64 `yaml:"shot_interval"`
	Spread       float64 `yaml:"spread"`
	Damage       float64 `yaml:"damage"`
}

func (w WeaponSpec) validate() error {
	if w.Name == "" {
		return fmt.Errorf("weapon with empty name")
	}
	if w.RangeTiles <= 0 {
		return fmt.Errorf("weapon %q: range_tiles must be positive", w.Name)
	}
	if w.MagazineSize <= 0 {
		return fmt.Errorf("weapon %q: magazine_size must be positive", w.Name)
	}
	if w.Damage <= 0 {
		return fmt.Errorf("weapon %q: damage must be positive", w.Name)
	}
	return nil
}

// WeaponsFile is the top-level shape of weapons.yaml.
type WeaponsFile struct {
	Weapons []WeaponSpec `yaml:"weapons"`
}

// DoctrinesFile is the top-level shape of doctrines.yaml.
type DoctrinesFile struct {
	Doctrines []doctrine.Doctrine `yaml:"doctrines"`
}

// PointSpec is a tile-space position. Fractions land inside a tile.
type PointSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// ObstacleSpec places a rectangle of cover-granting obstacle tiles.
// Strength is "half" or "full".
type ObstacleSpec struct {
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	W        int    `yaml:"w"`
	H        int    `yaml:"h"`
	Strength string `yaml:"strength"`
}

// AgentSpec spawns one agent. Zero-valued stats fall back to the default
// stat line so authored files only name what they change.
type AgentSpec struct {
	Label    string  `yaml:"label,omitempty"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Weapon   string  `yaml:"weapon,omitempty"`
	Posture  string  `yaml:"posture,omitempty"`
	Accuracy float64 `yaml:"accuracy,omitempty"`
	Bravery  float64 `yaml:"bravery,omitempty"`
	Reflex   float64 `yaml:"reflex,omitempty"`
	Tactics  float64 `yaml:"tactics,omitempty"`
	Speed    float64 `yaml:"speed,omitempty"`
}

// SquadSpec groups agents under one team. Rally anchors cover scoring;
// Advance, when set, starts every member moving toward it in formation.
type SquadSpec struct {
	Team    string      `yaml:"team"`
	Rally   *PointSpec  `yaml:"rally,omitempty"`
	Advance *PointSpec  `yaml:"advance,omitempty"`
	Members []AgentSpec `yaml:"members"`
}

// Scenario is a complete authored engagement.
type Scenario struct {
	Name      string         `yaml:"name"`
	Cols      int            `yaml:"cols"`
	Rows      int            `yaml:"rows"`
	Seed      int64          `yaml:"seed"`
	Doctrine  string         `yaml:"doctrine,omitempty"`
	Obstacles []ObstacleSpec `yaml:"obstacles,omitempty"`
	Squads    []SquadSpec    `yaml:"squads"`
}

func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario with empty name")
	}
	if len(s.Squads) == 0 {
		return fmt.Errorf("scenario %q: no squads", s.Name)
	}
	for i, sq := range s.Squads {
		if sq.Team != "red" && sq.Team != "blue" {
			return fmt.Errorf("scenario %q: squad %d: team must be red or blue, got %q", s.Name, i, sq.Team)
		}
		if len(sq.Members) == 0 {
			return fmt.Errorf("scenario %q: squad %d: no members", s.Name, i)
		}
	}
	for i, ob := range s.Obstacles {
		if ob.Strength != "half" && ob.Strength != "full" {
			return fmt.Errorf("scenario %q: obstacle %d: strength must be half or full, got %q", s.Name, i, ob.Strength)
		}
	}
	return nil
}
