package content

import (
	"fmt"

	"github.com/veldtsim/fireline/internal/doctrine"
	"github.com/veldtsim/fireline/internal/sim"
)

// Profile converts the authoring form to the runtime weapon profile.
func (w WeaponSpec) Profile() sim.WeaponProfile {
	p := sim.WeaponProfile{
		Name:         w.Name,
		Range:        w.RangeTiles * sim.TileSize,
		MagazineSize: w.MagazineSize,
		ReloadTime:   w.ReloadTime,
		ShotInterval: w.ShotInterval,
		Spread:       w.Spread,
		Damage:       w.Damage,
	}
	if p.ReloadTime <= 0 {
		p.ReloadTime = 2.2
	}
	if p.ShotInterval <= 0 {
		p.ShotInterval = 1.0
	}
	return p
}

// Stats converts authored stats, filling zero fields from the default line.
func (a AgentSpec) Stats() sim.StatBlock {
	s := sim.DefaultStats()
	if a.Accuracy != 0 {
		s.Accuracy = a.Accuracy
	}
	if a.Bravery != 0 {
		s.Bravery = a.Bravery
	}
	if a.Reflex != 0 {
		s.Reflex = a.Reflex
	}
	if a.Tactics != 0 {
		s.Tactics = a.Tactics
	}
	if a.Speed != 0 {
		s.Speed = a.Speed
	}
	return s
}

func parseTeam(s string) (sim.Team, error) {
	switch s {
	case "red":
		return sim.TeamRed, nil
	case "blue":
		return sim.TeamBlue, nil
	default:
		return 0, fmt.Errorf("unknown team %q", s)
	}
}

func parsePosture(s string) (sim.Posture, error) {
	switch s {
	case "", "neutral":
		return sim.PostureNeutral, nil
	case "defensive":
		return sim.PostureDefensive, nil
	case "aggressive":
		return sim.PostureAggressive, nil
	default:
		return 0, fmt.Errorf("unknown posture %q", s)
	}
}

func parseStrength(s string) sim.CoverStrength {
	if s == "full" {
		return sim.CoverFull
	}
	return sim.CoverHalf
}

// BuildWorld realizes a scenario. base supplies logger, sink, and tuning;
// the scenario supplies terrain, squads, and (when set) map size, seed,
// and doctrine.
func (p *Pack) BuildWorld(sc *Scenario, base sim.WorldConfig) (*sim.World, error) {
	if sc.Cols > 0 {
		base.Cols = sc.Cols
	}
	if sc.Rows > 0 {
		base.Rows = sc.Rows
	}
	if sc.Seed != 0 {
		base.Seed = sc.Seed
	}
	if sc.Doctrine != "" {
		d, ok := p.Doctrines[sc.Doctrine]
		if !ok {
			return nil, fmt.Errorf("scenario %q: unknown doctrine %q", sc.Name, sc.Doctrine)
		}
		pol, err := doctrine.FromDoctrine(d)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: doctrine %q: %w", sc.Name, sc.Doctrine, err)
		}
		base.Policy = pol
	}

	w := sim.NewWorld(base)

	for _, ob := range sc.Obstacles {
		width, height := ob.W, ob.H
		if width <= 0 {
			width = 1
		}
		if height <= 0 {
			height = 1
		}
		for dy := 0; dy < height; dy++ {
			for dx := 0; dx < width; dx++ {
				w.AddObstacle(sim.TileCoord{X: ob.X + dx, Y: ob.Y + dy}, parseStrength(ob.Strength))
			}
		}
	}

	for i, sqs := range sc.Squads {
		team, err := parseTeam(sqs.Team)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: squad %d: %w", sc.Name, i, err)
		}
		sq := w.NewSquad(team)
		var spawned []*sim.Agent
		for j, as := range sqs.Members {
			weaponName := as.Weapon
			if weaponName == "" {
				weaponName = "rifle"
			}
			profile, ok := p.Weapons[weaponName]
			if !ok {
				return nil, fmt.Errorf("scenario %q: squad %d member %d: unknown weapon %q", sc.Name, i, j, weaponName)
			}
			posture, err := parsePosture(as.Posture)
			if err != nil {
				return nil, fmt.Errorf("scenario %q: squad %d member %d: %w", sc.Name, i, j, err)
			}
			pos := sim.Vec2{X: as.X * sim.TileSize, Y: as.Y * sim.TileSize}
			a := sim.NewAgent(team, pos, as.Stats(), profile)
			a.Label = as.Label
			a.Posture = posture
			w.Spawn(a, sq)
			spawned = append(spawned, a)
		}
		if sqs.Rally != nil {
			sq.SetRallyPoint(sim.Vec2{X: sqs.Rally.X * sim.TileSize, Y: sqs.Rally.Y * sim.TileSize})
		}
		if sqs.Advance != nil {
			orderAdvance(w, spawned, sim.Vec2{X: sqs.Advance.X * sim.TileSize, Y: sqs.Advance.Y * sim.TileSize})
		}
	}
	return w, nil
}

// orderAdvance starts every member moving toward the objective, keeping
// their spawn formation by offsetting each destination from the centroid.
func orderAdvance(w *sim.World, members []*sim.Agent, objective sim.Vec2) {
	if len(members) == 0 {
		return
	}
	var centroid sim.Vec2
	for _, a := range members {
		centroid = centroid.Add(a.Pos)
	}
	centroid = centroid.Scale(1 / float64(len(members)))
	for _, a := range members {
		dest := objective.Add(a.Pos.Sub(centroid))
		a.ChangeState(w, sim.NewMovingState(dest))
	}
}
