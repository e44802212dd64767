package content

// BuiltinSkirmish is the fallback meeting engagement used when no content
// directory is supplied: two rifle squads advance on each other across
// scattered cover.
func BuiltinSkirmish() *Scenario {
	return &Scenario{
		Name: "skirmish",
		Cols: 48,
		Rows: 32,
		Obstacles: []ObstacleSpec{
			{X: 18, Y: 8, W: 1, H: 2, Strength: "full"},
			{X: 29, Y: 20, W: 1, H: 2, Strength: "full"},
			{X: 23, Y: 14, W: 2, H: 1, Strength: "full"},
			{X: 16, Y: 16, Strength: "half"},
			{X: 31, Y: 12, Strength: "half"},
			{X: 22, Y: 22, Strength: "half"},
		},
		Squads: []SquadSpec{
			{
				Team:    "red",
				Rally:   &PointSpec{X: 8, Y: 15},
				Advance: &PointSpec{X: 40, Y: 15},
				Members: []AgentSpec{
					{X: 5, Y: 12},
					{X: 5, Y: 14},
					{X: 5, Y: 16},
					{X: 5, Y: 18},
				},
			},
			{
				Team:    "blue",
				Rally:   &PointSpec{X: 40, Y: 15},
				Advance: &PointSpec{X: 8, Y: 15},
				Members: []AgentSpec{
					{X: 43, Y: 12},
					{X: 43, Y: 14},
					{X: 43, Y: 16},
					{X: 43, Y: 18},
				},
			},
		},
	}
}
