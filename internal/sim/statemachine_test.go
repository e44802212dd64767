package sim

import "testing"

func TestChangeState_LogsTransition(t *testing.T) {
	pos := TileCoord{5, 5}.Center()
	ts := NewTestSim(WithMapSize(20, 12), WithRedAgent(pos.X, pos.Y))
	a := ts.Agent(0)

	if a.StateKind() != StateIdle {
		t.Fatalf("agents spawn idle, got %v", a.StateKind())
	}
	a.ChangeState(ts.World, NewReadyState())
	if a.StateKind() != StateReady {
		t.Fatalf("expected ready, got %v", a.StateKind())
	}
	if !ts.SimLog.HasEntry("state", "transition", "idle → ready") {
		t.Fatal("transition should be logged as \"idle → ready\"")
	}
}

func TestChangeState_SuppressedWhenDead(t *testing.T) {
	pos := TileCoord{5, 5}.Center()
	ts := NewTestSim(WithMapSize(20, 12), WithRedAgent(pos.X, pos.Y))
	a := ts.Agent(0)
	a.Health = 0

	a.ChangeState(ts.World, NewReadyState())
	if a.StateKind() != StateIdle {
		t.Fatal("dead agents accept no transitions")
	}
	if len(ts.SimLog.Filter("state", "transition")) != 0 {
		t.Fatal("no transition should be logged for the dead")
	}
}

func TestStateMachine_DeadAgentGetsNoUpdates(t *testing.T) {
	redPos := TileCoord{5, 5}.Center()
	bluePos := TileCoord{8, 5}.Center()
	ts := NewTestSim(
		WithMapSize(20, 12),
		WithRedAgent(redPos.X, redPos.Y),
		WithBlueAgent(bluePos.X, bluePos.Y),
	)
	red := ts.Agent(0)
	red.Health = 0

	// A live idle agent three tiles from an enemy would engage on its
	// first scan; a dead one never does.
	ts.RunTicks(30)
	if red.StateKind() != StateIdle {
		t.Fatalf("dead agent should never leave its state, got %v", red.StateKind())
	}
	if len(ts.SimLog.FilterAgent(red.Label)) != 1 {
		t.Fatal("only the spawn entry should carry the dead agent's label")
	}
}

func TestStateKindStrings(t *testing.T) {
	cases := map[StateKind]string{
		StateIdle:      "idle",
		StateCombat:    "combat",
		StateSeekCover: "seek_cover",
		StateOverwatch: "overwatch",
		StatePinned:    "pinned",
		StateAdvance:   "advance",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Fatalf("kind %d: expected %q, got %q", int(k), want, got)
		}
	}
}
