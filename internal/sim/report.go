package sim

import (
	"fmt"
	"strings"
)

// BattleOutcome classifies how an engagement ended.
type BattleOutcome int

const (
	OutcomeInconclusive BattleOutcome = iota
	OutcomeRedVictory
	OutcomeBlueVictory
	OutcomeDraw
)

func (o BattleOutcome) String() string {
	switch o {
	case OutcomeRedVictory:
		return "red_victory"
	case OutcomeBlueVictory:
		return "blue_victory"
	case OutcomeDraw:
		return "draw"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// OutcomeReport carries the classification plus the counts behind it.
type OutcomeReport struct {
	Outcome       BattleOutcome
	RedSurvivors  int
	RedTotal      int
	BlueSurvivors int
	BlueTotal     int
	Description   string
}

// DetermineOutcome classifies the current world state. Elimination decides
// outright; a lopsided casualty split decides on points; anything else is
// inconclusive.
func DetermineOutcome(w *World) OutcomeReport {
	r := OutcomeReport{}
	for _, a := range w.Agents() {
		switch a.Team {
		case TeamRed:
			r.RedTotal++
			if a.Alive() {
				r.RedSurvivors++
			}
		case TeamBlue:
			r.BlueTotal++
			if a.Alive() {
				r.BlueSurvivors++
			}
		}
	}

	redLossRate := lossRate(r.RedTotal, r.RedSurvivors)
	blueLossRate := lossRate(r.BlueTotal, r.BlueSurvivors)

	switch {
	case r.RedSurvivors == 0 && r.BlueSurvivors == 0:
		r.Outcome = OutcomeDraw
		r.Description = "mutual annihilation"
	case r.BlueSurvivors == 0:
		r.Outcome = OutcomeRedVictory
		r.Description = fmt.Sprintf("blue eliminated; red lost %d of %d", r.RedTotal-r.RedSurvivors, r.RedTotal)
	case r.RedSurvivors == 0:
		r.Outcome = OutcomeBlueVictory
		r.Description = fmt.Sprintf("red eliminated; blue lost %d of %d", r.BlueTotal-r.BlueSurvivors, r.BlueTotal)
	case redLossRate >= 0.75 && blueLossRate < 0.25:
		r.Outcome = OutcomeBlueVictory
		r.Description = fmt.Sprintf("red broken on points (%.0f%% vs %.0f%% losses)", redLossRate*100, blueLossRate*100)
	case blueLossRate >= 0.75 && redLossRate < 0.25:
		r.Outcome = OutcomeRedVictory
		r.Description = fmt.Sprintf("blue broken on points (%.0f%% vs %.0f%% losses)", blueLossRate*100, redLossRate*100)
	default:
		r.Outcome = OutcomeInconclusive
		r.Description = fmt.Sprintf("both sides standing: red %d/%d, blue %d/%d",
			r.RedSurvivors, r.RedTotal, r.BlueSurvivors, r.BlueTotal)
	}
	return r
}

func lossRate(total, survivors int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-survivors) / float64(total)
}

// agentTally is the per-agent slice of the report.
type agentTally struct {
	shots int
	hits  int
}

// AfterActionReport renders a text summary of the run: outcome, one stat
// line per agent, aggregate totals, and the last tailTicks of the event
// log. tailTicks <= 0 omits the log tail.
func AfterActionReport(w *World, tailTicks int) string {
	outcome := DetermineOutcome(w)

	tallies := make(map[string]agentTally, len(w.Agents()))
	totalShots := 0
	totalHits := 0
	for _, e := range w.SimLog.Filter("shot", "hit") {
		t := tallies[e.Agent]
		t.shots++
		t.hits++
		tallies[e.Agent] = t
		totalShots++
		totalHits++
	}
	for _, e := range w.SimLog.Filter("shot", "miss") {
		t := tallies[e.Agent]
		t.shots++
		tallies[e.Agent] = t
		totalShots++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- fireline after-action report ---\n")
	fmt.Fprintf(&b, "seed=%d ticks=%d sim_time=%.1fs\n", w.Seed(), w.Tick(), w.Now())
	fmt.Fprintf(&b, "outcome=%s (%s)\n\n", outcome.Outcome, outcome.Description)

	b.WriteString("agents:\n")
	for _, a := range w.Agents() {
		t := tallies[a.Label]
		state := a.StateKind().String()
		if !a.Alive() {
			state = "dead"
		}
		fmt.Fprintf(&b, "  %-4s %-5s hp=%3.0f/%3.0f ammo=%.2f state=%-10s shots=%-3d hits=%-3d pos=%s\n",
			a.Label, a.Team, a.Health, a.MaxHealth, a.Weapon.AmmoFrac(), state, t.shots, t.hits, a.Pos)
	}
	b.WriteByte('\n')

	acc := 0.0
	if totalShots > 0 {
		acc = float64(totalHits) / float64(totalShots) * 100
	}
	fmt.Fprintf(&b, "totals: shots=%d hits=%d acc=%.0f%% deaths=%d cover_moves=%d pins=%d\n",
		totalShots, totalHits, acc,
		w.SimLog.CountCategory("state", "death"),
		w.SimLog.CountCategory("cover", "found"),
		w.SimLog.CountCategory("threat", "pinned"))

	if tailTicks > 0 {
		from := w.Tick() - tailTicks + 1
		if from < 0 {
			from = 0
		}
		fmt.Fprintf(&b, "\nlog tail (T=%d..%d):\n", from, w.Tick())
		b.WriteString(w.SimLog.FormatRange(from, w.Tick()))
	}
	return b.String()
}
