package doctrine

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Policy answers stuck-engagement queries.
type Policy interface {
	Choose(q Query) Choice
}

// RulePolicy evaluates compiled rules in priority order; the first match
// decides, the fallback covers a quiet rule set.
type RulePolicy struct {
	rules    []*Rule
	fallback Choice
}

// NewPolicy compiles every rule condition into expr bytecode and sorts by
// priority. A single bad condition fails the whole set.
func NewPolicy(rules []*Rule, fallback Choice) (*RulePolicy, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(Query{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.Slice(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return &RulePolicy{rules: rules, fallback: fallback}, nil
}

// Choose runs the rules against one query. Conditions that error are
// skipped rather than aborting the decision.
func (p *RulePolicy) Choose(q Query) Choice {
	for _, r := range p.rules {
		result, err := vm.Run(r.program, q)
		if err != nil {
			continue
		}
		if match, ok := result.(bool); ok && match {
			return r.Choice
		}
	}
	return p.fallback
}

// Rules exposes the sorted rule set, for inspection and reports.
func (p *RulePolicy) Rules() []*Rule { return p.rules }

// CompileDoctrine generates a rule set from a doctrine's weights. All
// conditions are built via fmt.Sprintf with interpolated values, so the
// generated expr is always valid.
func CompileDoctrine(d Doctrine) []*Rule {
	d.Validate()
	var rules []*Rule

	rules = append(rules, &Rule{
		Name:         "leader-holds",
		Priority:     900,
		Choice:       ChoiceOverwatch,
		ConditionSrc: `LeaderAnchored`,
	})

	// Flanking gets easier to trigger as doctrine aggression rises, but
	// never fires on an empty magazine or while actively shot at.
	rules = append(rules, &Rule{
		Name:     "flank-open-angle",
		Priority: 800,
		Choice:   ChoiceFlank,
		ConditionSrc: fmt.Sprintf(
			`FlankAvailable && !UnderFire && !LowAmmo() && (Spirited() || Aggression >= %.2f)`,
			round2(lerpf(0.9, 0.35, d.Aggression))),
	})

	rules = append(rules, &Rule{
		Name:     "push-suppressed-target",
		Priority: 700,
		Choice:   ChoiceAdvance,
		ConditionSrc: fmt.Sprintf(
			`TargetSuppressed && Bravery >= %.2f && AmmoFrac >= %.2f`,
			round2(lerpf(0.75, 0.3, d.Aggression)),
			round2(lerpf(0.5, 0.25, 1-d.Caution))),
	})

	// Teamwork-weighted: claim the suppression role so squadmates can move.
	rules = append(rules, &Rule{
		Name:     "suppress-for-squad",
		Priority: 600,
		Choice:   ChoiceSuppress,
		ConditionSrc: fmt.Sprintf(
			`!TargetSuppressed && AmmoFrac >= %.2f && SquadThreat < %.2f`,
			round2(lerpf(0.7, 0.35, 1-d.Caution)),
			round2(lerpf(30, 80, d.Teamwork))),
	})

	rules = append(rules, &Rule{
		Name:         "conserve-ammo",
		Priority:     500,
		Choice:       ChoiceOverwatch,
		ConditionSrc: `LowAmmo()`,
	})

	return rules
}

// Default returns the balanced policy. Generated conditions are static;
// a compile failure here is a bug, not an input error.
func Default() Policy {
	p, err := NewPolicy(CompileDoctrine(DefaultDoctrine()), ChoiceOverwatch)
	if err != nil {
		panic(err)
	}
	return p
}

// FromDoctrine builds a policy for an arbitrary validated doctrine.
func FromDoctrine(d Doctrine) (Policy, error) {
	return NewPolicy(CompileDoctrine(d), ChoiceOverwatch)
}
