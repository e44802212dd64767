package doctrine

import "github.com/expr-lang/expr/vm"

// Choice is the action a policy hands back for a stuck engagement.
type Choice int

const (
	ChoiceOverwatch Choice = iota // hold position, snap-fire on exposure
	ChoiceSuppress                // pour fire at the target's cover
	ChoiceFlank                   // move for an uncovered angle
	ChoiceAdvance                 // push toward the target under fire
)

func (c Choice) String() string {
	switch c {
	case ChoiceOverwatch:
		return "overwatch"
	case ChoiceSuppress:
		return "suppress"
	case ChoiceFlank:
		return "flank"
	case ChoiceAdvance:
		return "advance"
	default:
		return "unknown"
	}
}

// Rule pairs a condition with the choice it selects. Higher priority
// evaluates first; the first rule whose condition holds decides.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Choice       Choice      // the decision when the condition holds
	ConditionSrc string      // expr source (preserved for serialization)
	program      *vm.Program // compiled bytecode
}
