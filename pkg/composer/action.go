package composer

import "fmt"

// ActionKind enumerates the input events the composer understands.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionDigit
	ActionOperator
	ActionParen
	ActionDelete
	ActionClear
	ActionEvaluate
)

var actionNames = map[ActionKind]string{
	ActionNone:     "none",
	ActionDigit:    "digit",
	ActionOperator: "operator",
	ActionParen:    "paren",
	ActionDelete:   "delete",
	ActionClear:    "clear",
	ActionEvaluate: "evaluate",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ActionKind(%d)", int(k))
}

// ParseActionKind is the inverse of ActionKind.String.
func ParseActionKind(name string) (ActionKind, bool) {
	for kind, n := range actionNames {
		if n == name {
			return kind, true
		}
	}
	return ActionNone, false
}

// Action is one input event. Char carries the digit, dot or operator for
// ActionDigit and ActionOperator.
type Action struct {
	Kind ActionKind
	Char byte
}

func (a Action) String() string {
	if a.Char != 0 {
		return fmt.Sprintf("%s(%c)", a.Kind, a.Char)
	}
	return a.Kind.String()
}

// Digit, Operator, Paren, Delete, ClearAll and Equals build actions.
func Digit(ch byte) Action    { return Action{Kind: ActionDigit, Char: ch} }
func Operator(op byte) Action { return Action{Kind: ActionOperator, Char: op} }
func Paren() Action           { return Action{Kind: ActionParen} }
func Delete() Action          { return Action{Kind: ActionDelete} }
func ClearAll() Action        { return Action{Kind: ActionClear} }
func Equals() Action          { return Action{Kind: ActionEvaluate} }

// Apply dispatches a to the matching operation. The outcome is non-nil only
// when an evaluation was attempted.
func Apply(s State, a Action, ev Evaluator) (State, *Outcome) {
	switch a.Kind {
	case ActionDigit:
		return AppendDigitOrDot(s, a.Char), nil
	case ActionOperator:
		return AppendOperator(s, a.Char), nil
	case ActionParen:
		return ToggleParenthesis(s), nil
	case ActionDelete:
		return DeleteLast(s), nil
	case ActionClear:
		return Clear(), nil
	case ActionEvaluate:
		next, outcome, ok := Evaluate(s, ev)
		if !ok {
			return next, nil
		}
		return next, &outcome
	}
	return s, nil
}
