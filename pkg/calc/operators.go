package calc

import "math"

// Associativity decides how operators of equal precedence group.
type Associativity int

const (
	LeftAssoc Associativity = iota
	RightAssoc
)

// NegateSymbol is the internal text of the prefix negation operator. It is
// produced by the tokenizer for a sign directly in front of "(" and can not
// be typed.
const NegateSymbol = "~"

// Operator describes one entry of the operator table. Unary operators set
// Arity to 1 and Unary; binary operators set Arity to 2 and Binary.
type Operator struct {
	Symbol     string
	Precedence int
	Assoc      Associativity
	Arity      int
	Binary     func(a, b float64) (float64, error)
	Unary      func(x float64) float64
}

var operators = map[string]Operator{
	"+": {Symbol: "+", Precedence: 1, Assoc: LeftAssoc, Arity: 2, Binary: func(a, b float64) (float64, error) {
		return a + b, nil
	}},
	"-": {Symbol: "-", Precedence: 1, Assoc: LeftAssoc, Arity: 2, Binary: func(a, b float64) (float64, error) {
		return a - b, nil
	}},
	"*": {Symbol: "*", Precedence: 2, Assoc: LeftAssoc, Arity: 2, Binary: func(a, b float64) (float64, error) {
		return a * b, nil
	}},
	"/": {Symbol: "/", Precedence: 2, Assoc: LeftAssoc, Arity: 2, Binary: func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, newError(DivideByZero, "%v / 0", a)
		}
		return a / b, nil
	}},
	"%": {Symbol: "%", Precedence: 2, Assoc: LeftAssoc, Arity: 2, Binary: func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, newError(DivideByZero, "%v %% 0", a)
		}
		// Sign follows the dividend, like C's fmod.
		return math.Mod(a, b), nil
	}},
	NegateSymbol: {Symbol: NegateSymbol, Precedence: 3, Assoc: RightAssoc, Arity: 1, Unary: func(x float64) float64 {
		return -x
	}},
}

// LookupOperator returns the table entry for symbol.
func LookupOperator(symbol string) (Operator, bool) {
	op, ok := operators[symbol]
	return op, ok
}

// IsBinaryOperator reports whether ch is one of the five typeable operators.
func IsBinaryOperator(ch byte) bool {
	switch ch {
	case '+', '-', '*', '/', '%':
		return true
	}
	return false
}

// popsBefore reports whether top, sitting on the operator stack, has to be
// emitted before incoming is pushed.
func popsBefore(top, incoming Operator) bool {
	if incoming.Arity == 1 {
		// a prefix operator has no left operand to bind
		return false
	}
	if top.Precedence > incoming.Precedence {
		return true
	}
	return top.Precedence == incoming.Precedence && incoming.Assoc == LeftAssoc
}
