// Package calc evaluates infix arithmetic expressions.
//
// Evaluation is a three stage pipeline: Tokenize turns text into tokens,
// ToPostfix reorders them with the shunting-yard algorithm and EvalPostfix
// reduces the postfix form on a value stack. FormatResult renders the value
// rounded to Precision decimal places.
package calc

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every *Error unwraps to exactly one of them.
var (
	ErrDivideByZero      = errors.New("division by zero")
	ErrInvalidExpression = errors.New("invalid expression")
	ErrUnknownOperator   = errors.New("unknown operator")
)

// ErrorKind classifies an evaluation failure.
type ErrorKind int

const (
	InvalidExpression ErrorKind = iota + 1
	DivideByZero
	UnknownOperator
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidExpression:
		return "InvalidExpression"
	case DivideByZero:
		return "DivideByZero"
	case UnknownOperator:
		return "UnknownOperator"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case DivideByZero:
		return ErrDivideByZero
	case UnknownOperator:
		return ErrUnknownOperator
	default:
		return ErrInvalidExpression
	}
}

// Error is a classified evaluation failure.
type Error struct {
	Kind   ErrorKind
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Kind.sentinel().Error()
	}
	return e.Kind.sentinel().Error() + ": " + e.Detail
}

// Unwrap makes errors.Is(err, ErrDivideByZero) and friends work.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf reports the kind of a failure returned by this package, or 0 for
// nil and foreign errors.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}
