package composer

import (
	"strings"

	"github.com/antibyte/retrocalc/pkg/calc"
)

// Evaluator turns a finished expression into a result string.
// *calc.Evaluator implements it.
type Evaluator interface {
	Evaluate(expr string) (string, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(expr string) (string, error)

func (f EvaluatorFunc) Evaluate(expr string) (string, error) { return f(expr) }

// Outcome describes one evaluation attempt.
type Outcome struct {
	Expression string
	Result     string // ErrorText on failure
	Err        error
}

// Failed reports whether the evaluation failed.
func (o Outcome) Failed() bool { return o.Err != nil }

func isOperator(ch byte) bool { return calc.IsBinaryOperator(ch) }

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func lastChar(s string) byte {
	if s == "" {
		return 0
	}
	return s[len(s)-1]
}

// signAt reports whether the '-' at index i of buf is a sign.
func signAt(buf string, i int) bool {
	if i == 0 {
		return true
	}
	prev := buf[i-1]
	return prev == '(' || isOperator(prev)
}

// CurrentNumberSegment returns the trailing run of buf that contains no
// operator or parenthesis.
func CurrentNumberSegment(buf string) string {
	return buf[strings.LastIndexAny(buf, "+-*/%()")+1:]
}

// OpenParens returns the number of "(" in buf still waiting for a ")".
func OpenParens(buf string) int {
	return strings.Count(buf, "(") - strings.Count(buf, ")")
}

// CloseParens appends the ")" needed to balance buf.
func CloseParens(buf string) string {
	if n := OpenParens(buf); n > 0 {
		return buf + strings.Repeat(")", n)
	}
	return buf
}

// AppendDigitOrDot adds a digit or a decimal point. A dot is ignored when
// the current number already has one, and gets a leading zero when it
// starts a number.
func AppendDigitOrDot(s State, ch byte) State {
	if !isDigit(ch) && ch != '.' {
		return s
	}
	if s.Marker != Composing {
		s = State{}
	}
	buf := s.Buffer

	if ch == '.' {
		if strings.Contains(CurrentNumberSegment(buf), ".") {
			return s
		}
		last := lastChar(buf)
		if buf == "" || isOperator(last) || last == '(' {
			return State{Buffer: buf + "0.", Previous: s.Previous}
		}
	}
	return State{Buffer: buf + string(ch), Previous: s.Previous}
}

// AppendOperator adds one of + - * / %. A trailing operator is replaced
// rather than stacked. Where no left operand exists (empty buffer, after
// "(" or in place of a sign) only '-' is accepted.
func AppendOperator(s State, op byte) State {
	if !isOperator(op) {
		return s
	}
	if s.Marker == ErrorDisplayed {
		s = State{}
	}
	buf := s.Buffer
	last := lastChar(buf)

	switch {
	case buf == "" || last == '(':
		// Kein linker Operand: der Buffer muss tokenisierbar bleiben,
		// "(*" wäre nie auswertbar. Nur das Vorzeichen ist erlaubt.
		if op != '-' {
			return s
		}
		return State{Buffer: buf + "-", Previous: s.Previous}

	case isOperator(last):
		if signAt(buf, len(buf)-1) {
			if op != '-' {
				return s
			}
			return State{Buffer: buf, Previous: s.Previous}
		}
		return State{Buffer: buf[:len(buf)-1] + string(op), Previous: s.Previous}
	}

	return State{Buffer: buf + string(op), Previous: s.Previous}
}

// ToggleParenthesis inserts "(" or ")" depending on context: "(" where an
// operand is expected, ")" when a group is open, "(" otherwise.
func ToggleParenthesis(s State) State {
	if s.Marker == ErrorDisplayed {
		return State{Buffer: "("}
	}
	buf := s.Buffer
	last := lastChar(buf)

	paren := "("
	if buf != "" && !isOperator(last) && last != '(' && OpenParens(buf) > 0 {
		paren = ")"
	}
	return State{Buffer: buf + paren, Previous: s.Previous}
}

// DeleteLast removes the last character, or the error text as a whole.
func DeleteLast(s State) State {
	if s.Marker == ErrorDisplayed || s.Buffer == "" {
		return State{Previous: s.Previous}
	}
	return State{Buffer: s.Buffer[:len(s.Buffer)-1], Previous: s.Previous}
}

// Clear resets everything.
func Clear() State {
	return State{}
}

// SeedFromHistory replaces the buffer with a stored expression or result.
// Seeding a result makes the next digit start a new expression.
func SeedFromHistory(text string, asResult bool) State {
	s := State{Buffer: text}
	if asResult {
		s.Marker = Result
	}
	return s
}

// Evaluate hands the buffer to ev. Open groups are closed first. It returns
// false, with s unchanged, when there is nothing to evaluate.
func Evaluate(s State, ev Evaluator) (State, Outcome, bool) {
	if s.Buffer == "" || s.Marker == ErrorDisplayed {
		return s, Outcome{}, false
	}

	expr := CloseParens(s.Buffer)
	previous := expr + " ="

	result, err := ev.Evaluate(expr)
	if err != nil {
		return State{Buffer: ErrorText, Previous: previous, Marker: ErrorDisplayed},
			Outcome{Expression: expr, Result: ErrorText, Err: err}, true
	}
	return State{Buffer: result, Previous: previous, Marker: Result},
		Outcome{Expression: expr, Result: result}, true
}
