package composer

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antibyte/retrocalc/pkg/calc"
)

// run applies actions starting from the empty state.
func run(t *testing.T, actions ...Action) State {
	t.Helper()
	var s State
	for _, a := range actions {
		s, _ = Apply(s, a, calc.NewEvaluatorWithCache(nil))
	}
	return s
}

func keys(seq string) []Action {
	out := make([]Action, 0, len(seq))
	for i := 0; i < len(seq); i++ {
		ch := seq[i]
		switch {
		case ch >= '0' && ch <= '9', ch == '.':
			out = append(out, Digit(ch))
		case strings.IndexByte("+-*/%", ch) >= 0:
			out = append(out, Operator(ch))
		case ch == '(' || ch == ')':
			out = append(out, Paren())
		case ch == '<':
			out = append(out, Delete())
		case ch == 'C':
			out = append(out, ClearAll())
		case ch == '=':
			out = append(out, Equals())
		}
	}
	return out
}

func TestComposeSequences(t *testing.T) {
	tests := []struct {
		name   string
		keys   string
		buffer string
		marker Marker
	}{
		{"operator replaces operator", "5++", "5+", Composing},
		{"last operator wins", "5+*/", "5/", Composing},
		{"dot on empty gets zero", ".", "0.", Composing},
		{"dot after operator gets zero", "5+.", "5+0.", Composing},
		{"second dot ignored", "1.2.3", "1.23", Composing},
		{"dot in new segment", "1.2+3.4", "1.2+3.4", Composing},
		{"operator on empty rejected", "*", "", Composing},
		{"minus on empty seeds sign", "-5", "-5", Composing},
		{"sign not replaced by operator", "-+", "-", Composing},
		{"minus after paren", "(-2", "(-2", Composing},
		{"operator after paren rejected", "(*", "(", Composing},
		{"paren opens after operator", "2*(", "2*(", Composing},
		{"paren closes group", "2*(3+4)", "2*(3+4)", Composing},
		{"paren reopens when balanced", "(1)(", "(1)(", Composing},
		{"delete last", "12+<", "12", Composing},
		{"delete on empty", "<", "", Composing},
		{"clear", "12+3C", "", Composing},
		{"evaluate", "2+3*4=", "14", Result},
		{"digit after result starts fresh", "2+3=7", "7", Composing},
		{"dot after result starts fresh", "2+3=.", "0.", Composing},
		{"operator continues result", "2+3=*2", "5*2", Composing},
		{"paren after result appends", "2+3=(", "5(", Composing},
		{"delete after result edits", "12+3=<", "1", Composing},
		{"auto close on evaluate", "2*(3+4=", "14", Result},
		{"empty evaluate is no-op", "=", "", Composing},
		{"failure shows error", "1/0=", ErrorText, ErrorDisplayed},
		{"digit after error", "1/0=7", "7", Composing},
		{"minus after error", "1/0=-", "-", Composing},
		{"operator after error", "1/0=*", "", Composing},
		{"paren after error", "1/0=(", "(", Composing},
		{"delete after error", "1/0=<", "", Composing},
		{"evaluate after error is no-op", "1/0==", ErrorText, ErrorDisplayed},
		{"dangling operator", "5*-=", ErrorText, ErrorDisplayed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := run(t, keys(tt.keys)...)
			assert.Equal(t, tt.buffer, s.Buffer)
			assert.Equal(t, tt.marker, s.Marker)
		})
	}
}

func TestEvaluatePrevious(t *testing.T) {
	s := run(t, keys("2*(3+4")...)
	next, outcome, ok := Evaluate(s, calc.NewEvaluatorWithCache(nil))
	require.True(t, ok)
	assert.Equal(t, "2*(3+4) =", next.Previous)
	assert.Equal(t, Outcome{Expression: "2*(3+4)", Result: "14"}, outcome)
	assert.False(t, outcome.Failed())

	fresh := AppendDigitOrDot(next, '1')
	assert.Empty(t, fresh.Previous)

	cont := AppendOperator(next, '+')
	assert.Equal(t, "2*(3+4) =", cont.Previous)
}

func TestEvaluateFailureOutcome(t *testing.T) {
	s := State{Buffer: "10/0"}
	next, outcome, ok := Evaluate(s, calc.NewEvaluatorWithCache(nil))
	require.True(t, ok)
	assert.True(t, outcome.Failed())
	assert.ErrorIs(t, outcome.Err, calc.ErrDivideByZero)
	assert.Equal(t, ErrorText, outcome.Result)
	assert.Equal(t, "10/0 =", next.Previous)
}

func TestMarkerIsNotInferredFromBuffer(t *testing.T) {
	// a buffer that happens to equal the error text is still composable
	s := State{Buffer: ErrorText}
	assert.Equal(t, ErrorText+"1", AppendDigitOrDot(s, '1').Buffer)
	assert.Equal(t, "Erro", DeleteLast(s).Buffer)

	evaluated := false
	ev := EvaluatorFunc(func(expr string) (string, error) {
		evaluated = true
		return "", errors.New("boom")
	})
	_, _, ok := Evaluate(State{Buffer: "1", Marker: ErrorDisplayed}, ev)
	assert.False(t, ok)
	assert.False(t, evaluated)
}

func TestSeedFromHistory(t *testing.T) {
	s := SeedFromHistory("2+3", false)
	assert.Equal(t, Composing, s.Marker)
	assert.Equal(t, "2+37", AppendDigitOrDot(s, '7').Buffer)

	s = SeedFromHistory("5", true)
	assert.Equal(t, Result, s.Marker)
	assert.Equal(t, "7", AppendDigitOrDot(s, '7').Buffer)
	assert.Equal(t, "5+", AppendOperator(s, '+').Buffer)
}

func TestInvalidCharactersRejected(t *testing.T) {
	s := State{Buffer: "1"}
	assert.Equal(t, s, AppendDigitOrDot(s, 'x'))
	assert.Equal(t, s, AppendOperator(s, '^'))
	next, outcome := Apply(s, Action{}, nil)
	assert.Equal(t, s, next)
	assert.Nil(t, outcome)
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "0", State{}.Display())
	assert.Equal(t, "12", State{Buffer: "12"}.Display())
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "3.4", CurrentNumberSegment("1.2+3.4"))
	assert.Equal(t, "", CurrentNumberSegment("2*("))
	assert.Equal(t, "12", CurrentNumberSegment("12"))
	assert.Equal(t, 2, OpenParens("((1+(2)"))
	assert.Equal(t, "((1+(2)))", CloseParens("((1+(2)"))
	assert.Equal(t, "1", CloseParens("1"))
}

func TestActionKindNames(t *testing.T) {
	for kind := ActionNone; kind <= ActionEvaluate; kind++ {
		parsed, ok := ParseActionKind(kind.String())
		require.True(t, ok)
		assert.Equal(t, kind, parsed)
	}
	_, ok := ParseActionKind("explode")
	assert.False(t, ok)
	assert.Equal(t, "digit(7)", Digit('7').String())
}

func checkBufferInvariants(t *testing.T, buf string, history []Action) {
	t.Helper()

	depth := 0
	for i := 0; i < len(buf); i++ {
		switch ch := buf[i]; {
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			require.GreaterOrEqual(t, depth, 0, "over-closed %q after %v", buf, history)
		case isOperator(ch) && i > 0 && isOperator(buf[i-1]):
			require.True(t, ch == '-' && signAt(buf, i), "stacked operators %q after %v", buf, history)
		}
	}

	for _, seg := range strings.FieldsFunc(buf, func(r rune) bool {
		return strings.ContainsRune("+-*/%()", r)
	}) {
		require.LessOrEqual(t, strings.Count(seg, "."), 1, "two dots in %q after %v", buf, history)
	}
}

func TestRandomSequencesKeepBufferWellFormed(t *testing.T) {
	alphabet := keys("0123456789.+-*/%()<C=")
	ev := calc.NewEvaluatorWithCache(calc.NewPostfixCache(64))
	r := rand.New(rand.NewSource(42))

	for round := 0; round < 500; round++ {
		var s State
		var history []Action
		for step := 0; step < 30; step++ {
			a := alphabet[r.Intn(len(alphabet))]
			history = append(history, a)
			s, _ = Apply(s, a, ev)
			if s.Marker == ErrorDisplayed {
				assert.Equal(t, ErrorText, s.Buffer)
				continue
			}
			checkBufferInvariants(t, s.Buffer, history)
		}
	}
}
