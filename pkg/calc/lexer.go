package calc

import "strings"

// Lexer splits an expression into tokens.
type Lexer struct {
	input  string
	pos    int
	prev   byte // last non-space byte consumed, 0 at the start
	num    strings.Builder
	tokens []Token
}

// NewLexer erstellt einen neuen Lexer
func NewLexer(input string) *Lexer {
	return &Lexer{input: input}
}

// Tokenize is a shorthand for NewLexer(expr).Tokens().
func Tokenize(expr string) ([]Token, error) {
	return NewLexer(expr).Tokens()
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// signPosition reports whether a '-' after prev is a sign rather than a
// subtraction.
func signPosition(prev byte) bool {
	return prev == 0 || prev == '(' || IsBinaryOperator(prev)
}

// Tokens scans the whole input.
func (l *Lexer) Tokens() ([]Token, error) {
	for l.pos = 0; l.pos < len(l.input); l.pos++ {
		ch := l.input[l.pos]

		switch {
		case isSpace(ch):
			continue
		case isDigit(ch) || ch == '.':
			l.num.WriteByte(ch)
		case ch == '-' && signPosition(l.prev):
			l.num.WriteByte(ch)
		case IsBinaryOperator(ch) || ch == '(' || ch == ')':
			if err := l.flush(ch); err != nil {
				return nil, err
			}
			l.tokens = append(l.tokens, symbolToken(ch))
		default:
			return nil, newError(InvalidExpression, "unexpected character %q at position %d", ch, l.pos)
		}
		l.prev = ch
	}

	if err := l.flush(0); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

// flush emits the pending number. A bare sign in front of '(' becomes the
// negation operator.
func (l *Lexer) flush(next byte) error {
	if l.num.Len() == 0 {
		return nil
	}
	text := l.num.String()
	l.num.Reset()

	if text == "-" && next == '(' {
		l.tokens = append(l.tokens, Token{Type: TokenOperator, Text: NegateSymbol})
		return nil
	}

	tok, err := numberToken(text)
	if err != nil {
		return err
	}
	l.tokens = append(l.tokens, tok)
	return nil
}
