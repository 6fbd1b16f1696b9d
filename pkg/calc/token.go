package calc

import "strconv"

// TokenType distinguishes numbers, operators and parentheses.
type TokenType int

const (
	TokenNumber TokenType = iota
	TokenOperator
	TokenLeftParen
	TokenRightParen
)

// Token is one lexical unit of an expression. Value is only meaningful for
// TokenNumber.
type Token struct {
	Type  TokenType
	Text  string
	Value float64
}

func (t Token) String() string {
	return t.Text
}

func numberToken(text string) (Token, error) {
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, newError(InvalidExpression, "malformed number %q", text)
	}
	return Token{Type: TokenNumber, Text: text, Value: v}, nil
}

func symbolToken(ch byte) Token {
	switch ch {
	case '(':
		return Token{Type: TokenLeftParen, Text: "("}
	case ')':
		return Token{Type: TokenRightParen, Text: ")"}
	default:
		return Token{Type: TokenOperator, Text: string(ch)}
	}
}
