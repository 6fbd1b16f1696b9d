package calc

// ToPostfix reorders infix tokens into postfix order (shunting-yard).
//
// Malformed parenthesization is tolerated here: a ")" without a partner
// drains the operator stack, and a "(" that is never closed is dropped at
// the end. Whatever is left wrong surfaces in EvalPostfix.
func ToPostfix(tokens []Token) []Token {
	output := make([]Token, 0, len(tokens))
	stack := make([]Token, 0, len(tokens)/2+1)

	for _, tok := range tokens {
		switch tok.Type {
		case TokenNumber:
			output = append(output, tok)

		case TokenLeftParen:
			stack = append(stack, tok)

		case TokenRightParen:
			for len(stack) > 0 && stack[len(stack)-1].Type != TokenLeftParen {
				output = append(output, stack[len(stack)-1])
				stack = stack[:len(stack)-1]
			}
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}

		case TokenOperator:
			incoming, ok := LookupOperator(tok.Text)
			if !ok {
				// left for EvalPostfix to report
				output = append(output, tok)
				continue
			}
			for len(stack) > 0 {
				top := stack[len(stack)-1]
				if top.Type != TokenOperator {
					break
				}
				topOp, _ := LookupOperator(top.Text)
				if !popsBefore(topOp, incoming) {
					break
				}
				output = append(output, top)
				stack = stack[:len(stack)-1]
			}
			stack = append(stack, tok)
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].Type == TokenLeftParen {
			continue
		}
		output = append(output, stack[i])
	}
	return output
}
