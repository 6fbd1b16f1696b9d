package calc

import "math"

// EvalPostfix reduces a postfix token sequence to a single value.
func EvalPostfix(postfix []Token) (float64, error) {
	stack := make([]float64, 0, len(postfix))

	for _, tok := range postfix {
		if tok.Type == TokenNumber {
			stack = append(stack, tok.Value)
			continue
		}

		op, ok := LookupOperator(tok.Text)
		if !ok || tok.Type != TokenOperator {
			return 0, newError(UnknownOperator, "%q", tok.Text)
		}
		if len(stack) < op.Arity {
			return 0, newError(InvalidExpression, "operator %q is missing an operand", op.Symbol)
		}

		if op.Arity == 1 {
			stack[len(stack)-1] = op.Unary(stack[len(stack)-1])
			continue
		}

		b := stack[len(stack)-1]
		a := stack[len(stack)-2]
		stack = stack[:len(stack)-2]

		res, err := op.Binary(a, b)
		if err != nil {
			return 0, err
		}
		stack = append(stack, res)
	}

	if len(stack) != 1 {
		return 0, newError(InvalidExpression, "%d values left after evaluation", len(stack))
	}
	result := stack[0]
	if math.IsInf(result, 0) || math.IsNaN(result) {
		return 0, newError(InvalidExpression, "result out of range")
	}
	return result, nil
}
