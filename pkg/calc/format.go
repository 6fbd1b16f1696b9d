package calc

import "strconv"

// Precision is the number of decimal places results are rounded to. It
// hides binary floating point noise such as 0.1+0.2 = 0.30000000000000004.
const Precision = 10

// FormatResult rounds v to Precision places and renders the shortest
// decimal form without trailing zeros. Negative zero renders as "0".
func FormatResult(v float64) string {
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', Precision, 64), 64)
	if err != nil {
		rounded = v
	}
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Canonicalize reformats an already formatted result. Applying it to the
// output of FormatResult returns the same string.
func Canonicalize(s string) (string, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", newError(InvalidExpression, "malformed number %q", s)
	}
	return FormatResult(v), nil
}
