// Package composer builds an arithmetic expression from discrete key events.
//
// Every operation is a pure function from one State to the next. The
// composer rejects edits that would make the buffer malformed. Rejected
// edits return the input state unchanged.
package composer

import "fmt"

// Marker tells how the next input event is interpreted.
type Marker int

const (
	// Composing appends to the buffer.
	Composing Marker = iota
	// Result means the buffer holds a freshly computed result; a digit or
	// dot starts a new expression, an operator continues from the result.
	Result
	// ErrorDisplayed means the last evaluation failed. Any input starts over.
	ErrorDisplayed
)

func (m Marker) String() string {
	switch m {
	case Composing:
		return "composing"
	case Result:
		return "result"
	case ErrorDisplayed:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the marker by name in JSON and YAML.
func (m Marker) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText parses a marker name.
func (m *Marker) UnmarshalText(text []byte) error {
	for _, candidate := range []Marker{Composing, Result, ErrorDisplayed} {
		if candidate.String() == string(text) {
			*m = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown marker %q", text)
}

// ErrorText is the buffer content shown after a failed evaluation.
const ErrorText = "Error"

// State is the complete composer state.
type State struct {
	Buffer   string // expression being composed, or the last result
	Previous string // display-only annotation such as "2+3 ="
	Marker   Marker
}

// Display returns what a calculator screen shows for the state.
func (s State) Display() string {
	if s.Buffer == "" {
		return "0"
	}
	return s.Buffer
}

// Empty reports whether nothing has been typed.
func (s State) Empty() bool {
	return s.Buffer == ""
}
