package refpath

import (
	"fmt"
	"strings"
)

// Direction markers of the path grammar: ("->"|"<-") steptext, repeated.
const (
	forwardMarker = "->"
	inverseMarker = "<-"
)

// step is one tokenized hop: a direction plus the unprefixed step text.
type step struct {
	inverse bool
	text    string
}

// tokenize splits a path string into ordered steps. The empty string is a
// valid zero-step path denoting the starting object itself. Returns
// ErrMalformedPath when the string does not begin with a direction marker
// or a step body is empty.
func tokenize(path string) ([]step, error) {
	var steps []step
	rest := path
	for rest != "" {
		var inverse bool
		switch {
		case strings.HasPrefix(rest, forwardMarker):
			inverse = false
		case strings.HasPrefix(rest, inverseMarker):
			inverse = true
		default:
			return nil, fmt.Errorf("%w: expected %q or %q at %q",
				ErrMalformedPath, forwardMarker, inverseMarker, rest)
		}
		rest = rest[len(forwardMarker):]

		end := len(rest)
		if i := strings.Index(rest, forwardMarker); i >= 0 {
			end = i
		}
		if i := strings.Index(rest, inverseMarker); i >= 0 && i < end {
			end = i
		}
		if end == 0 {
			return nil, fmt.Errorf("%w: empty step", ErrMalformedPath)
		}
		steps = append(steps, step{inverse: inverse, text: rest[:end]})
		rest = rest[end:]
	}
	return steps, nil
}

// String renders the step back in path syntax.
func (s step) String() string {
	if s.inverse {
		return inverseMarker + s.text
	}
	return forwardMarker + s.text
}
