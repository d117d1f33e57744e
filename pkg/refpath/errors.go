package refpath

import "errors"

// Path resolution errors. Resolve wraps these with the offending path and
// step text; errors.Is still matches the sentinel.
var (
	// ErrMalformedPath: the path string violates the step grammar.
	ErrMalformedPath = errors.New("malformed path")

	// ErrEmptyStartTypes: resolution was requested with no starting types.
	ErrEmptyStartTypes = errors.New("no starting types")

	// ErrUnresolvedField: a step's field or type name does not resolve in
	// the current candidate type. Prunes one cursor; fatal only when it
	// eliminates all of them.
	ErrUnresolvedField = errors.New("field does not resolve")

	// ErrNotReference: a step resolved to a field that is not a reference
	// field and therefore cannot be traversed.
	ErrNotReference = errors.New("not a reference field")

	// ErrAmbiguousPath: two interpretations of a step disagree, or
	// surviving cursors traverse different fields in different types.
	ErrAmbiguousPath = errors.New("ambiguous path")

	// ErrCannotRefer: an inverse step's field cannot refer to the current
	// candidate type.
	ErrCannotRefer = errors.New("field cannot refer to type")
)
