package schema

import "errors"

// Registry construction errors.
var (
	ErrInvalidName        = errors.New("invalid type or field name")
	ErrInvalidStorageID   = errors.New("storage ID must be positive")
	ErrTypeExists         = errors.New("type already registered")
	ErrDuplicateStorageID = errors.New("duplicate storage ID")
	ErrDuplicateField     = errors.New("duplicate field name")
	ErrInvalidSubFields   = errors.New("invalid sub-fields for complex field")
	ErrUnknownType        = errors.New("unknown type")
)

// Schema file errors.
var (
	ErrUnknownFieldKind = errors.New("unknown field kind")
	ErrUnknownTarget    = errors.New("reference target names no known type")
)
