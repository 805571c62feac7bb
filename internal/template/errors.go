package template

import "errors"

var (
	// ErrUnhandledVariant is returned when a variant tag is outside the known set.
	ErrUnhandledVariant = errors.New("unhandled variable type")
	// ErrInvalidID is returned for identifiers that fail syntax checks.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrDuplicateID is returned when an identifier is already used in scope.
	ErrDuplicateID = errors.New("identifier already in use")
	// ErrEntityNotFound is returned when an entity internal id is unknown.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrVariableNotFound is returned when a variable internal id is unknown.
	ErrVariableNotFound = errors.New("variable not found")
)
