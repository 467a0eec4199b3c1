package registry

import "errors"

// Errors reported by registry operations. All of them are recoverable:
// callers surface them to the user and the registry state is unchanged.
var (
	// ErrNotFound indicates no scenario exists under the given id.
	ErrNotFound = errors.New("scenario not found")

	// ErrInvalidInput indicates a scenario's settings could not be
	// resolved into complete, finite groups at run time.
	ErrInvalidInput = errors.New("invalid scenario input")

	// ErrSerialization indicates an export or import document could not
	// be encoded or decoded.
	ErrSerialization = errors.New("scenario serialization failed")
)
