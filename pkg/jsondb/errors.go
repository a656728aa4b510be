package jsondb

import "errors"

// Error kinds returned by the store. Match with [errors.Is]; the returned
// errors wrap these with the offending value.
var (
	// ErrAlreadyExists is returned by [Create] when the database file exists.
	ErrAlreadyExists = errors.New("database already exists")

	// ErrTypeMismatch is returned for values outside the supported scalar
	// types, and for ids that are not integers.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidTag is returned by [DB.Insert] for a tag outside the
	// vocabulary while tags are enforced.
	ErrInvalidTag = errors.New("tag not in allowed tags")

	// ErrIndexNotFound is returned when an index is outside [0, Len()).
	ErrIndexNotFound = errors.New("index does not exist")

	// ErrNotFound is returned by [DB.FindByData] when nothing matches.
	ErrNotFound = errors.New("not in the database")

	// ErrInvalidTemplate is returned by [DB.Format] for malformed macros.
	ErrInvalidTemplate = errors.New("invalid format template")

	// ErrInvalidDocument is returned when a database file is not a valid
	// jsondb document.
	ErrInvalidDocument = errors.New("invalid database document")
)
