package document

import "errors"

// Sentinel errors for document operations.
var (
	ErrParse         = errors.New("input is not a valid PDF document")
	ErrIndex         = errors.New("page index out of range")
	ErrSerialization = errors.New("document could not be serialized")
)
