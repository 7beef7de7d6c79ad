package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// permit does not exist in the record store or the loaded batch.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a permit record fails a data rule
// (e.g. malformed id, name not two words, FAQ missing its answer).
// Handlers should map this to HTTP 422 Unprocessable Entity.
// Generation halts on any record that wraps this error.
var ErrValidation = errors.New("validation error")

// ErrDuplicateKey is returned when two records share the composite business
// key (agency_short, request_type), or when two records would render to the
// same output path. It is a specialisation of ErrValidation: errors wrapping
// it also satisfy errors.Is(err, ErrValidation).
var ErrDuplicateKey = duplicateKeyError{}

type duplicateKeyError struct{}

func (duplicateKeyError) Error() string { return "duplicate key" }

// Is reports ErrDuplicateKey as a kind of ErrValidation.
func (duplicateKeyError) Is(target error) bool { return target == ErrValidation }
