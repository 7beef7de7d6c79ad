// Package loader reads permit records from JSON and CSV files and validates
// them before generation. Every problem is reported as a *DataError carrying
// the offending record's identity; a batch with any error must not be
// published.
package loader

import (
	"fmt"
	"strings"

	"github.com/pkordes/permitsite/internal/domain"
)

// DataError describes one invalid permit record.
// It wraps domain.ErrValidation, or domain.ErrDuplicateKey for uniqueness
// failures, so callers can test it with errors.Is.
type DataError struct {
	Source string // file the record came from, if known
	Index  int    // zero-based position in the source
	ID     string
	Key    domain.CompositeKey
	Field  string
	Reason string
	Err    error
}

func (e *DataError) Error() string {
	var b strings.Builder
	if e.Source != "" {
		b.WriteString(e.Source)
		b.WriteString(": ")
	}
	fmt.Fprintf(&b, "permit[%d]", e.Index)
	if e.ID != "" {
		fmt.Fprintf(&b, " id=%s", e.ID)
	}
	if e.Key != (domain.CompositeKey{}) {
		fmt.Fprintf(&b, " key=%q", e.Key.String())
	}
	if e.Field != "" {
		fmt.Fprintf(&b, " field %s", e.Field)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *DataError) Unwrap() error {
	if e.Err == nil {
		return domain.ErrValidation
	}
	return e.Err
}

func newDataError(idx int, p domain.Permit, field, format string, args ...any) *DataError {
	return &DataError{
		Index:  idx,
		ID:     p.ID,
		Key:    p.Key(),
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
		Err:    domain.ErrValidation,
	}
}
