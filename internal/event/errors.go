package event

import (
	"errors"
	"fmt"
)

var (
	// ErrNotNumeric indicates a field that must be a positive number is not.
	ErrNotNumeric = errors.New("field is not a positive number")

	// ErrUnexpected indicates decoding failed for a reason other than
	// the record layout, e.g. a recovered panic.
	ErrUnexpected = errors.New("unexpected decode failure")
)

// DecodeError reports a line that matched a record shape but could not be
// decoded.
type DecodeError struct {
	Kind  Kind
	Field int // token index, -1 if not field specific
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Field >= 0 {
		return fmt.Sprintf("decode %s: field %d: %v", e.Kind, e.Field, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
