package listing

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")
var ErrForbidden = errors.New("forbidden")

// ValidationError reports malformed caller input. It is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InvalidStateError reports an operation attempted against a row that
// is not in the state the operation requires. Current lets the caller
// see what the row actually is.
type InvalidStateError struct {
	Entity  string
	Current string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s is %s", e.Entity, e.Current)
}
