package engine

import (
	"errors"
	"fmt"
)

// ModelError reports a failure of the generation engine itself (bad input,
// resource exhaustion, backend fault).
type ModelError struct {
	Op  string
	Err error
}

func (e *ModelError) Error() string {
	if e.Op == "" {
		return "model error: " + e.Err.Error()
	}
	return fmt.Sprintf("model error: %s: %v", e.Op, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// NewModelError wraps err as a ModelError for operation op.
func NewModelError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &ModelError{Op: op, Err: err}
}

// IsModelError reports whether err (or anything it wraps) is a ModelError.
func IsModelError(err error) bool {
	var me *ModelError
	return errors.As(err, &me)
}

// dependencyUnavailableError signals a missing runtime dependency (e.g., the
// binary was built without llama.cpp) so callers can report Unavailable.
type dependencyUnavailableError struct{ msg string }

func (e dependencyUnavailableError) Error() string { return e.msg }

// ErrDependencyUnavailable constructs a dependencyUnavailableError.
func ErrDependencyUnavailable(msg string) error { return dependencyUnavailableError{msg: msg} }

// IsDependencyUnavailable reports whether err indicates a missing runtime dependency.
func IsDependencyUnavailable(err error) bool {
	var de dependencyUnavailableError
	return errors.As(err, &de)
}
