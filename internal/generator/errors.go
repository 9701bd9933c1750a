package generator

import (
	"errors"
	"fmt"
)

// tooBusyError signals that the worker pool queue is full.
type tooBusyError struct{ waiting int }

func (e tooBusyError) Error() string {
	return fmt.Sprintf("too busy: generation queue is full (%d waiting)", e.waiting)
}

// IsTooBusy reports whether err indicates backpressure from the worker pool.
func IsTooBusy(err error) bool {
	var tb tooBusyError
	return errors.As(err, &tb)
}

// poolClosedError signals a request arriving after Close.
type poolClosedError struct{}

func (poolClosedError) Error() string { return "generator is shutting down" }

// IsPoolClosed reports whether err indicates the generator was closed.
func IsPoolClosed(err error) bool {
	var pc poolClosedError
	return errors.As(err, &pc)
}

// invalidRequestError rejects a request before it reaches the pool.
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return "invalid request: " + e.msg }

// IsInvalidRequest reports whether err was caused by request validation.
func IsInvalidRequest(err error) bool {
	var ir invalidRequestError
	return errors.As(err, &ir)
}

// errNoEngine is returned by New when Config.Engine is nil.
var errNoEngine = errors.New("generator: engine is required")
