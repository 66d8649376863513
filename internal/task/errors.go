package task

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("task not found")
	ErrForbidden = errors.New("task belongs to another owner")
	ErrConflict  = errors.New("task was modified concurrently")
)

// InvalidArgumentError names the offending condition so the caller
// sees a human-readable reason, not just a status code.
type InvalidArgumentError struct {
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return e.Reason
}

func invalidf(format string, args ...any) error {
	return &InvalidArgumentError{Reason: fmt.Sprintf(format, args...)}
}
