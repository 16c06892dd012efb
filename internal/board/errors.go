package board

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when no task matches an id or title.
var ErrNotFound = errors.New("task not found")

// ValidationError reports input that does not satisfy the task contract.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
