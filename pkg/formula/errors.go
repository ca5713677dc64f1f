package formula

import (
	"errors"
	"fmt"
)

// Error is the only error the sandbox produces: at compile time for invalid
// or disallowed expressions, at evaluate time for a missing variable or an
// evaluation fault. Callers detect it with errors.As or IsError.
type Error struct {
	Msg string
}

func (e *Error) Error() string {
	return e.Msg
}

// Errorf builds a sandbox Error the way fmt.Errorf builds a plain one.
func Errorf(format string, args ...any) *Error {
	return &Error{Msg: fmt.Sprintf(format, args...)}
}

func errorf(format string, args ...any) *Error {
	return Errorf(format, args...)
}

// IsError reports whether err is a sandbox Error.
func IsError(err error) bool {
	var fe *Error
	return errors.As(err, &fe)
}
