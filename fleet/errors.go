package fleet

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by Backend implementations.
var (
	// ErrNotConnected means a call was made without an established session.
	ErrNotConnected = errors.New("not connected")
	ErrNetwork      = errors.New("network error")
	ErrAuth         = errors.New("authentication failed")
	ErrServer       = errors.New("server error")
	ErrParse        = errors.New("malformed response")
)

// Error wraps a backend failure with its kind and the operation that failed.
// errors.Is matches both the kind and the wrapped cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.Kind }

// ErrorKind returns the taxonomy kind of err, or nil when err is not a
// classified backend error.
func ErrorKind(err error) error {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	if errors.Is(err, ErrNotConnected) {
		return ErrNotConnected
	}
	return nil
}
