package ant

import (
	"errors"
	"fmt"
)

// ErrNoSession is returned by calls that need a session made before Login.
var ErrNoSession = errors.New("ant: no session")

// Server return codes carried in the response envelope.
const (
	RetcodeOK           = 0
	RetcodeFailed       = 1
	RetcodeUnauthorized = 2
)

// StatusError is an HTTP response with status >= 400.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("ant HTTP %d: %s", e.Code, e.Body)
}

// RetcodeError is a well-formed envelope reporting failure.
type RetcodeError struct {
	Code int
	Msg  string
}

func (e *RetcodeError) Error() string {
	return fmt.Sprintf("ant error %d: %s", e.Code, e.Msg)
}

// DecodeError is a response body that could not be parsed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("ant decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
