package aio

import (
	"errors"
	"fmt"
)

// Result codes delivered through Op.Err or returned by synchronous calls.
var (
	// ErrClosed indicates the object the operation was submitted to was closed
	ErrClosed = errors.New("object closed")

	// ErrTimedOut indicates the operation's timeout expired before it completed
	ErrTimedOut = errors.New("operation timed out")

	// ErrConnShut indicates the remote peer shut the connection down
	ErrConnShut = errors.New("connection shutdown")

	// ErrBusy indicates the object is already in the requested state or in use
	ErrBusy = errors.New("resource busy")

	// ErrState indicates the object is not in a state that permits the operation
	ErrState = errors.New("incorrect state")

	// ErrAddrInvalid indicates a malformed or unusable address
	ErrAddrInvalid = errors.New("address invalid")
)

// Error carries the operation and address context of a transport failure.
type Error struct {
	Op   string // operation that caused the error
	Addr string // address if relevant
	Err  error  // underlying error
}

func (e *Error) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("stream %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("stream %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with op and addr context. A nil err yields nil.
func NewError(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Addr: addr, Err: err}
}
