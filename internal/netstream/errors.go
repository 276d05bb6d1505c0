package netstream

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"syscall"

	"github.com/opd-ai/streamcore/aio"
)

// MapError converts an error from the net package into the error
// delivered to an operation. Closed sockets and cancelled contexts become
// aio.ErrClosed, orderly or abrupt peer shutdown becomes aio.ErrConnShut,
// expired deadlines become aio.ErrTimedOut. Anything else is wrapped in
// an *aio.Error for op and addr.
func MapError(op, addr string, err error) error {
	switch {
	case err == nil:
		return nil
	case isSentinel(err):
		return err
	case errors.Is(err, net.ErrClosed), errors.Is(err, context.Canceled):
		return aio.ErrClosed
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		return aio.ErrConnShut
	case errors.Is(err, os.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return aio.ErrTimedOut
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return aio.ErrTimedOut
	}
	return aio.NewError(op, addr, err)
}

func isSentinel(err error) bool {
	switch err {
	case aio.ErrClosed, aio.ErrTimedOut, aio.ErrConnShut, aio.ErrBusy, aio.ErrState, aio.ErrAddrInvalid:
		return true
	}
	var ae *aio.Error
	return errors.As(err, &ae)
}
