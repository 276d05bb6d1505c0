package streamcore

import (
	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/options"
)

// Error values returned by this package and its backends. Compare with
// errors.Is; backends wrap them with detail.
var (
	ErrNotSupported    = options.ErrNotSupported
	ErrInvalidArgument = options.ErrInvalidArgument
	ErrReadOnly        = options.ErrReadOnly
	ErrWriteOnly       = options.ErrWriteOnly

	ErrClosed      = aio.ErrClosed
	ErrTimedOut    = aio.ErrTimedOut
	ErrConnShut    = aio.ErrConnShut
	ErrBusy        = aio.ErrBusy
	ErrState       = aio.ErrState
	ErrAddrInvalid = aio.ErrAddrInvalid
)

// Error is a transport failure tagged with the operation and address.
type Error = aio.Error
