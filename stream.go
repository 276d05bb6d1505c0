package streamcore

import (
	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/options"
	"github.com/opd-ai/streamcore/tlsconfig"
)

// Configurable is the option protocol shared by streams, dialers and
// listeners.
type Configurable interface {
	// Get reads option name, which must be declared with type t.
	Get(name string, t options.Type) (any, error)
	// Set writes option name, which must be declared with type t.
	Set(name string, v any, t options.Type) error
}

// Stream is an open, bidirectional byte connection. A Stream is only ever
// produced by a dial or accept completion; its owner must Free it.
type Stream interface {
	Configurable

	// Close makes pending and later operations fail with ErrClosed.
	Close()
	// Stop closes and waits for every submitted operation to complete.
	Stop()
	// Free stops and releases the stream.
	Free()

	// Send writes the op's buffers. The count is the bytes written.
	Send(op *aio.Op)
	// Recv reads into the op's first non-empty buffer. The count may be
	// short.
	Recv(op *aio.Op)
}

// Dialer creates outbound streams for one URL.
type Dialer interface {
	Configurable

	Close()
	Stop()
	Free()

	// Dial starts a connection attempt. On success the op's output is
	// the new Stream. Concurrent dials are independent.
	Dial(op *aio.Op)
}

// Listener accepts inbound streams on one local address.
type Listener interface {
	Configurable

	Close()
	Stop()
	Free()

	// Listen binds the address. It fails with ErrBusy when already
	// listening and ErrClosed after Close.
	Listen() error
	// Accept waits for the next inbound stream. On success the op's
	// output is the new Stream. Accept before Listen fails with ErrState.
	Accept(op *aio.Op)
}

// TLSConfigurer is implemented by dialers and listeners of TLS-secured
// schemes.
type TLSConfigurer interface {
	TLSConfig() (*tlsconfig.Config, error)
	SetTLSConfig(cfg *tlsconfig.Config) error
}

// SecurityDescriptorSetter is implemented by listeners that accept a
// platform access control descriptor before Listen.
type SecurityDescriptorSetter interface {
	SetSecurityDescriptor(desc any) error
}

// OpStream returns the Stream produced by a completed dial or accept, or
// nil if the op failed or produced none.
func OpStream(op *aio.Op) Stream {
	if op == nil || op.Err() != nil {
		return nil
	}
	s, _ := op.Output().(Stream)
	return s
}
