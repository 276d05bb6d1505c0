// Package streamcore provides transport-agnostic byte streams.
//
// A caller picks a transport by URL scheme, configures the resulting
// dialer or listener through typed options, and receives [Stream] values
// from asynchronous dial and accept operations. Every backend behaves the
// same way at this seam: the same lifecycle, the same option protocol,
// the same error values.
//
// # Getting Started
//
// Listen and dial over TCP:
//
//	l, err := streamcore.NewListener("tcp://127.0.0.1:5555")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer streamcore.Free(l)
//	if err := l.Listen(); err != nil {
//	    log.Fatal(err)
//	}
//
//	accept := aio.NewOp(nil)
//	streamcore.Accept(l, accept)
//
//	d, _ := streamcore.NewDialer("tcp://127.0.0.1:5555")
//	defer streamcore.Free(d)
//	dial := aio.NewOp(nil)
//	streamcore.Dial(d, dial)
//
//	dial.Wait()
//	s := streamcore.OpStream(dial)
//	defer streamcore.Free(s)
//
// # Schemes
//
// The registry is fixed when the package initializes. [Schemes] lists it
// in lookup order:
//
//   - ipc, unix, abstract: local sockets (unix on POSIX, abstract on Linux,
//     ipc as a named pipe on Windows)
//   - tcp, tcp4, tcp6: TCP
//   - tls+tcp, tls+tcp4, tls+tcp6: TLS over TCP
//   - ws, ws4, ws6, wss, wss4, wss6: WebSocket, plain and TLS-secured
//   - socket: connected descriptors handed to a listener (POSIX)
//
// Builds tagged streamcore_noipv6 drop the 6 variants and builds tagged
// streamcore_nosockfd drop socket.
//
// # Lifecycle
//
// Streams, dialers and listeners share a three step teardown. Close is
// idempotent and makes pending operations fail with [ErrClosed]. Stop
// closes and then waits until every submitted operation has completed,
// callbacks included; after Stop returns no further completion fires.
// Free stops if needed and releases the object. The package level
// [Close], [Stop] and [Free] accept nil.
//
// Completion callbacks must not call Stop or Free on the object that
// completed them.
//
// # Operations
//
// Send, Recv, Dial and Accept take a caller-owned [aio.Op] that completes
// exactly once per submission. The package level helpers reset the op
// before submitting it. Submitting an op that is still pending panics.
// An op timeout fails the submission with [ErrTimedOut].
//
// # Options
//
// Objects publish named options of a declared [options.Type]. Asking for
// an unknown name fails with [ErrNotSupported] and asking with the wrong
// type fails with [ErrInvalidArgument]. The typed helpers such as
// [GetBool] and [SetDuration] wrap Get and Set for every object kind.
//
// # Capabilities
//
// Secured backends implement [TLSConfigurer]; Windows IPC listeners
// implement [SecurityDescriptorSetter]. [GetDialerTLS], [SetListenerTLS]
// and [SetSecurityDescriptor] report [ErrNotSupported] when the object
// lacks the capability, which callers should treat as absence rather
// than failure.
package streamcore
