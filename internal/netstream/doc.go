// Package netstream implements the stream, dialer and listener state
// machines shared by every backend that sits on a net.Conn.
//
// Backends supply the transport specific parts as hooks: a dial function,
// a bind function returning a net.Listener, an optional upgrade step run
// on each accepted connection (for example a TLS handshake), and the
// option descriptors they publish. Everything else (asynchronous
// submission, cancellation on close, the stop barrier, error mapping,
// metrics and logging) lives here so that every scheme behaves the same.
package netstream
