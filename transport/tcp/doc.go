// Package tcp implements the tcp, tcp4 and tcp6 stream backends.
//
// URLs have the form tcp://host:port. Dialers require a host and a
// non-zero port. Listeners accept an empty host or "*" for all
// interfaces and port 0 for an ephemeral port, reported by the
// tcp-bound-port option once listening.
//
// The address and tunable handling here is shared with the tls+tcp
// backend through Settings, ResolveDial and ResolveListen.
package tcp
