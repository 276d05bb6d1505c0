// Package tlstcp implements the tls+tcp, tls+tcp4 and tls+tcp6 stream
// backends: TCP addressing and tunables with a TLS session on top.
//
// Dialers and listeners carry a tlsconfig.Config reachable through
// TLSConfig and SetTLSConfig. A dialer's Config defaults to verifying the
// server against the URL host. A listener needs a certificate before
// Listen succeeds.
package tlstcp
