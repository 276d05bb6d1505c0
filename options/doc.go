// Package options implements the typed option protocol shared by streams,
// dialers and listeners.
//
// Each object publishes a Table of named options. Every option has one
// declared Type; reading or writing it with any other Type fails with
// ErrInvalidArgument, and names the object does not know fail with
// ErrNotSupported. Options are backed by closures so the owning object can
// guard its state with its own mutex.
package options
