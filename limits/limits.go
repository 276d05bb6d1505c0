package limits

import (
	"errors"
	"fmt"
)

const (
	// MaxStringOption is the longest value accepted by a string option
	MaxStringOption = 8192

	// MaxIPCPath is the longest Unix-domain socket path (sun_path is 108 bytes)
	MaxIPCPath = 107

	// DefaultRecvMax is the default limit for one received WebSocket message
	DefaultRecvMax = 1024 * 1024

	// MaxRecvSize is the largest value recv-size-max may be set to
	MaxRecvSize = 64 * 1024 * 1024

	// SocketFDQueue is the number of descriptors a socket listener holds
	// before it refuses more
	SocketFDQueue = 16

	// AcceptQueue is the number of inbound connections a listener takes
	// from the kernel backlog before an Accept claims them, handshakes in
	// progress included
	AcceptQueue = 16
)

var (
	// ErrEmpty indicates an empty value where one is required
	ErrEmpty = errors.New("empty value")

	// ErrTooLarge indicates a value exceeds its maximum size
	ErrTooLarge = errors.New("value too large")
)

// ValidateSize checks that n is within [0, max].
// Returns an error with context including the actual and maximum sizes.
func ValidateSize(n, max int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative size %d", ErrTooLarge, n)
	}
	if n > max {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrTooLarge, n, max)
	}
	return nil
}

// ValidateString validates a string option value against MaxStringOption.
// The empty string is valid.
func ValidateString(s string) error {
	if len(s) > MaxStringOption {
		return fmt.Errorf("%w: string length %d exceeds limit %d", ErrTooLarge, len(s), MaxStringOption)
	}
	return nil
}

// ValidateIPCPath validates a Unix-domain socket path.
// Returns ErrEmpty for an empty path and ErrTooLarge past MaxIPCPath.
func ValidateIPCPath(path string) error {
	if path == "" {
		return ErrEmpty
	}
	if len(path) > MaxIPCPath {
		return fmt.Errorf("%w: path length %d exceeds limit %d", ErrTooLarge, len(path), MaxIPCPath)
	}
	return nil
}

// ValidateRecvSize validates a receive limit against MaxRecvSize.
// Zero means unlimited and is accepted.
func ValidateRecvSize(n int) error {
	return ValidateSize(n, MaxRecvSize)
}
