// Package peercred reads the credentials of the process at the other end
// of a Unix-domain socket.
package peercred

import (
	"errors"
	"fmt"
	"net"

	"github.com/opd-ai/streamcore/options"
)

// Cred identifies a peer process.
type Cred struct {
	UID int32
	GID int32
	PID int32
}

// ErrUnavailable is returned where the platform cannot report credentials.
var ErrUnavailable = fmt.Errorf("%w: peer credentials unavailable", options.ErrNotSupported)

// Get returns the peer credentials of c, which must be a *net.UnixConn.
func Get(c net.Conn) (Cred, error) {
	uc, ok := c.(*net.UnixConn)
	if !ok {
		return Cred{}, ErrUnavailable
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return Cred{}, err
	}
	var cred Cred
	var credErr error
	if err := raw.Control(func(fd uintptr) {
		cred, credErr = fromFD(int(fd))
	}); err != nil {
		return Cred{}, err
	}
	if credErr != nil && !errors.Is(credErr, options.ErrNotSupported) {
		credErr = fmt.Errorf("peer credentials: %w", credErr)
	}
	return cred, credErr
}
