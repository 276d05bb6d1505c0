// Package ipc implements local inter-process stream backends.
//
// On POSIX systems the ipc and unix schemes name a Unix-domain socket
// path (ipc:///tmp/app.sock or ipc://relative.sock) and, on Linux, the
// abstract scheme names a socket in the abstract namespace
// (abstract://name). On Windows the ipc scheme names a named pipe under
// \\.\pipe\ and listeners accept an SDDL security descriptor through
// SetSecurityDescriptor before Listen.
package ipc

import (
	"fmt"
	"net/url"

	"github.com/opd-ai/streamcore/aio"
)

// PathFromURL extracts the socket path or name from an ipc, unix or
// abstract URL. Everything after the "scheme://" prefix is the path.
func PathFromURL(u *url.URL) (string, error) {
	if u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmt.Errorf("%w: unexpected URL components in %q", aio.ErrAddrInvalid, u.String())
	}
	path := u.Opaque
	if path == "" {
		path = u.Host + u.Path
	}
	if path == "" {
		return "", fmt.Errorf("%w: empty %s path", aio.ErrAddrInvalid, u.Scheme)
	}
	return path, nil
}
