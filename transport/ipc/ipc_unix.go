//go:build unix

package ipc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/config"
	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/opd-ai/streamcore/internal/peercred"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/options"
	"github.com/sirupsen/logrus"
)

// staleProbeTimeout bounds the connect attempt used to decide whether an
// existing socket file still has a listener behind it.
const staleProbeTimeout = 100 * time.Millisecond

// address resolves a URL into the name passed to the net package.
// Abstract names are prefixed with "@".
func address(u *url.URL) (string, bool, error) {
	path, err := PathFromURL(u)
	if err != nil {
		return "", false, err
	}
	if u.Scheme == "abstract" {
		if !abstractSupported {
			return "", false, fmt.Errorf("%w: abstract sockets", options.ErrNotSupported)
		}
		if err := limits.ValidateIPCPath(path); err != nil {
			return "", false, fmt.Errorf("%w: %v", aio.ErrAddrInvalid, err)
		}
		return "@" + path, true, nil
	}
	if err := limits.ValidateIPCPath(path); err != nil {
		return "", false, fmt.Errorf("%w: %v", aio.ErrAddrInvalid, err)
	}
	return path, false, nil
}

func streamOptions(c net.Conn) []options.Option {
	cred := func(pick func(peercred.Cred) int32) func() (any, error) {
		return func() (any, error) {
			pc, err := peercred.Get(c)
			if err != nil {
				return nil, err
			}
			return pick(pc), nil
		}
	}
	return []options.Option{
		options.ReadOnly(options.PeerUID, options.TypeInt32, cred(func(pc peercred.Cred) int32 { return pc.UID })),
		options.ReadOnly(options.PeerGID, options.TypeInt32, cred(func(pc peercred.Cred) int32 { return pc.GID })),
		options.ReadOnly(options.PeerPID, options.TypeInt32, cred(func(pc peercred.Cred) int32 { return pc.PID })),
	}
}

// Dialer dials Unix-domain streams.
type Dialer struct {
	*netstream.Dialer
	scheme string
	addr   string
}

// NewDialer creates a dialer for an ipc, unix or abstract URL.
func NewDialer(u *url.URL) (*Dialer, error) {
	addr, _, err := address(u)
	if err != nil {
		return nil, err
	}
	d := &Dialer{scheme: u.Scheme, addr: addr}
	d.Dialer = netstream.NewDialer(netstream.DialerConfig{
		Scheme: u.Scheme,
		URL:    u,
		Dial:   d.dial,
	})
	return d, nil
}

func (d *Dialer) dial(ctx context.Context) (*netstream.Conn, error) {
	var nd net.Dialer
	c, err := nd.DialContext(ctx, "unix", d.addr)
	if err != nil {
		return nil, err
	}
	return netstream.NewConn(d.scheme, c, streamOptions(c)...), nil
}

// Listener accepts Unix-domain streams.
type Listener struct {
	*netstream.Listener

	mu          sync.Mutex
	scheme      string
	addr        string
	abstract    bool
	permissions int32
	bound       bool
}

// NewListener creates a listener for an ipc, unix or abstract URL.
func NewListener(u *url.URL) (*Listener, error) {
	addr, abstract, err := address(u)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		scheme:      u.Scheme,
		addr:        addr,
		abstract:    abstract,
		permissions: config.Defaults().IPCPermissions,
	}
	var opts []options.Option
	if !abstract {
		opts = append(opts, options.CheckedField(options.IPCPermissions, options.TypeInt32, &l.mu, &l.permissions, l.checkPermissions))
	}
	l.Listener = netstream.NewListener(netstream.ListenerConfig{
		Scheme:  u.Scheme,
		URL:     u,
		Mu:      &l.mu,
		Bind:    l.bind,
		Upgrade: l.upgrade,
		Options: opts,
	})
	if !abstract {
		l.OnFree(l.removeSocket)
	}
	return l, nil
}

func (l *Listener) checkPermissions(mode int32) error {
	if l.bound {
		return fmt.Errorf("%w: permissions must be set before listening", aio.ErrBusy)
	}
	if mode < 0 || mode > config.MaxIPCPermissions {
		return fmt.Errorf("%w: permissions %#o", options.ErrInvalidArgument, mode)
	}
	return nil
}

func (l *Listener) bind() (net.Listener, error) {
	if !l.abstract {
		if err := removeStale(l.addr); err != nil {
			return nil, err
		}
	}
	ln, err := net.ListenUnix("unix", &net.UnixAddr{Name: l.addr, Net: "unix"})
	if err != nil {
		return nil, err
	}
	if l.abstract {
		l.bound = true
		return ln, nil
	}
	ln.SetUnlinkOnClose(false)
	if l.permissions != 0 {
		if err := os.Chmod(l.addr, fs.FileMode(l.permissions)); err != nil {
			ln.Close()
			os.Remove(l.addr)
			return nil, err
		}
	}
	l.bound = true
	return ln, nil
}

// removeStale deletes a socket file left behind by a listener that is
// gone. A socket that still accepts connections is reported in use.
func removeStale(path string) error {
	fi, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if fi.Mode()&fs.ModeSocket == 0 {
		return syscall.EADDRINUSE
	}
	c, err := net.DialTimeout("unix", path, staleProbeTimeout)
	if err == nil {
		c.Close()
		return syscall.EADDRINUSE
	}
	if !errors.Is(err, syscall.ECONNREFUSED) {
		return syscall.EADDRINUSE
	}
	logrus.WithFields(logrus.Fields{
		"function": "ipc.removeStale",
		"path":     path,
	}).Info("Removing stale socket file")
	return os.Remove(path)
}

func (l *Listener) upgrade(_ context.Context, c net.Conn) (*netstream.Conn, error) {
	return netstream.NewConn(l.scheme, c, streamOptions(c)...), nil
}

func (l *Listener) removeSocket() {
	l.mu.Lock()
	bound := l.bound
	l.mu.Unlock()
	if !bound {
		return
	}
	if err := os.Remove(l.addr); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithFields(logrus.Fields{
			"function": "Listener.removeSocket",
			"path":     l.addr,
			"error":    err.Error(),
		}).Warn("Failed to remove socket file")
	}
}
