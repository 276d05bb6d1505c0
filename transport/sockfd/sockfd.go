//go:build unix && !streamcore_nosockfd

package sockfd

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"sync"
	"sync/atomic"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/options"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// NewDialer fails: descriptor sockets cannot be dialed.
func NewDialer(u *url.URL) (*netstream.Dialer, error) {
	return nil, fmt.Errorf("%w: %s dialer", options.ErrNotSupported, u.Scheme)
}

// Listener accepts streams from descriptors supplied through socket:fd.
type Listener struct {
	*netstream.Listener

	mu     sync.Mutex
	scheme string
	queue  *fdQueue
}

// NewListener creates a listener for a socket:// URL.
func NewListener(u *url.URL) (*Listener, error) {
	if u.Host != "" || (u.Path != "" && u.Path != "/") || u.RawQuery != "" {
		return nil, fmt.Errorf("%w: socket URL takes no address", aio.ErrAddrInvalid)
	}
	l := &Listener{scheme: u.Scheme}
	l.Listener = netstream.NewListener(netstream.ListenerConfig{
		Scheme: u.Scheme,
		URL:    u,
		Mu:     &l.mu,
		Bind:   l.bind,
		Serve:  l.serve,
		Options: []options.Option{
			options.WriteOnly(options.SocketFD, options.TypeInt32, l.addFD),
		},
	})
	return l, nil
}

func (l *Listener) bind() (net.Listener, error) {
	l.queue = newFDQueue()
	return l.queue, nil
}

// serve hands queued descriptors to Accept one at a time, so a
// descriptor counts against the queue limit until it is claimed.
func (l *Listener) serve(ln net.Listener) {
	q := ln.(*fdQueue)
	for {
		c, err := q.Accept()
		if err != nil {
			return
		}
		err = l.Deliver(netstream.NewConn(l.scheme, c))
		q.release()
		if err != nil {
			return
		}
	}
}

// addFD queues a connected stream socket. The listener takes ownership of
// fd on success only.
func (l *Listener) addFD(v any) error {
	fd := int(v.(int32))

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.queue == nil {
		return fmt.Errorf("%w: listener not started", aio.ErrState)
	}
	if l.queue.closed() {
		return aio.ErrClosed
	}
	if l.queue.full() {
		return fmt.Errorf("%w: %d descriptors already pending", aio.ErrBusy, limits.SocketFDQueue)
	}

	typ, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return fmt.Errorf("%w: descriptor %d: %v", options.ErrInvalidArgument, fd, err)
	}
	if typ != unix.SOCK_STREAM {
		return fmt.Errorf("%w: descriptor %d is not a stream socket", options.ErrInvalidArgument, fd)
	}

	c, err := adoptFD(fd, net.FileConn)
	if err != nil {
		return err
	}
	if err := l.queue.push(c); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"function": "Listener.addFD",
		"fd":       fd,
	}).Debug("Queued socket descriptor")
	return nil
}

// adoptFD wraps fd with wrap and closes fd once the wrapped connection
// exists. On failure fd is left open for the caller.
func adoptFD(fd int, wrap func(*os.File) (net.Conn, error)) (net.Conn, error) {
	dup, err := unix.Dup(fd)
	if err != nil {
		return nil, aio.NewError("socket", fmt.Sprintf("fd %d", fd), err)
	}
	f := os.NewFile(uintptr(dup), fmt.Sprintf("socket:%d", fd))
	defer f.Close()

	c, err := wrap(f)
	if err != nil {
		return nil, aio.NewError("socket", f.Name(), err)
	}
	unix.Close(fd)
	return c, nil
}

// fdQueue is the net.Listener fed by addFD.
type fdQueue struct {
	mu      sync.Mutex
	conns   chan net.Conn
	done    chan struct{}
	once    sync.Once
	pending atomic.Int32
}

func newFDQueue() *fdQueue {
	return &fdQueue{
		conns: make(chan net.Conn, limits.SocketFDQueue),
		done:  make(chan struct{}),
	}
}

func (q *fdQueue) full() bool {
	return q.pending.Load() >= limits.SocketFDQueue
}

func (q *fdQueue) closed() bool {
	select {
	case <-q.done:
		return true
	default:
		return false
	}
}

// push queues c, or closes it if the queue is already closed.
func (q *fdQueue) push(c net.Conn) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed() {
		c.Close()
		return aio.ErrClosed
	}
	q.pending.Add(1)
	q.conns <- c
	return nil
}

func (q *fdQueue) release() {
	q.pending.Add(-1)
}

func (q *fdQueue) Accept() (net.Conn, error) {
	select {
	case c := <-q.conns:
		return c, nil
	case <-q.done:
		return nil, net.ErrClosed
	}
}

// Close closes descriptors that were never accepted.
func (q *fdQueue) Close() error {
	q.once.Do(func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		close(q.done)
		for {
			select {
			case c := <-q.conns:
				c.Close()
			default:
				return
			}
		}
	})
	return nil
}

func (q *fdQueue) Addr() net.Addr {
	return fdAddr{}
}

type fdAddr struct{}

func (fdAddr) Network() string { return "socket" }
func (fdAddr) String() string  { return "socket://" }
