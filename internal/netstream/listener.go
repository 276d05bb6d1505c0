package netstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/metrics"
	"github.com/opd-ai/streamcore/options"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// Accept loop backoff bounds for transient errors such as EMFILE.
const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

type listenerState int

const (
	stateIdle listenerState = iota
	stateListening
	stateClosed
)

// ListenerConfig holds the backend hooks of a Listener.
type ListenerConfig struct {
	Scheme string
	URL    *url.URL

	// Mu guards the backend's option fields and the listener state. Bind
	// runs with it held. If nil the listener uses a private mutex.
	Mu sync.Locker

	// Bind creates the listening socket.
	Bind func() (net.Listener, error)

	// Serve replaces the default accept loop. It must hand streams to
	// Deliver and return once ln is closed.
	Serve func(ln net.Listener)

	// Upgrade turns an accepted connection into a stream, for example by
	// running a TLS handshake. It must give up once ctx is done. If nil,
	// NewConn is used.
	Upgrade func(ctx context.Context, c net.Conn) (*Conn, error)

	// Close releases backend resources beyond the net.Listener.
	Close func() error

	Options []options.Option
}

// Listener binds one local address and hands accepted streams to Accept
// operations.
//
// Accepted connections are handed over through an unbuffered channel, so
// a connection waits in the accept pipeline until an Accept claims it. At
// most limits.AcceptQueue connections are taken from the kernel backlog
// ahead of Accept; the rest stay queued in the kernel.
type Listener struct {
	cfg ListenerConfig
	url string
	mu  sync.Locker
	own sync.Mutex

	state listenerState
	ln    net.Listener
	opts  *options.Table

	ctx     context.Context
	cancel  context.CancelFunc
	conns   chan *Conn
	errs    chan error
	slots   chan struct{}
	group   aio.Group
	workers sync.WaitGroup

	hookMu   sync.Mutex
	freed    bool
	freeHook []func()

	log *logrus.Entry
}

// NewListener creates a Listener. The url and local-address options are
// always published; extra options are added after them.
func NewListener(cfg ListenerConfig) *Listener {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Listener{
		cfg:    cfg,
		url:    cfg.URL.String(),
		ctx:    ctx,
		cancel: cancel,
		conns:  make(chan *Conn),
		errs:   make(chan error),
		slots:  make(chan struct{}, limits.AcceptQueue),
	}
	l.mu = cfg.Mu
	if l.mu == nil {
		l.mu = &l.own
	}

	base := []options.Option{
		options.Const(options.URL, options.TypeString, l.url),
		options.ReadOnly(options.LocalAddr, options.TypeSockAddr, func() (any, error) {
			addr := l.Addr()
			if addr == nil {
				return nil, fmt.Errorf("%w: listener not bound", aio.ErrState)
			}
			return options.SockAddrFromNet(addr), nil
		}),
	}
	l.opts = options.NewTable(append(base, cfg.Options...)...)
	l.log = logrus.WithFields(logrus.Fields{
		"scheme": cfg.Scheme,
		"url":    l.url,
	})
	return l
}

// Addr returns the bound address, or nil before Listen.
func (l *Listener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ln == nil {
		return nil
	}
	return l.ln.Addr()
}

// Context is done once the listener is closed.
func (l *Listener) Context() context.Context {
	return l.ctx
}

// OnFree registers fn to run once when the listener is freed.
func (l *Listener) OnFree(fn func()) {
	l.hookMu.Lock()
	defer l.hookMu.Unlock()
	l.freeHook = append(l.freeHook, fn)
}

// Listen binds the address and starts accepting. It fails with
// aio.ErrBusy if the listener is already listening and aio.ErrClosed
// after Close. Bind failures are returned as *aio.Error.
func (l *Listener) Listen() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.state {
	case stateClosed:
		return aio.ErrClosed
	case stateListening:
		return fmt.Errorf("%w: already listening", aio.ErrBusy)
	}

	ln, err := l.cfg.Bind()
	if err != nil {
		l.log.WithFields(logrus.Fields{
			"function": "Listener.Listen",
			"error":    err.Error(),
		}).Warn("Bind failed")
		if isSentinel(err) || isOptionError(err) {
			return err
		}
		return aio.NewError("listen", l.url, err)
	}
	l.ln = ln
	l.state = stateListening

	l.workers.Add(1)
	go l.serve(ln)

	l.log.WithFields(logrus.Fields{
		"function": "Listener.Listen",
		"address":  ln.Addr().String(),
	}).Info("Listener started")
	return nil
}

func isOptionError(err error) bool {
	return errors.Is(err, options.ErrInvalidArgument) || errors.Is(err, options.ErrNotSupported)
}

func (l *Listener) serve(ln net.Listener) {
	defer l.workers.Done()
	if l.cfg.Serve != nil {
		l.cfg.Serve(ln)
		return
	}
	l.acceptLoop(ln)
}

func (l *Listener) acceptLoop(ln net.Listener) {
	var backoff time.Duration
	for {
		if !l.acquire() {
			return
		}
		nc, err := ln.Accept()
		if err != nil {
			l.release()
			if l.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else if backoff *= 2; backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			l.log.WithFields(logrus.Fields{
				"function": "Listener.acceptLoop",
				"error":    err.Error(),
				"backoff":  backoff.String(),
			}).Warn("Accept failed, retrying")

			select {
			case l.errs <- MapError("accept", l.url, err):
			default:
			}
			select {
			case <-time.After(backoff):
			case <-l.ctx.Done():
				return
			}
			continue
		}
		backoff = 0

		l.workers.Add(1)
		go func() {
			defer l.workers.Done()
			defer l.release()
			l.upgrade(nc)
		}()
	}
}

// acquire takes an accept slot. It reports false once the listener is
// closed.
func (l *Listener) acquire() bool {
	if l.ctx.Err() != nil {
		return false
	}
	select {
	case l.slots <- struct{}{}:
		return true
	case <-l.ctx.Done():
		return false
	}
}

func (l *Listener) release() {
	<-l.slots
}

func (l *Listener) upgrade(nc net.Conn) {
	if l.cfg.Upgrade == nil {
		l.Deliver(NewConn(l.cfg.Scheme, nc))
		return
	}
	c, err := l.cfg.Upgrade(l.ctx, nc)
	if err != nil {
		nc.Close()
		metrics.AcceptDone(l.cfg.Scheme, err)
		l.log.WithFields(logrus.Fields{
			"function": "Listener.upgrade",
			"remote":   addrString(nc.RemoteAddr()),
			"error":    err.Error(),
		}).Warn("Dropping inbound connection")
		return
	}
	l.Deliver(c)
}

// Gate wraps ln for backends with their own Serve loop so that they share
// the accept slots of the default loop. A slot is held by each accepted
// connection until ReleaseGate is called on it or it is closed.
func (l *Listener) Gate(ln net.Listener) net.Listener {
	return &gatedListener{Listener: ln, owner: l}
}

type gatedListener struct {
	net.Listener
	owner *Listener
}

func (g *gatedListener) Accept() (net.Conn, error) {
	if !g.owner.acquire() {
		return nil, net.ErrClosed
	}
	c, err := g.Listener.Accept()
	if err != nil {
		g.owner.release()
		return nil, err
	}
	return &gatedConn{Conn: c, owner: g.owner}, nil
}

type gatedConn struct {
	net.Conn
	owner *Listener
	once  sync.Once
}

func (c *gatedConn) releaseSlot() {
	c.once.Do(c.owner.release)
}

// NetConn returns the wrapped connection.
func (c *gatedConn) NetConn() net.Conn {
	return c.Conn
}

func (c *gatedConn) Close() error {
	c.releaseSlot()
	return c.Conn.Close()
}

// ReleaseGate returns the accept slot held by c, unwrapping connections
// that expose NetConn. It does nothing for connections not accepted
// through Gate.
func ReleaseGate(c net.Conn) {
	for c != nil {
		if g, ok := c.(*gatedConn); ok {
			g.releaseSlot()
			return
		}
		u, ok := c.(interface{ NetConn() net.Conn })
		if !ok {
			return
		}
		c = u.NetConn()
	}
}

// Unwrap strips Gate and TLS wrappers from c.
func Unwrap(c net.Conn) net.Conn {
	for {
		u, ok := c.(interface{ NetConn() net.Conn })
		if !ok {
			return c
		}
		c = u.NetConn()
	}
}

// Enter registers backend work that produces streams outside the accept
// loop. It reports false once the listener is closed; otherwise the
// caller must call Exit when done. Stop waits for registered work.
func (l *Listener) Enter() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == stateClosed {
		return false
	}
	l.workers.Add(1)
	return true
}

// Exit ends work registered with Enter.
func (l *Listener) Exit() {
	l.workers.Done()
}

// Deliver blocks until an Accept claims c or the listener closes, in
// which case c is freed and aio.ErrClosed returned.
func (l *Listener) Deliver(c *Conn) error {
	select {
	case l.conns <- c:
		return nil
	case <-l.ctx.Done():
		c.Free()
		return aio.ErrClosed
	}
}

// Accept waits for the next inbound stream. On success the op's output is
// the new *Conn. Accept before Listen fails with aio.ErrState.
func (l *Listener) Accept(op *aio.Op) {
	l.mu.Lock()
	state := l.state
	l.mu.Unlock()
	if state == stateIdle {
		aio.Fail(op, fmt.Errorf("%w: listener not started", aio.ErrState))
		return
	}

	ctx, cancel := context.WithCancel(l.ctx)
	if !l.group.Begin(op, cancel) {
		cancel()
		return
	}
	go l.accept(ctx, cancel, op)
}

func (l *Listener) accept(ctx context.Context, cancel context.CancelFunc, op *aio.Op) {
	defer cancel()

	var timeout <-chan time.Time
	if deadline, ok := op.Deadline(); ok {
		t := time.NewTimer(time.Until(deadline))
		defer t.Stop()
		timeout = t.C
	}

	select {
	case c := <-l.conns:
		metrics.AcceptDone(l.cfg.Scheme, nil)
		l.group.EndOutput(op, 0, c, nil)
	case err := <-l.errs:
		metrics.AcceptDone(l.cfg.Scheme, err)
		l.group.End(op, 0, err)
	case <-timeout:
		l.group.End(op, 0, aio.ErrTimedOut)
	case <-ctx.Done():
		l.group.End(op, 0, aio.ErrClosed)
	}
}

// Close stops accepting. Pending accepts complete with aio.ErrClosed and
// connections not yet claimed are freed.
func (l *Listener) Close() {
	l.mu.Lock()
	if l.state == stateClosed {
		l.mu.Unlock()
		return
	}
	l.state = stateClosed
	ln := l.ln
	l.mu.Unlock()

	l.cancel()
	l.group.Close()

	var err error
	if ln != nil {
		err = multierr.Append(err, ignoreClosed(ln.Close()))
	}
	if l.cfg.Close != nil {
		err = multierr.Append(err, ignoreClosed(l.cfg.Close()))
	}
	entry := l.log.WithField("function", "Listener.Close")
	if err != nil {
		entry.WithField("error", err.Error()).Warn("Listener teardown reported errors")
	}
	entry.Info("Listener closed")
}

func ignoreClosed(err error) error {
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Stop closes the listener and waits for pending accepts and background
// work to finish.
func (l *Listener) Stop() {
	l.Close()
	l.group.Wait()
	l.workers.Wait()
}

// Free stops the listener and releases it.
func (l *Listener) Free() {
	l.Stop()

	l.hookMu.Lock()
	if l.freed {
		l.hookMu.Unlock()
		return
	}
	l.freed = true
	hooks := l.freeHook
	l.freeHook = nil
	l.hookMu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

// Get reads an option.
func (l *Listener) Get(name string, t options.Type) (any, error) {
	return l.opts.Get(name, t)
}

// Set writes an option.
func (l *Listener) Set(name string, v any, t options.Type) error {
	return l.opts.Set(name, v, t)
}
