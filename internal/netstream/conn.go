package netstream

import (
	"net"
	"sync"

	"github.com/google/uuid"
	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/metrics"
	"github.com/opd-ai/streamcore/options"
	"github.com/sirupsen/logrus"
)

// BuffersWriter is implemented by connections that write a gather list
// as one unit, such as one WebSocket message per Send.
type BuffersWriter interface {
	WriteBuffers(bufs [][]byte) (int, error)
}

// Conn is a stream over a connected net.Conn.
//
// At most one write and one read are on the wire at a time, so the bytes
// of each Send stay contiguous and each Recv sees an ordered prefix of
// the peer's data. Further submissions queue behind the one in progress.
type Conn struct {
	id     uuid.UUID
	scheme string
	conn   net.Conn
	addr   string

	group  aio.Group
	sendMu sync.Mutex
	recvMu sync.Mutex

	opts *options.Table

	mu       sync.Mutex
	closed   bool
	freed    bool
	freeHook []func()

	log *logrus.Entry
}

// NewConn wraps c as a stream for scheme. The local-address and
// remote-address options are always published; extra options are added
// after them and may override them.
func NewConn(scheme string, c net.Conn, extra ...options.Option) *Conn {
	sc := &Conn{
		id:     uuid.New(),
		scheme: scheme,
		conn:   c,
	}
	sc.addr = addrString(c.RemoteAddr())

	base := []options.Option{
		options.ReadOnly(options.LocalAddr, options.TypeSockAddr, func() (any, error) {
			return options.SockAddrFromNet(c.LocalAddr()), nil
		}),
		options.ReadOnly(options.RemoteAddr, options.TypeSockAddr, func() (any, error) {
			return options.SockAddrFromNet(c.RemoteAddr()), nil
		}),
	}
	sc.opts = options.NewTable(append(base, extra...)...)

	sc.log = logrus.WithFields(logrus.Fields{
		"stream_id": sc.id.String(),
		"scheme":    scheme,
		"remote":    sc.addr,
	})
	sc.log.WithField("function", "NewConn").Debug("Stream opened")
	metrics.StreamOpened(scheme)
	return sc
}

// addrString formats a, which backends may leave nil.
func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

// ID returns the identity used for this stream in logs.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// Scheme returns the URL scheme the stream was created for.
func (c *Conn) Scheme() string {
	return c.scheme
}

// NetConn returns the underlying connection.
func (c *Conn) NetConn() net.Conn {
	return c.conn
}

// OnFree registers fn to run once when the stream is freed.
func (c *Conn) OnFree(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.freeHook = append(c.freeHook, fn)
}

// Close closes the connection. Pending and later operations fail with
// aio.ErrClosed. Close does not wait for them.
func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.group.Close()
	if err := c.conn.Close(); err != nil {
		c.log.WithFields(logrus.Fields{
			"function": "Conn.Close",
			"error":    err.Error(),
		}).Debug("Closing connection reported an error")
	}
}

// Stop closes the stream and waits until every submitted operation has
// completed, including its callback.
func (c *Conn) Stop() {
	c.Close()
	c.group.Wait()
}

// Free stops the stream and releases it.
func (c *Conn) Free() {
	c.Stop()

	c.mu.Lock()
	if c.freed {
		c.mu.Unlock()
		return
	}
	c.freed = true
	hooks := c.freeHook
	c.freeHook = nil
	c.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
	metrics.StreamFreed(c.scheme)
	c.log.WithField("function", "Conn.Free").Debug("Stream freed")
}

// Send writes the op's buffers to the connection. The op completes once
// every byte has been written or the write fails.
func (c *Conn) Send(op *aio.Op) {
	if len(op.Buffers()) == 0 {
		aio.Fail(op, options.ErrInvalidArgument)
		return
	}
	if !c.group.Begin(op, nil) {
		return
	}
	go c.send(op)
}

func (c *Conn) send(op *aio.Op) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	deadline, _ := op.Deadline()
	if err := c.conn.SetWriteDeadline(deadline); err != nil && !c.isClosed() {
		c.log.WithFields(logrus.Fields{
			"function": "Conn.send",
			"error":    err.Error(),
		}).Debug("Setting write deadline failed")
	}

	var n int
	var err error
	if bw, ok := c.conn.(BuffersWriter); ok {
		n, err = bw.WriteBuffers(op.Buffers())
	} else {
		bufs := net.Buffers(append([][]byte(nil), op.Buffers()...))
		var n64 int64
		n64, err = bufs.WriteTo(c.conn)
		n = int(n64)
	}
	if n > 0 {
		metrics.Sent(c.scheme, n)
	}
	c.group.End(op, n, c.mapError("send", err))
}

// Recv reads whatever the connection has available into the op's first
// non-empty buffer. The op completes with a short count rather than
// waiting for the buffer to fill.
func (c *Conn) Recv(op *aio.Op) {
	var buf []byte
	for _, b := range op.Buffers() {
		if len(b) > 0 {
			buf = b
			break
		}
	}
	if buf == nil {
		aio.Fail(op, options.ErrInvalidArgument)
		return
	}
	if !c.group.Begin(op, nil) {
		return
	}
	go c.recv(op, buf)
}

func (c *Conn) recv(op *aio.Op, buf []byte) {
	c.recvMu.Lock()
	defer c.recvMu.Unlock()

	deadline, _ := op.Deadline()
	if err := c.conn.SetReadDeadline(deadline); err != nil && !c.isClosed() {
		c.log.WithFields(logrus.Fields{
			"function": "Conn.recv",
			"error":    err.Error(),
		}).Debug("Setting read deadline failed")
	}

	n, err := c.conn.Read(buf)
	if n > 0 {
		metrics.Received(c.scheme, n)
		// Data arrived; report it and leave the error for the next read.
		err = nil
	}
	c.group.End(op, n, c.mapError("recv", err))
}

// Get reads an option.
func (c *Conn) Get(name string, t options.Type) (any, error) {
	return c.opts.Get(name, t)
}

// Set writes an option.
func (c *Conn) Set(name string, v any, t options.Type) error {
	return c.opts.Set(name, v, t)
}

func (c *Conn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Conn) mapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if c.isClosed() {
		return aio.ErrClosed
	}
	mapped := MapError(op, c.addr, err)
	if mapped != aio.ErrTimedOut {
		c.log.WithFields(logrus.Fields{
			"function": "Conn." + op,
			"error":    err.Error(),
		}).Debug("Stream operation failed")
	}
	return mapped
}
