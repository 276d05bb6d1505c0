package aio

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Group tracks the operations in flight on one stream, dialer or listener.
//
// The zero value is ready to use. A Group must not be copied after first use.
type Group struct {
	mu      sync.Mutex
	closed  bool
	wg      sync.WaitGroup
	pending map[*Op]func()
}

// Begin arms op for submission to the owner of g. The cancel function, if
// non-nil, is called when the Group closes while op is still pending; it
// must cause the work to finish promptly.
//
// If the Group is already closed, op completes immediately with ErrClosed
// and Begin returns false.
func (g *Group) Begin(op *Op, cancel func()) bool {
	op.start()

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		op.finish(0, nil, ErrClosed)
		return false
	}
	if g.pending == nil {
		g.pending = make(map[*Op]func())
	}
	g.pending[op] = cancel
	g.wg.Add(1)
	g.mu.Unlock()
	return true
}

// End delivers the single completion of an op armed by Begin.
func (g *Group) End(op *Op, n int, err error) {
	g.EndOutput(op, n, nil, err)
}

// EndOutput delivers the single completion of an op armed by Begin,
// attaching output (for example a new stream).
func (g *Group) EndOutput(op *Op, n int, output any, err error) {
	g.mu.Lock()
	_, ok := g.pending[op]
	delete(g.pending, op)
	g.mu.Unlock()

	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "Group.EndOutput",
		}).Warn("Completion for an operation that is not pending in this group")
		return
	}

	op.finish(n, output, err)
	g.wg.Done()
}

// Fail completes op immediately with err without registering it. It is
// used for submissions rejected before any work starts.
func Fail(op *Op, err error) {
	op.start()
	op.finish(0, nil, err)
}

// Close marks the Group closed and runs the cancel function of every
// pending operation. It reports whether this call performed the close.
func (g *Group) Close() bool {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return false
	}
	g.closed = true
	cancels := make([]func(), 0, len(g.pending))
	for _, cancel := range g.pending {
		if cancel != nil {
			cancels = append(cancels, cancel)
		}
	}
	g.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	return true
}

// Closed reports whether Close has been called.
func (g *Group) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Pending returns the number of operations in flight.
func (g *Group) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}

// Wait blocks until every operation begun on g has completed, including
// its callback. It must be called after Close.
func (g *Group) Wait() {
	g.wg.Wait()
}
