package aio

import (
	"sync"
	"time"
)

// closedCh is returned by Done for operations that were never submitted.
var closedCh = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Op is a caller-owned, single-completion unit of asynchronous work.
//
// The caller configures buffers, an optional timeout and an optional
// completion callback, resets the Op, and submits it to one backend call.
// Submitting an Op that is still pending elsewhere is a programming error
// and panics.
type Op struct {
	mu sync.Mutex

	callback func(*Op)
	bufs     [][]byte
	timeout  time.Duration

	// Per-submission state, cleared by Reset
	busy     bool
	deadline time.Time
	count    int
	output   any
	err      error
	done     chan struct{}
}

// NewOp creates an Op. If callback is non-nil it is invoked once per
// completion, on the goroutine that completed the operation.
func NewOp(callback func(*Op)) *Op {
	return &Op{
		callback: callback,
		done:     closedCh,
	}
}

// SetBuffers sets the scatter/gather buffers used by Send and Recv.
func (o *Op) SetBuffers(bufs ...[]byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bufs = bufs
}

// Buffers returns the buffers configured by SetBuffers.
func (o *Op) Buffers() [][]byte {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.bufs
}

// SetTimeout bounds how long each submission may stay pending.
// Zero or negative means no timeout.
func (o *Op) SetTimeout(d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.timeout = d
}

// Timeout returns the configured timeout.
func (o *Op) Timeout() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.timeout
}

// Reset clears the result of a previous submission. It has no effect on a
// pending operation.
func (o *Op) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return
	}
	o.count = 0
	o.output = nil
	o.err = nil
	o.deadline = time.Time{}
}

// Busy reports whether the operation is pending.
func (o *Op) Busy() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// Done returns a channel closed when the current submission completes.
func (o *Op) Done() <-chan struct{} {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.done
}

// Wait blocks until the current submission completes. It returns
// immediately for an operation that is not pending.
func (o *Op) Wait() {
	<-o.Done()
}

// Err returns the error of the last completion.
func (o *Op) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Count returns the number of bytes transferred by the last completion.
func (o *Op) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

// Output returns the value produced by the last completion, such as the
// stream created by a dial or accept.
func (o *Op) Output() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.output
}

// Deadline returns the absolute deadline of the pending submission, if
// the operation has a timeout.
func (o *Op) Deadline() (time.Time, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deadline, !o.deadline.IsZero()
}

// start arms the operation for a new submission.
func (o *Op) start() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		panic("aio: operation submitted while already pending")
	}
	o.busy = true
	o.count = 0
	o.output = nil
	o.err = nil
	o.deadline = time.Time{}
	if o.timeout > 0 {
		o.deadline = time.Now().Add(o.timeout)
	}
	o.done = make(chan struct{})
}

// finish completes the pending submission. It reports false if the
// operation was not pending, which keeps completion single-shot.
func (o *Op) finish(n int, output any, err error) bool {
	o.mu.Lock()
	if !o.busy {
		o.mu.Unlock()
		return false
	}
	o.busy = false
	o.count = n
	o.output = output
	o.err = err
	done := o.done
	cb := o.callback
	o.mu.Unlock()

	close(done)
	if cb != nil {
		cb(o)
	}
	return true
}
