package aio

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupBeginAfterCloseFails(t *testing.T) {
	var g Group
	assert.True(t, g.Close())
	assert.False(t, g.Close(), "second close must be a no-op")

	op := NewOp(nil)
	assert.False(t, g.Begin(op, nil))
	op.Wait()
	assert.ErrorIs(t, op.Err(), ErrClosed)
	assert.Zero(t, g.Pending())
}

func TestGroupCloseCancelsPending(t *testing.T) {
	var g Group
	op := NewOp(nil)

	cancelled := make(chan struct{})
	require.True(t, g.Begin(op, func() { close(cancelled) }))

	go func() {
		<-cancelled
		g.End(op, 0, ErrClosed)
	}()

	g.Close()
	op.Wait()
	assert.ErrorIs(t, op.Err(), ErrClosed)
}

func TestGroupWaitIsQuiesceBarrier(t *testing.T) {
	var g Group
	var completions atomic.Int32

	const n = 8
	ops := make([]*Op, n)
	for i := range ops {
		ops[i] = NewOp(func(*Op) {
			time.Sleep(5 * time.Millisecond)
			completions.Add(1)
		})
		require.True(t, g.Begin(ops[i], nil))
	}

	for _, op := range ops {
		go func(op *Op) {
			time.Sleep(10 * time.Millisecond)
			g.End(op, 0, nil)
		}(op)
	}

	g.Close()
	g.Wait()
	assert.Equal(t, int32(n), completions.Load(), "all callbacks must run before Wait returns")
	assert.Zero(t, g.Pending())
}

func TestGroupEndUnknownOpIsIgnored(t *testing.T) {
	var g Group
	op := NewOp(nil)
	g.End(op, 3, nil)
	assert.False(t, op.Busy())
	assert.Zero(t, op.Count())
}
