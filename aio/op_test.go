package aio

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpWaitWithoutSubmission(t *testing.T) {
	op := NewOp(nil)

	done := make(chan struct{})
	go func() {
		op.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait on an idle op should return immediately")
	}
	assert.False(t, op.Busy())
	assert.NoError(t, op.Err())
}

func TestOpCompletesExactlyOnce(t *testing.T) {
	var calls atomic.Int32
	op := NewOp(func(*Op) { calls.Add(1) })

	var g Group
	require.True(t, g.Begin(op, nil))
	assert.True(t, op.Busy())

	g.End(op, 5, nil)
	g.End(op, 7, errors.New("late"))

	op.Wait()
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 5, op.Count())
	assert.NoError(t, op.Err())
	assert.False(t, op.Busy())
}

func TestOpResetClearsPreviousResult(t *testing.T) {
	op := NewOp(nil)
	Fail(op, ErrTimedOut)
	require.ErrorIs(t, op.Err(), ErrTimedOut)

	op.Reset()
	assert.NoError(t, op.Err())
	assert.Zero(t, op.Count())
	assert.Nil(t, op.Output())
}

func TestOpResetIgnoresPendingOp(t *testing.T) {
	op := NewOp(nil)
	var g Group
	require.True(t, g.Begin(op, nil))

	op.Reset()
	assert.True(t, op.Busy())

	g.EndOutput(op, 0, "value", nil)
	assert.Equal(t, "value", op.Output())
}

func TestOpSubmitWhilePendingPanics(t *testing.T) {
	op := NewOp(nil)
	var g Group
	require.True(t, g.Begin(op, nil))
	defer g.End(op, 0, nil)

	assert.Panics(t, func() { g.Begin(op, nil) })
}

func TestOpDeadline(t *testing.T) {
	op := NewOp(nil)
	_, ok := op.Deadline()
	assert.False(t, ok)

	op.SetTimeout(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, op.Timeout())

	var g Group
	before := time.Now()
	require.True(t, g.Begin(op, nil))
	dl, ok := op.Deadline()
	assert.True(t, ok)
	assert.WithinDuration(t, before.Add(50*time.Millisecond), dl, 20*time.Millisecond)
	g.End(op, 0, nil)
}

func TestOpBuffers(t *testing.T) {
	op := NewOp(nil)
	a, b := []byte("ab"), []byte("cd")
	op.SetBuffers(a, b)
	assert.Equal(t, [][]byte{a, b}, op.Buffers())
}

func TestErrorFormatting(t *testing.T) {
	t.Run("with address", func(t *testing.T) {
		err := &Error{Op: "dial", Addr: "tcp://127.0.0.1:1", Err: ErrConnShut}
		assert.Equal(t, "stream dial tcp://127.0.0.1:1: connection shutdown", err.Error())
	})

	t.Run("without address", func(t *testing.T) {
		err := &Error{Op: "recv", Err: ErrTimedOut}
		assert.Equal(t, "stream recv: operation timed out", err.Error())
		assert.ErrorIs(t, err, ErrTimedOut)
	})

	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, NewError("send", "x", nil))
	})
}
