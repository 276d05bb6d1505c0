package streamcore

import (
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitOp(t *testing.T, op *aio.Op) {
	t.Helper()
	select {
	case <-op.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not complete")
	}
}

// pair listens on uri, dials the bound address and returns both ends.
func pair(t *testing.T, l Listener, dialURI string) (Stream, Stream) {
	t.Helper()
	accept := aio.NewOp(nil)
	Accept(l, accept)

	d, err := NewDialer(dialURI)
	require.NoError(t, err)
	t.Cleanup(func() { Free(d) })

	dial := aio.NewOp(nil)
	Dial(d, dial)
	waitOp(t, dial)
	require.NoError(t, dial.Err())
	waitOp(t, accept)
	require.NoError(t, accept.Err())

	client, server := OpStream(dial), OpStream(accept)
	require.NotNil(t, client)
	require.NotNil(t, server)
	t.Cleanup(func() {
		Free(client)
		Free(server)
	})
	return client, server
}

func TestTCPEndToEnd(t *testing.T) {
	l, err := NewListener("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer Free(l)
	require.NoError(t, l.Listen())
	port, err := GetInt(l, options.TCPBoundPort)
	require.NoError(t, err)

	client, server := pair(t, l, fmt.Sprintf("tcp://127.0.0.1:%d", port))

	send := aio.NewOp(nil)
	send.SetBuffers([]byte("hello "), []byte("world"))
	Send(client, send)
	waitOp(t, send)
	require.NoError(t, send.Err())
	assert.Equal(t, 11, send.Count())

	got := make([]byte, 0, 11)
	recv := aio.NewOp(nil)
	for len(got) < 11 {
		buf := make([]byte, 32)
		recv.SetBuffers(buf)
		Recv(server, recv)
		waitOp(t, recv)
		require.NoError(t, recv.Err())
		got = append(got, buf[:recv.Count()]...)
	}
	assert.Equal(t, "hello world", string(got))

	remote, err := GetAddr(server, options.RemoteAddr)
	require.NoError(t, err)
	local, err := GetAddr(client, options.LocalAddr)
	require.NoError(t, err)
	assert.Equal(t, local, remote)

	nd, err := GetBool(server, options.TCPNoDelay)
	require.NoError(t, err)
	assert.True(t, nd)
	err = SetAddr(server, options.RemoteAddr, remote)
	assert.True(t, errors.Is(err, ErrReadOnly))

	// Peer close surfaces as a shut connection.
	Close(client)
	recv.SetBuffers(make([]byte, 8))
	Recv(server, recv)
	waitOp(t, recv)
	assert.True(t, errors.Is(recv.Err(), ErrConnShut), "%v", recv.Err())
}

func TestRecvRequiresBuffers(t *testing.T) {
	l, err := NewListener("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer Free(l)
	require.NoError(t, l.Listen())
	port, err := GetInt(l, options.TCPBoundPort)
	require.NoError(t, err)
	client, _ := pair(t, l, fmt.Sprintf("tcp://127.0.0.1:%d", port))

	op := aio.NewOp(nil)
	Recv(client, op)
	waitOp(t, op)
	assert.True(t, errors.Is(op.Err(), ErrInvalidArgument))
}

func TestListenerLifecycle(t *testing.T) {
	l, err := NewListener("tcp://127.0.0.1:0")
	require.NoError(t, err)

	op := aio.NewOp(nil)
	Accept(l, op)
	waitOp(t, op)
	assert.True(t, errors.Is(op.Err(), ErrState))

	require.NoError(t, l.Listen())
	assert.True(t, errors.Is(l.Listen(), ErrBusy))

	var completions atomic.Int32
	pending := aio.NewOp(func(*aio.Op) { completions.Add(1) })
	Accept(l, pending)
	Close(l)
	waitOp(t, pending)
	assert.True(t, errors.Is(pending.Err(), ErrClosed))

	Stop(l)
	assert.Equal(t, int32(1), completions.Load())
	assert.True(t, errors.Is(l.Listen(), ErrClosed))

	Accept(l, pending)
	waitOp(t, pending)
	assert.True(t, errors.Is(pending.Err(), ErrClosed))
	Free(l)
	Free(l)
}

func TestDialerCloseCancelsDial(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation and never answers.
	d, err := NewDialer("tcp://192.0.2.1:9")
	require.NoError(t, err)
	require.NoError(t, SetDuration(d, options.DialTimeout, 0))

	op := aio.NewOp(nil)
	Dial(d, op)
	Close(d)
	waitOp(t, op)
	require.Error(t, op.Err())
	assert.Nil(t, OpStream(op))
	Free(d)
}

func TestOpTimeout(t *testing.T) {
	l, err := NewListener("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer Free(l)
	require.NoError(t, l.Listen())

	op := aio.NewOp(nil)
	op.SetTimeout(20 * time.Millisecond)
	Accept(l, op)
	waitOp(t, op)
	assert.True(t, errors.Is(op.Err(), ErrTimedOut))
}

func TestConcurrentDialsAndAccepts(t *testing.T) {
	l, err := NewListener("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer Free(l)
	require.NoError(t, l.Listen())
	port, err := GetInt(l, options.TCPBoundPort)
	require.NoError(t, err)

	accepts := []*aio.Op{aio.NewOp(nil), aio.NewOp(nil)}
	for _, op := range accepts {
		Accept(l, op)
	}

	d, err := NewDialer(fmt.Sprintf("tcp://127.0.0.1:%d", port))
	require.NoError(t, err)
	defer Free(d)
	dials := []*aio.Op{aio.NewOp(nil), aio.NewOp(nil)}
	for _, op := range dials {
		Dial(d, op)
	}

	var streams []Stream
	for _, op := range append(dials, accepts...) {
		waitOp(t, op)
		require.NoError(t, op.Err())
		s := OpStream(op)
		require.NotNil(t, s)
		t.Cleanup(func() { Free(s) })
		streams = append(streams, s)
	}
	for i := range streams {
		for j := i + 1; j < len(streams); j++ {
			assert.NotSame(t, streams[i], streams[j])
		}
	}

	// Each dialed stream is paired with exactly one accepted stream.
	remotes := map[options.SockAddr]bool{}
	for _, s := range streams[2:] {
		a, err := GetAddr(s, options.RemoteAddr)
		require.NoError(t, err)
		remotes[a] = true
	}
	for _, s := range streams[:2] {
		a, err := GetAddr(s, options.LocalAddr)
		require.NoError(t, err)
		assert.True(t, remotes[a], "dialed stream %v was not accepted", a)
	}
	assert.Len(t, remotes, 2)
}
