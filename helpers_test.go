package streamcore

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/options"
	"github.com/opd-ai/streamcore/tlsconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedOptionsOnDialer(t *testing.T) {
	d, err := NewDialer("tcp://127.0.0.1:5555")
	require.NoError(t, err)
	defer Free(d)

	require.NoError(t, SetBool(d, options.TCPNoDelay, false))
	nd, err := GetBool(d, options.TCPNoDelay)
	require.NoError(t, err)
	assert.False(t, nd)

	require.NoError(t, SetDuration(d, options.DialTimeout, 1500*time.Microsecond))
	dt, err := GetDuration(d, options.DialTimeout)
	require.NoError(t, err)
	assert.Equal(t, time.Millisecond, dt)

	err = SetDuration(d, options.DialTimeout, -time.Second)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	// Declared type mismatch.
	_, err = GetInt(d, options.TCPNoDelay)
	assert.True(t, errors.Is(err, ErrInvalidArgument))
	err = SetSize(d, options.TCPNoDelay, 1)
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	// Unknown names.
	_, err = GetString(d, "no-such-option")
	assert.True(t, errors.Is(err, ErrNotSupported))
	err = SetBool(d, "no-such-option", true)
	assert.True(t, errors.Is(err, ErrNotSupported))

	// Read-only url.
	err = SetString(d, options.URL, "tcp://other:1")
	assert.True(t, errors.Is(err, ErrReadOnly))

	addr, err := GetAddr(d, options.LocalAddr)
	require.NoError(t, err)
	assert.Equal(t, options.FamilyUnspec, addr.Family)
	err = SetAddr(d, options.LocalAddr, options.SockAddr{Family: options.FamilyIPC, Path: "/tmp/x"})
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestTypedOptionsOnListener(t *testing.T) {
	l, err := NewListener("tcp://127.0.0.1:0")
	require.NoError(t, err)
	defer Free(l)

	_, err = GetInt(l, options.TCPBoundPort)
	assert.True(t, errors.Is(err, ErrState))

	require.NoError(t, l.Listen())
	port, err := GetInt(l, options.TCPBoundPort)
	require.NoError(t, err)
	assert.Greater(t, port, int32(0))

	err = SetInt(l, options.TCPBoundPort, 1)
	assert.True(t, errors.Is(err, ErrReadOnly))
}

func TestStringOptionBounds(t *testing.T) {
	d, err := NewDialer("ws://127.0.0.1:5555/")
	require.NoError(t, err)
	defer Free(d)

	require.NoError(t, SetString(d, options.WSProtocol, ""))
	v, err := GetString(d, options.WSProtocol)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	long := strings.Repeat("p", limits.MaxStringOption)
	require.NoError(t, SetString(d, options.WSProtocol, long))
	v, err = GetString(d, options.WSProtocol)
	require.NoError(t, err)
	assert.Equal(t, long, v)

	err = SetString(d, options.WSProtocol, long+"p")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	require.NoError(t, SetString(d, options.WSRequestHeaders, ""))
	require.NoError(t, SetString(d, options.WSRequestHeaders, "X-Test: 1\n"))
	err = SetString(d, options.WSRequestHeaders, "garbage")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	require.NoError(t, SetSize(d, options.RecvMaxSize, 0))
	size, err := GetSize(d, options.RecvMaxSize)
	require.NoError(t, err)
	assert.Equal(t, 0, size)
}

func TestTLSCapability(t *testing.T) {
	plain, err := NewDialer("tcp://127.0.0.1:5555")
	require.NoError(t, err)
	defer Free(plain)
	_, err = GetDialerTLS(plain)
	assert.True(t, errors.Is(err, ErrNotSupported))
	assert.True(t, errors.Is(SetDialerTLS(plain, tlsconfig.New(tlsconfig.ModeClient)), ErrNotSupported))

	secure, err := NewDialer("tls+tcp://127.0.0.1:5555")
	require.NoError(t, err)
	defer Free(secure)
	cfg, err := GetDialerTLS(secure)
	require.NoError(t, err)
	assert.Equal(t, tlsconfig.ModeClient, cfg.Mode())
	require.NoError(t, SetDialerTLS(secure, tlsconfig.New(tlsconfig.ModeClient)))
	assert.True(t, errors.Is(SetDialerTLS(secure, tlsconfig.New(tlsconfig.ModeServer)), ErrInvalidArgument))

	wsl, err := NewListener("ws://127.0.0.1:0/")
	require.NoError(t, err)
	defer Free(wsl)
	_, err = GetListenerTLS(wsl)
	assert.True(t, errors.Is(err, ErrNotSupported))

	wssl, err := NewListener("wss://127.0.0.1:0/")
	require.NoError(t, err)
	defer Free(wssl)
	cfg, err = GetListenerTLS(wssl)
	require.NoError(t, err)
	assert.Equal(t, tlsconfig.ModeServer, cfg.Mode())
	require.NoError(t, SetListenerTLS(wssl, tlsconfig.New(tlsconfig.ModeServer)))
}

func TestNilHandles(t *testing.T) {
	assert.NotPanics(t, func() {
		Close(nil)
		Stop(nil)
		Free(nil)

		var d Dialer
		Close(d)
		Stop(d)
		Free(d)
	})

	op := aio.NewOp(nil)
	var s Stream
	Send(s, op)
	op.Wait()
	assert.True(t, errors.Is(op.Err(), ErrClosed))

	Recv(s, op)
	op.Wait()
	assert.True(t, errors.Is(op.Err(), ErrClosed))

	var d Dialer
	Dial(d, op)
	op.Wait()
	assert.True(t, errors.Is(op.Err(), ErrClosed))
	assert.Nil(t, OpStream(op))

	var l Listener
	Accept(l, op)
	op.Wait()
	assert.True(t, errors.Is(op.Err(), ErrClosed))

	_, err := GetBool(d, options.TCPNoDelay)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(SetBool(l, options.TCPNoDelay, true), ErrClosed))
	_, err = GetDialerTLS(d)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(SetSecurityDescriptor(l, "D:P"), ErrClosed))
}
