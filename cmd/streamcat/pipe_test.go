package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/streamcore"
	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/options"
	"github.com/opd-ai/streamcore/tlsconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcpPair(t *testing.T) (streamcore.Stream, streamcore.Stream) {
	t.Helper()
	l, err := streamcore.NewListener("tcp://127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { streamcore.Free(l) })
	require.NoError(t, l.Listen())
	port, err := streamcore.GetInt(l, options.TCPBoundPort)
	require.NoError(t, err)

	accept := aio.NewOp(nil)
	streamcore.Accept(l, accept)

	d, err := streamcore.NewDialer(fmt.Sprintf("tcp://127.0.0.1:%d", port))
	require.NoError(t, err)
	t.Cleanup(func() { streamcore.Free(d) })
	dial := aio.NewOp(nil)
	streamcore.Dial(d, dial)
	dial.Wait()
	require.NoError(t, dial.Err())
	accept.Wait()
	require.NoError(t, accept.Err())

	a, b := streamcore.OpStream(dial), streamcore.OpStream(accept)
	t.Cleanup(func() {
		streamcore.Free(a)
		streamcore.Free(b)
	})
	return a, b
}

func TestPipeCopiesBothWays(t *testing.T) {
	a, b := tcpPair(t)

	var outA, outB bytes.Buffer
	done := make(chan error, 1)
	go func() { done <- pipe(a, strings.NewReader("from a"), &outA) }()

	// b sends its input, then closes, which ends a's receive half.
	require.NoError(t, copyToStream(b, strings.NewReader("from b")))
	buf := make([]byte, 64)
	op := aio.NewOp(nil)
	for outB.Len() < len("from a") {
		op.SetBuffers(buf)
		streamcore.Recv(b, op)
		op.Wait()
		require.NoError(t, op.Err())
		outB.Write(buf[:op.Count()])
	}
	streamcore.Close(b)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("pipe did not finish")
	}
	assert.Equal(t, "from b", outA.String())
	assert.Equal(t, "from a", outB.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, io.ErrShortWrite }

func TestPipeReportsWriteFailure(t *testing.T) {
	a, b := tcpPair(t)
	require.NoError(t, copyToStream(b, strings.NewReader("x")))

	err := pipe(a, strings.NewReader(""), failingWriter{})
	assert.True(t, errors.Is(err, io.ErrShortWrite))
}

func TestTLSFlagsNeedTLSScheme(t *testing.T) {
	d, err := streamcore.NewDialer("tcp://127.0.0.1:1")
	require.NoError(t, err)
	defer streamcore.Free(d)

	assert.NoError(t, configureDialerTLS(d, globalOptions{}))
	err = configureDialerTLS(d, globalOptions{Insecure: true})
	assert.True(t, errors.Is(err, streamcore.ErrNotSupported))
	err = configureDialerTLS(d, globalOptions{CertFile: "c.pem"})
	assert.True(t, errors.Is(err, streamcore.ErrInvalidArgument))
}

func TestInsecureDialer(t *testing.T) {
	d, err := streamcore.NewDialer("tls+tcp://127.0.0.1:1")
	require.NoError(t, err)
	defer streamcore.Free(d)

	require.NoError(t, configureDialerTLS(d, globalOptions{Insecure: true}))
	cfg, err := streamcore.GetDialerTLS(d)
	require.NoError(t, err)
	assert.Equal(t, tlsconfig.AuthNone, cfg.AuthMode())
}

func TestSchemesCommand(t *testing.T) {
	var out bytes.Buffer
	schemesCmd.SetOut(&out)
	require.NoError(t, schemesCmd.RunE(schemesCmd, nil))
	assert.Equal(t, streamcore.Schemes(), strings.Fields(out.String()))
}
