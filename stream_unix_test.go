//go:build unix

package streamcore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/streamcore/aio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPCEndToEnd(t *testing.T) {
	dir, err := os.MkdirTemp("", "sc")
	require.NoError(t, err)
	defer os.RemoveAll(dir)
	uri := "ipc://" + filepath.Join(dir, "s.sock")

	l, err := NewListener(uri)
	require.NoError(t, err)
	require.NoError(t, l.Listen())
	assert.True(t, errors.Is(l.Listen(), ErrBusy))

	client, server := pair(t, l, uri)

	send := aio.NewOp(nil)
	send.SetBuffers([]byte("ping"))
	Send(client, send)
	waitOp(t, send)
	require.NoError(t, send.Err())

	buf := make([]byte, 4)
	recv := aio.NewOp(nil)
	recv.SetBuffers(buf)
	Recv(server, recv)
	waitOp(t, recv)
	require.NoError(t, recv.Err())
	assert.Equal(t, "ping", string(buf[:recv.Count()]))

	Free(l)
	_, err = os.Stat(filepath.Join(dir, "s.sock"))
	assert.True(t, os.IsNotExist(err))
}
