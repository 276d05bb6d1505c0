package ipc

import (
	"fmt"
	"net/url"
	"os"
	"testing"

	"github.com/opd-ai/streamcore/options"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPCPeerCredentials(t *testing.T) {
	u := ipcURL(t, socketPath(t))
	l, err := NewListener(u)
	require.NoError(t, err)
	defer l.Free()
	require.NoError(t, l.Listen())

	_, server := connect(t, l, u)

	uid, err := server.Get(options.PeerUID, options.TypeInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(os.Getuid()), uid)
	pid, err := server.Get(options.PeerPID, options.TypeInt32)
	require.NoError(t, err)
	assert.Equal(t, int32(os.Getpid()), pid)
}

func TestAbstractRoundTrip(t *testing.T) {
	u, err := url.Parse(fmt.Sprintf("abstract://streamcore-test-%d", os.Getpid()))
	require.NoError(t, err)

	l, err := NewListener(u)
	require.NoError(t, err)
	defer l.Free()
	require.NoError(t, l.Listen())

	_, err = l.Get(options.IPCPermissions, options.TypeInt32)
	assert.ErrorIs(t, err, options.ErrNotSupported)

	client, _ := connect(t, l, u)
	ra, err := client.Get(options.RemoteAddr, options.TypeSockAddr)
	require.NoError(t, err)
	assert.Equal(t, options.FamilyAbstract, ra.(options.SockAddr).Family)
}
