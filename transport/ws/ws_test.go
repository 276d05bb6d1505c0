package ws

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/opd-ai/streamcore/internal/testcert"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/options"
	"github.com/opd-ai/streamcore/tlsconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, s string) *url.URL {
	t.Helper()
	u, err := url.Parse(s)
	require.NoError(t, err)
	return u
}

func waitOp(t *testing.T, op *aio.Op) {
	t.Helper()
	select {
	case <-op.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("operation did not complete")
	}
}

type dialer interface {
	Dial(*aio.Op)
}

type acceptor interface {
	Accept(*aio.Op)
}

func connect(t *testing.T, l acceptor, d dialer) (*netstream.Conn, *netstream.Conn) {
	t.Helper()
	accept := aio.NewOp(nil)
	l.Accept(accept)
	dial := aio.NewOp(nil)
	d.Dial(dial)
	waitOp(t, dial)
	require.NoError(t, dial.Err())
	waitOp(t, accept)
	require.NoError(t, accept.Err())

	client := dial.Output().(*netstream.Conn)
	server := accept.Output().(*netstream.Conn)
	t.Cleanup(client.Free)
	t.Cleanup(server.Free)
	return client, server
}

func exchange(t *testing.T, from, to *netstream.Conn, bufs ...[]byte) string {
	t.Helper()
	send := aio.NewOp(nil)
	send.SetBuffers(bufs...)
	from.Send(send)

	var want int
	for _, b := range bufs {
		want += len(b)
	}
	var got []byte
	for len(got) < want {
		buf := make([]byte, 64)
		recv := aio.NewOp(nil)
		recv.SetBuffers(buf)
		to.Recv(recv)
		waitOp(t, recv)
		require.NoError(t, recv.Err())
		got = append(got, buf[:recv.Count()]...)
	}
	waitOp(t, send)
	require.NoError(t, send.Err())
	return string(got)
}

func TestHeaders(t *testing.T) {
	h, err := ParseHeaders("X-One: 1\n\nX-Two:  two words \nX-One: again\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "again"}, h.Values("X-One"))
	assert.Equal(t, "two words", h.Get("X-Two"))
	assert.Equal(t, "X-One: 1\nX-One: again\nX-Two: two words\n", FormatHeaders(h))

	_, err = ParseHeaders("no colon here")
	assert.True(t, errors.Is(err, options.ErrInvalidArgument))
	_, err = ParseHeaders(": empty key")
	assert.True(t, errors.Is(err, options.ErrInvalidArgument))
}

func TestTargetURL(t *testing.T) {
	assert.Equal(t, "ws://host:80/", targetURL(mustURL(t, "ws4://host:80"), false))
	assert.Equal(t, "wss://host:443/p?q=1", targetURL(mustURL(t, "wss6://host:443/p?q=1"), true))
	assert.Equal(t, "host:443", hostOnly(mustURL(t, "wss://host/x"), true).Host)
}

func TestWebSocketRoundTrip(t *testing.T) {
	l, err := NewListener(mustURL(t, "ws://127.0.0.1:0/stream"))
	require.NoError(t, err)
	defer l.Free()
	require.NoError(t, l.Set(options.WSResponseHeaders, "X-Server: yes", options.TypeString))
	require.NoError(t, l.Set(options.WSProtocol, "sp.streamcore", options.TypeString))
	require.NoError(t, l.Listen())

	port, err := l.Get(options.TCPBoundPort, options.TypeInt32)
	require.NoError(t, err)

	d, err := NewDialer(mustURL(t, fmt.Sprintf("ws://127.0.0.1:%d/stream", port)))
	require.NoError(t, err)
	defer d.Free()
	require.NoError(t, d.Set(options.WSRequestHeaders, "X-Client: hello", options.TypeString))
	require.NoError(t, d.Set(options.WSProtocol, "sp.streamcore", options.TypeString))

	client, server := connect(t, l, d)

	assert.Equal(t, "hello world", exchange(t, client, server, []byte("hello "), []byte("world")))
	assert.Equal(t, "reply", exchange(t, server, client, []byte("reply")))

	reqHeaders, err := server.Get(options.WSRequestHeaders, options.TypeString)
	require.NoError(t, err)
	assert.Contains(t, reqHeaders, "X-Client: hello")
	respHeaders, err := client.Get(options.WSResponseHeaders, options.TypeString)
	require.NoError(t, err)
	assert.Contains(t, respHeaders, "X-Server: yes")

	uri, err := server.Get(options.WSRequestURI, options.TypeString)
	require.NoError(t, err)
	assert.Equal(t, "/stream", uri)

	for _, c := range []*netstream.Conn{client, server} {
		proto, err := c.Get(options.WSProtocol, options.TypeString)
		require.NoError(t, err)
		assert.Equal(t, "sp.streamcore", proto)
	}
}

func TestWebSocketWrongPath(t *testing.T) {
	l, err := NewListener(mustURL(t, "ws://127.0.0.1:0/right"))
	require.NoError(t, err)
	defer l.Free()
	require.NoError(t, l.Listen())

	resp, err := http.Get("http://" + l.Addr().String() + "/wrong")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	d, err := NewDialer(mustURL(t, "ws://"+l.Addr().String()+"/wrong"))
	require.NoError(t, err)
	defer d.Free()
	dial := aio.NewOp(nil)
	d.Dial(dial)
	waitOp(t, dial)
	var ae *aio.Error
	assert.True(t, errors.As(dial.Err(), &ae))
}

func TestWebSocketRecvLimit(t *testing.T) {
	l, err := NewListener(mustURL(t, "ws://127.0.0.1:0/"))
	require.NoError(t, err)
	defer l.Free()
	require.NoError(t, l.Set(options.RecvMaxSize, 8, options.TypeSize))
	require.NoError(t, l.Listen())

	d, err := NewDialer(mustURL(t, "ws://"+l.Addr().String()+"/"))
	require.NoError(t, err)
	defer d.Free()
	client, server := connect(t, l, d)

	send := aio.NewOp(nil)
	send.SetBuffers([]byte(strings.Repeat("x", 64)))
	client.Send(send)
	waitOp(t, send)

	recv := aio.NewOp(nil)
	recv.SetBuffers(make([]byte, 128))
	server.Recv(recv)
	waitOp(t, recv)
	assert.Error(t, recv.Err())

	err = l.Set(options.RecvMaxSize, -1, options.TypeSize)
	assert.True(t, errors.Is(err, options.ErrInvalidArgument))
}

func TestWebSocketHeaderValidation(t *testing.T) {
	d, err := NewDialer(mustURL(t, "ws://127.0.0.1:1/"))
	require.NoError(t, err)
	defer d.Free()
	err = d.Set(options.WSRequestHeaders, "broken", options.TypeString)
	assert.True(t, errors.Is(err, options.ErrInvalidArgument))
	require.NoError(t, d.Set(options.WSRequestHeaders, "", options.TypeString))
}

func TestPlainTypesLackTLS(t *testing.T) {
	var d any = &Dialer{}
	_, ok := d.(interface {
		TLSConfig() (*tlsconfig.Config, error)
	})
	assert.False(t, ok)
	var sd any = &SecureDialer{}
	_, ok = sd.(interface {
		TLSConfig() (*tlsconfig.Config, error)
	})
	assert.True(t, ok)
}

func TestSecureWebSocketRoundTrip(t *testing.T) {
	chain, err := testcert.New("ws-server")
	require.NoError(t, err)

	l, err := NewSecureListener(mustURL(t, "wss://127.0.0.1:0/secure"))
	require.NoError(t, err)
	defer l.Free()
	serverCfg := tlsconfig.New(tlsconfig.ModeServer)
	require.NoError(t, serverCfg.SetOwnCert(chain.CertPEM, chain.KeyPEM))
	require.NoError(t, l.SetTLSConfig(serverCfg))
	require.NoError(t, l.Listen())

	d, err := NewSecureDialer(mustURL(t, "wss://"+l.Addr().String()+"/secure"))
	require.NoError(t, err)
	defer d.Free()
	clientCfg, err := d.TLSConfig()
	require.NoError(t, err)
	require.NoError(t, clientCfg.SetCAChain(chain.CAPEM))
	require.NoError(t, clientCfg.SetServerName("localhost"))

	client, server := connect(t, l, d)
	assert.Equal(t, "over tls", exchange(t, client, server, []byte("over tls")))

	verified, err := client.Get(options.TLSVerified, options.TypeBool)
	require.NoError(t, err)
	assert.Equal(t, true, verified)
	cn, err := client.Get(options.TLSPeerCN, options.TypeString)
	require.NoError(t, err)
	assert.Equal(t, "ws-server", cn)

	assert.True(t, errors.Is(l.SetTLSConfig(tlsconfig.New(tlsconfig.ModeServer)), aio.ErrBusy))
}

func TestWebSocketAcceptSlotsReturn(t *testing.T) {
	l, err := NewListener(mustURL(t, "ws://127.0.0.1:0/"))
	require.NoError(t, err)
	defer l.Free()
	require.NoError(t, l.Listen())
	port, err := l.Get(options.TCPBoundPort, options.TypeInt32)
	require.NoError(t, err)

	d, err := NewDialer(mustURL(t, fmt.Sprintf("ws://127.0.0.1:%d/", port)))
	require.NoError(t, err)
	defer d.Free()

	// Claimed streams stay open while more than AcceptQueue are accepted.
	for i := 0; i < 2*limits.AcceptQueue; i++ {
		_, server := connect(t, l, d)
		nd, err := server.Get(options.TCPNoDelay, options.TypeBool)
		require.NoError(t, err)
		assert.Equal(t, true, nd)
	}
}

func TestSecureWebSocketFailedListenLeavesConfigUsable(t *testing.T) {
	chain, err := testcert.New("server")
	require.NoError(t, err)

	taken, err := NewListener(mustURL(t, "ws://127.0.0.1:0/"))
	require.NoError(t, err)
	defer taken.Free()
	require.NoError(t, taken.Listen())

	l, err := NewSecureListener(mustURL(t, "wss://"+taken.Addr().String()+"/"))
	require.NoError(t, err)
	defer l.Free()
	cfg, err := l.TLSConfig()
	require.NoError(t, err)
	require.NoError(t, cfg.SetOwnCert(chain.CertPEM, chain.KeyPEM))

	require.Error(t, l.Listen())
	assert.False(t, cfg.Busy())
	require.NoError(t, cfg.SetAuthMode(tlsconfig.AuthOptional))
}
