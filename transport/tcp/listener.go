package tcp

import (
	"context"
	"net"
	"net/url"
	"sync"

	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/sirupsen/logrus"
)

// Listener accepts TCP streams.
type Listener struct {
	*netstream.Listener

	mu       sync.Mutex
	settings Settings
	scheme   string
	network  string
	addr     string
}

// NewListener creates a listener for a tcp, tcp4 or tcp6 URL.
func NewListener(u *url.URL) (*Listener, error) {
	addr, err := ResolveListen(u)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		settings: DefaultSettings(),
		scheme:   u.Scheme,
		network:  Network(u.Scheme),
		addr:     addr,
	}
	opts := l.settings.ListenerOptions(&l.mu)
	l.Listener = netstream.NewListener(netstream.ListenerConfig{
		Scheme:  u.Scheme,
		URL:     u,
		Mu:      &l.mu,
		Bind:    l.bind,
		Upgrade: l.upgrade,
		Options: append(opts, BoundPort(func() net.Addr { return l.Addr() })),
	})

	logrus.WithFields(logrus.Fields{
		"function": "tcp.NewListener",
		"network":  l.network,
		"address":  addr,
	}).Debug("Created TCP listener")
	return l, nil
}

func (l *Listener) bind() (net.Listener, error) {
	var lc net.ListenConfig
	if !l.settings.KeepAlive {
		lc.KeepAlive = -1
	}
	return lc.Listen(context.Background(), l.network, l.addr)
}

func (l *Listener) upgrade(_ context.Context, c net.Conn) (*netstream.Conn, error) {
	l.mu.Lock()
	noDelay, keepAlive := l.settings.NoDelay, l.settings.KeepAlive
	l.mu.Unlock()

	if err := Apply(c, noDelay, keepAlive); err != nil {
		return nil, err
	}
	return netstream.NewConn(l.scheme, c, StreamOptions(c, noDelay, keepAlive)...), nil
}
