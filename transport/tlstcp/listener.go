package tlstcp

import (
	"context"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/opd-ai/streamcore/config"
	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/opd-ai/streamcore/options"
	"github.com/opd-ai/streamcore/tlsconfig"
	"github.com/opd-ai/streamcore/transport/tcp"
	"github.com/sirupsen/logrus"
)

// Listener accepts TLS streams over TCP. The handshake runs in the accept
// pipeline; connections that fail it are dropped and never reach Accept.
type Listener struct {
	*netstream.Listener

	mu               sync.Mutex
	settings         tcp.Settings
	handshakeTimeout time.Duration
	tls              *tlsconfig.Slot
	active           *tlsconfig.Config

	scheme  string
	network string
	addr    string
}

// NewListener creates a listener for a tls+tcp URL.
func NewListener(u *url.URL) (*Listener, error) {
	addr, err := tcp.ResolveListen(u)
	if err != nil {
		return nil, err
	}
	l := &Listener{
		settings:         tcp.DefaultSettings(),
		handshakeTimeout: config.Defaults().HandshakeTimeout,
		tls:              tlsconfig.NewSlot(tlsconfig.ModeServer),
		scheme:           u.Scheme,
		network:          tcp.Network(u.Scheme),
		addr:             addr,
	}
	opts := append(l.settings.ListenerOptions(&l.mu),
		options.Field(options.TLSHandshakeTimeout, options.TypeDuration, &l.mu, &l.handshakeTimeout),
		tcp.BoundPort(func() net.Addr { return l.Addr() }))
	l.Listener = netstream.NewListener(netstream.ListenerConfig{
		Scheme:  u.Scheme,
		URL:     u,
		Mu:      &l.mu,
		Bind:    l.bind,
		Upgrade: l.upgrade,
		Options: opts,
	})

	logrus.WithFields(logrus.Fields{
		"function": "tlstcp.NewListener",
		"network":  l.network,
		"address":  addr,
	}).Debug("Created TLS listener")
	return l, nil
}

// TLSConfig returns the server TLS configuration.
func (l *Listener) TLSConfig() (*tlsconfig.Config, error) {
	return l.tls.Get()
}

// SetTLSConfig replaces the server TLS configuration. It fails with
// aio.ErrBusy once the listener is listening.
func (l *Listener) SetTLSConfig(cfg *tlsconfig.Config) error {
	return l.tls.Set(cfg)
}

func (l *Listener) bind() (net.Listener, error) {
	cfg := l.tls.Current()
	// Fail Listen rather than every handshake when no certificate is set.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	var lc net.ListenConfig
	if !l.settings.KeepAlive {
		lc.KeepAlive = -1
	}
	ln, err := lc.Listen(context.Background(), l.network, l.addr)
	if err != nil {
		return nil, err
	}
	// The config only becomes busy once the socket is bound.
	if _, err := cfg.Build(""); err != nil {
		ln.Close()
		return nil, err
	}
	l.active = l.tls.Freeze()
	return ln, nil
}

func (l *Listener) upgrade(ctx context.Context, raw net.Conn) (*netstream.Conn, error) {
	l.mu.Lock()
	noDelay, keepAlive := l.settings.NoDelay, l.settings.KeepAlive
	timeout := l.handshakeTimeout
	cfg := l.active
	l.mu.Unlock()

	if err := tcp.Apply(raw, noDelay, keepAlive); err != nil {
		return nil, err
	}
	conn, err := tlsconfig.Server(ctx, raw, cfg, timeout)
	if err != nil {
		return nil, err
	}
	opts := append(tcp.StreamOptions(raw, noDelay, keepAlive), tlsconfig.StreamOptions(cfg, conn)...)
	return netstream.NewConn(l.scheme, conn, opts...), nil
}
