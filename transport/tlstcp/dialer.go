package tlstcp

import (
	"context"
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

// Dialer dials TLS streams over TCP.
type Dialer struct {
	*netstream.Dialer

	mu               sync.Mutex
	settings         tcp.Settings
	handshakeTimeout time.Duration
	tls              *tlsconfig.Slot

	scheme  string
	network string
	addr    string
	host    string
}

// NewDialer creates a dialer for a tls+tcp URL.
func NewDialer(u *url.URL) (*Dialer, error) {
	addr, err := tcp.ResolveDial(u)
	if err != nil {
		return nil, err
	}
	d := &Dialer{
		settings:         tcp.DefaultSettings(),
		handshakeTimeout: config.Defaults().HandshakeTimeout,
		tls:              tlsconfig.NewSlot(tlsconfig.ModeClient),
		scheme:           u.Scheme,
		network:          tcp.Network(u.Scheme),
		addr:             addr,
		host:             u.Hostname(),
	}
	opts := append(d.settings.DialerOptions(&d.mu),
		options.Field(options.TLSHandshakeTimeout, options.TypeDuration, &d.mu, &d.handshakeTimeout))
	d.Dialer = netstream.NewDialer(netstream.DialerConfig{
		Scheme:  u.Scheme,
		URL:     u,
		Dial:    d.dial,
		Options: opts,
	})

	logrus.WithFields(logrus.Fields{
		"function": "tlstcp.NewDialer",
		"network":  d.network,
		"address":  addr,
	}).Debug("Created TLS dialer")
	return d, nil
}

// TLSConfig returns the client TLS configuration.
func (d *Dialer) TLSConfig() (*tlsconfig.Config, error) {
	return d.tls.Get()
}

// SetTLSConfig replaces the client TLS configuration used by later dials.
func (d *Dialer) SetTLSConfig(cfg *tlsconfig.Config) error {
	return d.tls.Set(cfg)
}

func (d *Dialer) dial(ctx context.Context) (*netstream.Conn, error) {
	d.mu.Lock()
	s := d.settings
	timeout := d.handshakeTimeout
	d.mu.Unlock()

	raw, err := s.Dial(ctx, d.network, d.addr)
	if err != nil {
		return nil, err
	}
	cfg := d.tls.Current()
	conn, err := tlsconfig.Client(ctx, raw, cfg, d.host, timeout)
	if err != nil {
		raw.Close()
		return nil, err
	}
	opts := append(tcp.StreamOptions(raw, s.NoDelay, s.KeepAlive), tlsconfig.StreamOptions(cfg, conn)...)
	return netstream.NewConn(d.scheme, conn, opts...), nil
}
