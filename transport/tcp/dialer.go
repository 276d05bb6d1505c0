package tcp

import (
	"context"
	"net/url"
	"sync"

	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/sirupsen/logrus"
)

// Dialer dials TCP streams.
type Dialer struct {
	*netstream.Dialer

	mu       sync.Mutex
	settings Settings
	scheme   string
	network  string
	addr     string
}

// NewDialer creates a dialer for a tcp, tcp4 or tcp6 URL.
func NewDialer(u *url.URL) (*Dialer, error) {
	addr, err := ResolveDial(u)
	if err != nil {
		return nil, err
	}
	d := &Dialer{
		settings: DefaultSettings(),
		scheme:   u.Scheme,
		network:  Network(u.Scheme),
		addr:     addr,
	}
	d.Dialer = netstream.NewDialer(netstream.DialerConfig{
		Scheme:  u.Scheme,
		URL:     u,
		Dial:    d.dial,
		Options: d.settings.DialerOptions(&d.mu),
	})

	logrus.WithFields(logrus.Fields{
		"function": "tcp.NewDialer",
		"network":  d.network,
		"address":  addr,
	}).Debug("Created TCP dialer")
	return d, nil
}

func (d *Dialer) dial(ctx context.Context) (*netstream.Conn, error) {
	d.mu.Lock()
	s := d.settings
	d.mu.Unlock()

	c, err := s.Dial(ctx, d.network, d.addr)
	if err != nil {
		return nil, err
	}
	return netstream.NewConn(d.scheme, c, StreamOptions(c, s.NoDelay, s.KeepAlive)...), nil
}
