package ws

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opd-ai/streamcore/config"
	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/options"
	"github.com/opd-ai/streamcore/tlsconfig"
	"github.com/opd-ai/streamcore/transport/tcp"
	"github.com/sirupsen/logrus"
)

// Dialer dials WebSocket streams.
type Dialer struct {
	*netstream.Dialer

	mu               sync.Mutex
	settings         tcp.Settings
	handshakeTimeout time.Duration
	recvMax          int
	requestHeaders   string
	protocol         string
	tls              *tlsconfig.Slot

	scheme  string
	network string
	target  string
	host    string
}

// NewDialer creates a dialer for a ws, ws4 or ws6 URL.
func NewDialer(u *url.URL) (*Dialer, error) {
	return newDialer(u, nil)
}

func newDialer(u *url.URL, slot *tlsconfig.Slot) (*Dialer, error) {
	if _, err := tcp.ResolveDial(hostOnly(u, slot != nil)); err != nil {
		return nil, err
	}
	cfg := config.Defaults()
	d := &Dialer{
		settings:         tcp.DefaultSettings(),
		handshakeTimeout: cfg.HandshakeTimeout,
		recvMax:          cfg.RecvMaxSize,
		tls:              slot,
		scheme:           u.Scheme,
		network:          tcp.Network(u.Scheme),
		target:           targetURL(u, slot != nil),
		host:             u.Hostname(),
	}
	opts := append(d.settings.DialerOptions(&d.mu),
		options.CheckedField(options.RecvMaxSize, options.TypeSize, &d.mu, &d.recvMax, limits.ValidateRecvSize),
		options.CheckedField(options.WSRequestHeaders, options.TypeString, &d.mu, &d.requestHeaders, checkHeaders),
		options.Field(options.WSProtocol, options.TypeString, &d.mu, &d.protocol),
	)
	if slot != nil {
		opts = append(opts, options.Field(options.TLSHandshakeTimeout, options.TypeDuration, &d.mu, &d.handshakeTimeout))
	}
	d.Dialer = netstream.NewDialer(netstream.DialerConfig{
		Scheme:  u.Scheme,
		URL:     u,
		Dial:    d.dial,
		Options: opts,
	})

	logrus.WithFields(logrus.Fields{
		"function": "ws.NewDialer",
		"target":   d.target,
		"network":  d.network,
	}).Debug("Created WebSocket dialer")
	return d, nil
}

// hostOnly reduces a WebSocket URL to the scheme and host:port checked by
// TCP address validation, filling in the default HTTP or HTTPS port.
func hostOnly(u *url.URL, secure bool) *url.URL {
	port := u.Port()
	if port == "" {
		port = "80"
		if secure {
			port = "443"
		}
	}
	return &url.URL{Scheme: u.Scheme, Host: net.JoinHostPort(u.Hostname(), port)}
}

// targetURL rewrites ws4/ws6/wss4/wss6 into the ws/wss URL sent in the
// upgrade request.
func targetURL(u *url.URL, secure bool) string {
	t := *u
	t.Scheme = "ws"
	if secure {
		t.Scheme = "wss"
	}
	if t.Path == "" {
		t.Path = "/"
	}
	return t.String()
}

func (d *Dialer) dial(ctx context.Context) (*netstream.Conn, error) {
	d.mu.Lock()
	s := d.settings
	timeout := d.handshakeTimeout
	recvMax := d.recvMax
	protocol := d.protocol
	headers, err := ParseHeaders(d.requestHeaders)
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}

	wd := websocket.Dialer{
		NetDialContext: func(ctx context.Context, _, addr string) (net.Conn, error) {
			return s.Dial(ctx, d.network, addr)
		},
		HandshakeTimeout: timeout,
	}
	if protocol != "" {
		wd.Subprotocols = []string{protocol}
	}
	var tlsCfg *tlsconfig.Config
	if d.tls != nil {
		tlsCfg = d.tls.Current()
		wd.NetDialTLSContext = func(ctx context.Context, _, addr string) (net.Conn, error) {
			raw, err := s.Dial(ctx, d.network, addr)
			if err != nil {
				return nil, err
			}
			conn, err := tlsconfig.Client(ctx, raw, tlsCfg, d.host, timeout)
			if err != nil {
				raw.Close()
				return nil, err
			}
			return conn, nil
		}
	}

	ws, resp, err := wd.DialContext(ctx, d.target, headers)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	ws.SetReadLimit(int64(recvMax))

	var respHeaders http.Header
	if resp != nil {
		respHeaders = resp.Header
	}
	opts := append(tcp.StreamOptions(rawConn(ws.UnderlyingConn()), s.NoDelay, s.KeepAlive),
		options.Const(options.WSRequestHeaders, options.TypeString, FormatHeaders(headers)),
		options.Const(options.WSResponseHeaders, options.TypeString, FormatHeaders(respHeaders)),
		options.Const(options.WSRequestURI, options.TypeString, requestURI(d.target)),
		options.Const(options.WSProtocol, options.TypeString, ws.Subprotocol()),
		options.Const(options.RecvMaxSize, options.TypeSize, recvMax),
	)
	if tc, ok := ws.UnderlyingConn().(*tls.Conn); ok {
		opts = append(opts, tlsconfig.StreamOptions(tlsCfg, tc)...)
	}
	return netstream.NewConn(d.scheme, newConn(ws), opts...), nil
}

func requestURI(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.RequestURI()
}

// rawConn unwraps TLS and accept-gate wrappers to reach the TCP socket.
func rawConn(c net.Conn) net.Conn {
	return netstream.Unwrap(c)
}

// SecureDialer dials TLS-secured WebSocket streams.
type SecureDialer struct {
	*Dialer
}

// NewSecureDialer creates a dialer for a wss, wss4 or wss6 URL.
func NewSecureDialer(u *url.URL) (*SecureDialer, error) {
	d, err := newDialer(u, tlsconfig.NewSlot(tlsconfig.ModeClient))
	if err != nil {
		return nil, err
	}
	return &SecureDialer{Dialer: d}, nil
}

// TLSConfig returns the client TLS configuration.
func (d *SecureDialer) TLSConfig() (*tlsconfig.Config, error) {
	return d.tls.Get()
}

// SetTLSConfig replaces the client TLS configuration used by later dials.
func (d *SecureDialer) SetTLSConfig(cfg *tlsconfig.Config) error {
	return d.tls.Set(cfg)
}
