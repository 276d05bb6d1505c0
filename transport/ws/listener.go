package ws

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/opd-ai/streamcore/config"
	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/metrics"
	"github.com/opd-ai/streamcore/options"
	"github.com/opd-ai/streamcore/tlsconfig"
	"github.com/opd-ai/streamcore/transport/tcp"
	"github.com/sirupsen/logrus"
)

// Listener serves WebSocket upgrades on one address and path.
type Listener struct {
	*netstream.Listener

	mu               sync.Mutex
	settings         tcp.Settings
	handshakeTimeout time.Duration
	recvMax          int
	responseHeaders  string
	protocol         string
	tls              *tlsconfig.Slot
	active           *tlsconfig.Config
	upgrader         *websocket.Upgrader
	srv              *http.Server

	scheme  string
	network string
	addr    string
	path    string
}

// NewListener creates a listener for a ws, ws4 or ws6 URL.
func NewListener(u *url.URL) (*Listener, error) {
	return newListener(u, nil)
}

func newListener(u *url.URL, slot *tlsconfig.Slot) (*Listener, error) {
	addr, err := tcp.ResolveListen(hostOnly(u, slot != nil))
	if err != nil {
		return nil, err
	}
	cfg := config.Defaults()
	l := &Listener{
		settings:         tcp.DefaultSettings(),
		handshakeTimeout: cfg.HandshakeTimeout,
		recvMax:          cfg.RecvMaxSize,
		tls:              slot,
		scheme:           u.Scheme,
		network:          tcp.Network(u.Scheme),
		addr:             addr,
		path:             u.Path,
	}
	if l.path == "" {
		l.path = "/"
	}
	opts := append(l.settings.ListenerOptions(&l.mu),
		options.CheckedField(options.RecvMaxSize, options.TypeSize, &l.mu, &l.recvMax, limits.ValidateRecvSize),
		options.CheckedField(options.WSResponseHeaders, options.TypeString, &l.mu, &l.responseHeaders, checkHeaders),
		options.Field(options.WSProtocol, options.TypeString, &l.mu, &l.protocol),
		tcp.BoundPort(func() net.Addr { return l.Addr() }),
	)
	if slot != nil {
		opts = append(opts, options.Field(options.TLSHandshakeTimeout, options.TypeDuration, &l.mu, &l.handshakeTimeout))
	}
	l.Listener = netstream.NewListener(netstream.ListenerConfig{
		Scheme:  u.Scheme,
		URL:     u,
		Mu:      &l.mu,
		Bind:    l.bind,
		Serve:   l.serve,
		Close:   l.shutdown,
		Options: opts,
	})

	logrus.WithFields(logrus.Fields{
		"function": "ws.NewListener",
		"address":  addr,
		"path":     l.path,
	}).Debug("Created WebSocket listener")
	return l, nil
}

// tunedListener applies TCP tunables to every accepted connection.
type tunedListener struct {
	net.Listener
	noDelay   bool
	keepAlive bool
}

func (t tunedListener) Accept() (net.Conn, error) {
	c, err := t.Listener.Accept()
	if err != nil {
		return nil, err
	}
	if err := tcp.Apply(c, t.noDelay, t.keepAlive); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "tunedListener.Accept",
			"error":    err.Error(),
		}).Debug("Applying TCP tunables failed")
	}
	return c, nil
}

func (l *Listener) bind() (net.Listener, error) {
	var lc net.ListenConfig
	if !l.settings.KeepAlive {
		lc.KeepAlive = -1
	}
	var cfg *tlsconfig.Config
	if l.tls != nil {
		cfg = l.tls.Current()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	ln, err := lc.Listen(context.Background(), l.network, l.addr)
	if err != nil {
		return nil, err
	}
	out := l.Gate(tunedListener{ln, l.settings.NoDelay, l.settings.KeepAlive})
	if cfg != nil {
		// The config only becomes busy once the socket is bound.
		tc, err := cfg.Build("")
		if err != nil {
			ln.Close()
			return nil, err
		}
		l.active = l.tls.Freeze()
		out = tls.NewListener(out, tc)
	}

	l.upgrader = &websocket.Upgrader{
		HandshakeTimeout: l.handshakeTimeout,
		CheckOrigin:      func(*http.Request) bool { return true },
	}
	if l.protocol != "" {
		l.upgrader.Subprotocols = []string{l.protocol}
	}
	l.srv = &http.Server{
		Handler:           l,
		ReadHeaderTimeout: l.handshakeTimeout,
		IdleTimeout:       l.handshakeTimeout,
	}
	return out, nil
}

func (l *Listener) serve(ln net.Listener) {
	l.mu.Lock()
	srv := l.srv
	l.mu.Unlock()

	err := srv.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) && !errors.Is(err, net.ErrClosed) {
		logrus.WithFields(logrus.Fields{
			"function": "Listener.serve",
			"error":    err.Error(),
		}).Warn("WebSocket server stopped")
	}
}

func (l *Listener) shutdown() error {
	l.mu.Lock()
	srv := l.srv
	l.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Close()
}

// ServeHTTP upgrades requests for the listener path and hands the
// resulting streams to Accept.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != l.path {
		http.NotFound(w, r)
		return
	}
	if !l.Enter() {
		http.Error(w, "listener closed", http.StatusServiceUnavailable)
		return
	}
	defer l.Exit()

	l.mu.Lock()
	upgrader := l.upgrader
	recvMax := l.recvMax
	respHeaders, _ := ParseHeaders(l.responseHeaders)
	noDelay, keepAlive := l.settings.NoDelay, l.settings.KeepAlive
	cfg := l.active
	l.mu.Unlock()

	ws, err := upgrader.Upgrade(w, r, respHeaders)
	if err != nil {
		metrics.AcceptDone(l.scheme, err)
		logrus.WithFields(logrus.Fields{
			"function": "Listener.ServeHTTP",
			"remote":   r.RemoteAddr,
			"error":    err.Error(),
		}).Debug("WebSocket upgrade failed")
		return
	}
	// Hold the accept slot until an Accept claims the stream.
	defer netstream.ReleaseGate(ws.UnderlyingConn())
	ws.SetReadLimit(int64(recvMax))

	opts := append(tcp.StreamOptions(rawConn(ws.UnderlyingConn()), noDelay, keepAlive),
		options.Const(options.WSRequestHeaders, options.TypeString, FormatHeaders(r.Header)),
		options.Const(options.WSResponseHeaders, options.TypeString, FormatHeaders(respHeaders)),
		options.Const(options.WSRequestURI, options.TypeString, r.RequestURI),
		options.Const(options.WSProtocol, options.TypeString, ws.Subprotocol()),
		options.Const(options.RecvMaxSize, options.TypeSize, recvMax),
	)
	if tc, ok := ws.UnderlyingConn().(*tls.Conn); ok && cfg != nil {
		opts = append(opts, tlsconfig.StreamOptions(cfg, tc)...)
	}
	l.Deliver(netstream.NewConn(l.scheme, newConn(ws), opts...))
}

// SecureListener serves TLS-secured WebSocket upgrades.
type SecureListener struct {
	*Listener
}

// NewSecureListener creates a listener for a wss, wss4 or wss6 URL.
func NewSecureListener(u *url.URL) (*SecureListener, error) {
	l, err := newListener(u, tlsconfig.NewSlot(tlsconfig.ModeServer))
	if err != nil {
		return nil, err
	}
	return &SecureListener{Listener: l}, nil
}

// TLSConfig returns the server TLS configuration.
func (l *SecureListener) TLSConfig() (*tlsconfig.Config, error) {
	return l.tls.Get()
}

// SetTLSConfig replaces the server TLS configuration. It fails with
// aio.ErrBusy once the listener is listening.
func (l *SecureListener) SetTLSConfig(cfg *tlsconfig.Config) error {
	return l.tls.Set(cfg)
}
