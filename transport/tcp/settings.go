package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/config"
	"github.com/opd-ai/streamcore/options"
)

// Settings are the TCP tunables of a dialer or listener. Streams created
// by the owner copy them when they are created.
type Settings struct {
	NoDelay     bool
	KeepAlive   bool
	DialTimeout time.Duration
	LocalAddr   options.SockAddr
}

// DefaultSettings returns the process defaults from config.Defaults.
func DefaultSettings() Settings {
	cfg := config.Defaults()
	return Settings{
		NoDelay:     cfg.NoDelay,
		KeepAlive:   cfg.KeepAlive,
		DialTimeout: cfg.DialTimeout,
	}
}

// DialerOptions publishes s as dialer options guarded by mu.
func (s *Settings) DialerOptions(mu sync.Locker) []options.Option {
	return []options.Option{
		options.Field(options.TCPNoDelay, options.TypeBool, mu, &s.NoDelay),
		options.Field(options.TCPKeepAlive, options.TypeBool, mu, &s.KeepAlive),
		options.Field(options.DialTimeout, options.TypeDuration, mu, &s.DialTimeout),
		options.CheckedField(options.LocalAddr, options.TypeSockAddr, mu, &s.LocalAddr, checkLocalAddr),
	}
}

// ListenerOptions publishes the tunables applied to accepted streams.
func (s *Settings) ListenerOptions(mu sync.Locker) []options.Option {
	return []options.Option{
		options.Field(options.TCPNoDelay, options.TypeBool, mu, &s.NoDelay),
		options.Field(options.TCPKeepAlive, options.TypeBool, mu, &s.KeepAlive),
	}
}

func checkLocalAddr(sa options.SockAddr) error {
	switch sa.Family {
	case options.FamilyUnspec, options.FamilyInet, options.FamilyInet6:
		return nil
	}
	return fmt.Errorf("%w: %s address is not a TCP address", options.ErrInvalidArgument, sa.Family)
}

// Dial connects to addr with a snapshot of s and applies the tunables.
func (s Settings) Dial(ctx context.Context, network, addr string) (net.Conn, error) {
	d := net.Dialer{Timeout: s.DialTimeout}
	if !s.KeepAlive {
		d.KeepAlive = -1
	}
	if s.LocalAddr.Family != options.FamilyUnspec {
		d.LocalAddr = s.LocalAddr.TCPAddr()
	}
	c, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if err := Apply(c, s.NoDelay, s.KeepAlive); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

// Apply sets Nagle and keep-alive behavior on a TCP connection. Other
// connection types are left alone.
func Apply(c net.Conn, noDelay, keepAlive bool) error {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetNoDelay(noDelay); err != nil {
		return err
	}
	return tc.SetKeepAlive(keepAlive)
}

// StreamOptions publishes live tcp-nodelay and tcp-keepalive options for
// an established connection. Setting them reconfigures the socket.
func StreamOptions(c net.Conn, noDelay, keepAlive bool) []options.Option {
	tc, ok := c.(*net.TCPConn)
	if !ok {
		return nil
	}
	var mu sync.Mutex
	return []options.Option{
		{
			Name: options.TCPNoDelay,
			Type: options.TypeBool,
			Get: func() (any, error) {
				mu.Lock()
				defer mu.Unlock()
				return noDelay, nil
			},
			Set: func(v any) error {
				mu.Lock()
				defer mu.Unlock()
				if err := tc.SetNoDelay(v.(bool)); err != nil {
					return aio.NewError("set", options.TCPNoDelay, err)
				}
				noDelay = v.(bool)
				return nil
			},
		},
		{
			Name: options.TCPKeepAlive,
			Type: options.TypeBool,
			Get: func() (any, error) {
				mu.Lock()
				defer mu.Unlock()
				return keepAlive, nil
			},
			Set: func(v any) error {
				mu.Lock()
				defer mu.Unlock()
				if err := tc.SetKeepAlive(v.(bool)); err != nil {
					return aio.NewError("set", options.TCPKeepAlive, err)
				}
				keepAlive = v.(bool)
				return nil
			},
		},
	}
}

// BoundPort publishes the tcp-bound-port option for a listener whose
// bound address is returned by addr.
func BoundPort(addr func() net.Addr) options.Option {
	return options.ReadOnly(options.TCPBoundPort, options.TypeInt32, func() (any, error) {
		a, ok := addr().(*net.TCPAddr)
		if !ok {
			return nil, fmt.Errorf("%w: listener not bound", aio.ErrState)
		}
		return int32(a.Port), nil
	})
}
