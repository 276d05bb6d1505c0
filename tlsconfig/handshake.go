package tlsconfig

import (
	"context"
	"crypto/tls"
	"net"
	"strings"
	"time"

	"github.com/opd-ai/streamcore/options"
)

// Client runs a client handshake over c. serverName is used when cfg has
// none. A timeout of zero leaves only ctx in control.
func Client(ctx context.Context, c net.Conn, cfg *Config, serverName string, timeout time.Duration) (*tls.Conn, error) {
	tc, err := cfg.Build(serverName)
	if err != nil {
		return nil, err
	}
	conn := tls.Client(c, tc)
	if err := handshake(ctx, conn, timeout); err != nil {
		return nil, err
	}
	return conn, nil
}

// Server runs a server handshake over c.
func Server(ctx context.Context, c net.Conn, cfg *Config, timeout time.Duration) (*tls.Conn, error) {
	tc, err := cfg.Build("")
	if err != nil {
		return nil, err
	}
	conn := tls.Server(c, tc)
	if err := handshake(ctx, conn, timeout); err != nil {
		return nil, err
	}
	return conn, nil
}

func handshake(ctx context.Context, conn *tls.Conn, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return conn.HandshakeContext(ctx)
}

// StreamOptions publishes the read-only TLS introspection options of an
// established connection.
func StreamOptions(cfg *Config, conn *tls.Conn) []options.Option {
	return []options.Option{
		options.ReadOnly(options.TLSVerified, options.TypeBool, func() (any, error) {
			return cfg.Verified(conn.ConnectionState()), nil
		}),
		options.ReadOnly(options.TLSPeerCN, options.TypeString, func() (any, error) {
			certs := conn.ConnectionState().PeerCertificates
			if len(certs) == 0 {
				return "", nil
			}
			return certs[0].Subject.CommonName, nil
		}),
		options.ReadOnly(options.TLSPeerAltNames, options.TypeString, func() (any, error) {
			certs := conn.ConnectionState().PeerCertificates
			if len(certs) == 0 {
				return "", nil
			}
			return strings.Join(certs[0].DNSNames, ","), nil
		}),
	}
}
