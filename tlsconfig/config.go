// Package tlsconfig provides the TLS configuration object shared by the
// secured transports (tls+tcp and wss).
//
// A Config is created for one side of the handshake, tuned with its
// setters, and attached to any number of dialers or listeners. Once a
// connection has been built from it the Config is busy and further
// changes fail with aio.ErrBusy, so live connections never observe a
// half-applied update.
package tlsconfig

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"

	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/options"
	"github.com/sirupsen/logrus"
)

// Mode selects the side of the handshake a Config is used for.
type Mode int

const (
	// ModeClient configures dialers
	ModeClient Mode = iota
	// ModeServer configures listeners
	ModeServer
)

func (m Mode) String() string {
	if m == ModeServer {
		return "server"
	}
	return "client"
}

// AuthMode controls peer certificate verification.
type AuthMode int

const (
	// AuthNone skips peer verification
	AuthNone AuthMode = iota
	// AuthOptional verifies a certificate if the peer presents one
	AuthOptional
	// AuthRequired fails the handshake unless the peer presents a valid certificate
	AuthRequired
)

// Config is a shareable TLS configuration.
type Config struct {
	mu         sync.Mutex
	mode       Mode
	auth       AuthMode
	serverName string
	roots      *x509.CertPool
	certs      []tls.Certificate
	minVersion uint16
	maxVersion uint16
	busy       bool
}

// New creates a Config for mode. Clients default to AuthRequired,
// servers to AuthNone.
func New(mode Mode) *Config {
	auth := AuthNone
	if mode == ModeClient {
		auth = AuthRequired
	}
	return &Config{
		mode:       mode,
		auth:       auth,
		minVersion: tls.VersionTLS12,
		maxVersion: tls.VersionTLS13,
	}
}

// Mode returns the side this Config was created for.
func (c *Config) Mode() Mode {
	return c.mode
}

// AuthMode returns the peer verification mode.
func (c *Config) AuthMode() AuthMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.auth
}

// ServerName returns the configured server name.
func (c *Config) ServerName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverName
}

// Busy reports whether the Config has been used to build a connection.
func (c *Config) Busy() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy
}

// modify runs fn under the lock unless the Config is busy.
func (c *Config) modify(fn func() error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return fmt.Errorf("%w: tls configuration in use", aio.ErrBusy)
	}
	return fn()
}

// SetServerName sets the name a client expects in the server certificate
// and sends via SNI.
func (c *Config) SetServerName(name string) error {
	return c.modify(func() error {
		c.serverName = name
		return nil
	})
}

// SetAuthMode sets the peer verification mode.
func (c *Config) SetAuthMode(mode AuthMode) error {
	if mode < AuthNone || mode > AuthRequired {
		return fmt.Errorf("%w: auth mode %d", options.ErrInvalidArgument, mode)
	}
	return c.modify(func() error {
		c.auth = mode
		return nil
	})
}

// SetCAChain adds PEM encoded certificates to the trusted roots.
func (c *Config) SetCAChain(pemData []byte) error {
	return c.modify(func() error {
		if c.roots == nil {
			c.roots = x509.NewCertPool()
		}
		if !c.roots.AppendCertsFromPEM(pemData) {
			return fmt.Errorf("%w: no certificates found in CA chain", options.ErrInvalidArgument)
		}
		return nil
	})
}

// SetCAFile loads trusted roots from a PEM file.
func (c *Config) SetCAFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.SetCAChain(data)
}

// SetOwnCert sets the local certificate chain and private key.
func (c *Config) SetOwnCert(certPEM, keyPEM []byte) error {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return fmt.Errorf("%w: %v", options.ErrInvalidArgument, err)
	}
	return c.modify(func() error {
		c.certs = []tls.Certificate{cert}
		return nil
	})
}

// SetCertKeyFile loads the local certificate chain and private key from
// PEM files.
func (c *Config) SetCertKeyFile(certFile, keyFile string) error {
	certPEM, err := os.ReadFile(certFile)
	if err != nil {
		return err
	}
	keyPEM, err := os.ReadFile(keyFile)
	if err != nil {
		return err
	}
	return c.SetOwnCert(certPEM, keyPEM)
}

// SetVersion bounds the negotiated protocol version. Only TLS 1.2 and
// TLS 1.3 are accepted.
func (c *Config) SetVersion(minVersion, maxVersion uint16) error {
	valid := func(v uint16) bool { return v == tls.VersionTLS12 || v == tls.VersionTLS13 }
	if !valid(minVersion) || !valid(maxVersion) || minVersion > maxVersion {
		return fmt.Errorf("%w: tls version range %#x-%#x", options.ErrInvalidArgument, minVersion, maxVersion)
	}
	return c.modify(func() error {
		c.minVersion = minVersion
		c.maxVersion = maxVersion
		return nil
	})
}

// Validate reports whether Build would succeed, without marking the
// Config busy.
func (c *Config) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validate()
}

func (c *Config) validate() error {
	if c.mode == ModeServer && len(c.certs) == 0 {
		return fmt.Errorf("%w: server tls configuration has no certificate", options.ErrInvalidArgument)
	}
	return nil
}

// Build returns a crypto/tls configuration and marks the Config busy.
// For clients, defaultServerName is used when no server name was set.
func (c *Config) Build(defaultServerName string) (*tls.Config, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.validate(); err != nil {
		return nil, err
	}
	tc := &tls.Config{
		MinVersion:   c.minVersion,
		MaxVersion:   c.maxVersion,
		Certificates: c.certs,
	}

	switch c.mode {
	case ModeClient:
		tc.ServerName = c.serverName
		if tc.ServerName == "" {
			tc.ServerName = defaultServerName
		}
		tc.RootCAs = c.roots
		// Non-required modes complete the handshake and report the
		// verification result through Verified.
		tc.InsecureSkipVerify = c.auth != AuthRequired
	case ModeServer:
		tc.ClientCAs = c.roots
		switch c.auth {
		case AuthOptional:
			tc.ClientAuth = tls.VerifyClientCertIfGiven
		case AuthRequired:
			tc.ClientAuth = tls.RequireAndVerifyClientCert
		default:
			tc.ClientAuth = tls.NoClientCert
		}
	}

	if !c.busy {
		logrus.WithFields(logrus.Fields{
			"function":    "Config.Build",
			"mode":        c.mode.String(),
			"auth_mode":   int(c.auth),
			"server_name": tc.ServerName,
		}).Debug("TLS configuration now in use")
	}
	c.busy = true
	return tc, nil
}

// Verified reports whether the peer of a completed handshake presented a
// certificate that chains to the configured roots.
func (c *Config) Verified(state tls.ConnectionState) bool {
	if len(state.VerifiedChains) > 0 {
		return true
	}
	if len(state.PeerCertificates) == 0 {
		return false
	}

	c.mu.Lock()
	roots := c.roots
	mode := c.mode
	c.mu.Unlock()

	opts := x509.VerifyOptions{
		Roots:         roots,
		Intermediates: x509.NewCertPool(),
	}
	if mode == ModeClient {
		opts.DNSName = state.ServerName
	} else {
		opts.KeyUsages = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	}
	for _, cert := range state.PeerCertificates[1:] {
		opts.Intermediates.AddCert(cert)
	}
	_, err := state.PeerCertificates[0].Verify(opts)
	return err == nil
}
