package streamcore

import (
	"fmt"

	"github.com/opd-ai/streamcore/tlsconfig"
)

func tlsOf(v any, kind string) (TLSConfigurer, error) {
	if isNil(v) {
		return nil, fmt.Errorf("%w: nil %s", ErrClosed, kind)
	}
	t, ok := v.(TLSConfigurer)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no TLS configuration", ErrNotSupported, kind)
	}
	return t, nil
}

// GetDialerTLS returns the TLS configuration of d. It fails with
// ErrNotSupported for schemes without TLS.
func GetDialerTLS(d Dialer) (*tlsconfig.Config, error) {
	t, err := tlsOf(d, "dialer")
	if err != nil {
		return nil, err
	}
	return t.TLSConfig()
}

// SetDialerTLS replaces the TLS configuration used by later dials.
func SetDialerTLS(d Dialer, cfg *tlsconfig.Config) error {
	t, err := tlsOf(d, "dialer")
	if err != nil {
		return err
	}
	return t.SetTLSConfig(cfg)
}

// GetListenerTLS returns the TLS configuration of l. It fails with
// ErrNotSupported for schemes without TLS.
func GetListenerTLS(l Listener) (*tlsconfig.Config, error) {
	t, err := tlsOf(l, "listener")
	if err != nil {
		return nil, err
	}
	return t.TLSConfig()
}

// SetListenerTLS replaces the TLS configuration of l. Listeners reject
// the change with ErrBusy once listening.
func SetListenerTLS(l Listener, cfg *tlsconfig.Config) error {
	t, err := tlsOf(l, "listener")
	if err != nil {
		return err
	}
	return t.SetTLSConfig(cfg)
}

// SetSecurityDescriptor applies a platform access control descriptor to
// l before Listen. On Windows IPC listeners desc is an SDDL string. Other
// listeners fail with ErrNotSupported.
func SetSecurityDescriptor(l Listener, desc any) error {
	if isNil(l) {
		return fmt.Errorf("%w: nil listener", ErrClosed)
	}
	s, ok := l.(SecurityDescriptorSetter)
	if !ok {
		return fmt.Errorf("%w: listener has no security descriptor", ErrNotSupported)
	}
	return s.SetSecurityDescriptor(desc)
}
