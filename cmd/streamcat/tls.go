package main

import (
	"errors"
	"fmt"

	"github.com/opd-ai/streamcore"
	"github.com/opd-ai/streamcore/tlsconfig"
)

func (o globalOptions) wantsTLS() bool {
	return o.CAFile != "" || o.CertFile != "" || o.KeyFile != "" || o.Insecure
}

func (o globalOptions) checkPair() error {
	if (o.CertFile == "") != (o.KeyFile == "") {
		return fmt.Errorf("%w: --cert and --key must be given together", streamcore.ErrInvalidArgument)
	}
	return nil
}

func configureDialerTLS(d streamcore.Dialer, o globalOptions) error {
	if err := o.checkPair(); err != nil {
		return err
	}
	cfg, err := streamcore.GetDialerTLS(d)
	if err != nil {
		if errors.Is(err, streamcore.ErrNotSupported) && o.wantsTLS() {
			return fmt.Errorf("%w: TLS flags need a TLS scheme", err)
		}
		return ignoreAbsent(err)
	}
	if o.CAFile != "" {
		if err := cfg.SetCAFile(o.CAFile); err != nil {
			return err
		}
	}
	if o.CertFile != "" {
		if err := cfg.SetCertKeyFile(o.CertFile, o.KeyFile); err != nil {
			return err
		}
	}
	if o.Insecure {
		return cfg.SetAuthMode(tlsconfig.AuthNone)
	}
	return nil
}

func configureListenerTLS(l streamcore.Listener, o globalOptions) error {
	if err := o.checkPair(); err != nil {
		return err
	}
	cfg, err := streamcore.GetListenerTLS(l)
	if err != nil {
		if errors.Is(err, streamcore.ErrNotSupported) && o.wantsTLS() {
			return fmt.Errorf("%w: TLS flags need a TLS scheme", err)
		}
		return ignoreAbsent(err)
	}
	if o.CertFile != "" {
		if err := cfg.SetCertKeyFile(o.CertFile, o.KeyFile); err != nil {
			return err
		}
	}
	if o.CAFile != "" {
		if err := cfg.SetCAFile(o.CAFile); err != nil {
			return err
		}
		mode := tlsconfig.AuthRequired
		if o.Insecure {
			mode = tlsconfig.AuthOptional
		}
		return cfg.SetAuthMode(mode)
	}
	return nil
}
