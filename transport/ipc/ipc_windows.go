//go:build windows

package ipc

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"sync"

	"github.com/Microsoft/go-winio"
	"github.com/opd-ai/streamcore/aio"
	"github.com/opd-ai/streamcore/internal/netstream"
	"github.com/opd-ai/streamcore/limits"
	"github.com/opd-ai/streamcore/options"
	"github.com/sirupsen/logrus"
)

const pipePrefix = `\\.\pipe\`

func pipeName(u *url.URL) (string, error) {
	if u.Scheme != "ipc" {
		return "", fmt.Errorf("%w: %s sockets", options.ErrNotSupported, u.Scheme)
	}
	path, err := PathFromURL(u)
	if err != nil {
		return "", err
	}
	if err := limits.ValidateString(path); err != nil {
		return "", fmt.Errorf("%w: %v", aio.ErrAddrInvalid, err)
	}
	return pipePrefix + path, nil
}

// Dialer dials named pipe streams.
type Dialer struct {
	*netstream.Dialer
	scheme string
	pipe   string
}

// NewDialer creates a dialer for an ipc URL.
func NewDialer(u *url.URL) (*Dialer, error) {
	pipe, err := pipeName(u)
	if err != nil {
		return nil, err
	}
	d := &Dialer{scheme: u.Scheme, pipe: pipe}
	d.Dialer = netstream.NewDialer(netstream.DialerConfig{
		Scheme: u.Scheme,
		URL:    u,
		Dial:   d.dial,
	})
	return d, nil
}

func (d *Dialer) dial(ctx context.Context) (*netstream.Conn, error) {
	c, err := winio.DialPipeContext(ctx, d.pipe)
	if err != nil {
		return nil, err
	}
	return netstream.NewConn(d.scheme, c), nil
}

// Listener accepts named pipe streams.
type Listener struct {
	*netstream.Listener

	mu         sync.Mutex
	scheme     string
	pipe       string
	descriptor string
	bound      bool
}

// NewListener creates a listener for an ipc URL.
func NewListener(u *url.URL) (*Listener, error) {
	pipe, err := pipeName(u)
	if err != nil {
		return nil, err
	}
	l := &Listener{scheme: u.Scheme, pipe: pipe}
	l.Listener = netstream.NewListener(netstream.ListenerConfig{
		Scheme: u.Scheme,
		URL:    u,
		Mu:     &l.mu,
		Bind:   l.bind,
	})
	return l, nil
}

// SetSecurityDescriptor sets the SDDL string controlling who may connect.
// desc must be a string. It fails with aio.ErrBusy once listening.
func (l *Listener) SetSecurityDescriptor(desc any) error {
	sddl, ok := desc.(string)
	if !ok {
		return fmt.Errorf("%w: security descriptor must be an SDDL string, not %T", options.ErrInvalidArgument, desc)
	}
	if _, err := winio.SddlToSecurityDescriptor(sddl); err != nil {
		return fmt.Errorf("%w: %v", options.ErrInvalidArgument, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.bound {
		return fmt.Errorf("%w: security descriptor must be set before listening", aio.ErrBusy)
	}
	l.descriptor = sddl
	logrus.WithFields(logrus.Fields{
		"function": "Listener.SetSecurityDescriptor",
		"pipe":     l.pipe,
	}).Debug("Security descriptor set")
	return nil
}

func (l *Listener) bind() (net.Listener, error) {
	ln, err := winio.ListenPipe(l.pipe, &winio.PipeConfig{SecurityDescriptor: l.descriptor})
	if err != nil {
		return nil, err
	}
	l.bound = true
	return ln, nil
}
