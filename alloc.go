package streamcore

import (
	"fmt"
	"net/url"

	"github.com/sirupsen/logrus"
)

// NewDialer parses uri and creates a Dialer for its scheme.
func NewDialer(uri string) (Dialer, error) {
	u, err := ParseURL(uri)
	if err != nil {
		return nil, err
	}
	return NewDialerURL(u)
}

// NewDialerURL creates a Dialer for an already parsed URL. The Dialer
// keeps its own copy of u.
func NewDialerURL(u *url.URL) (Dialer, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil URL", ErrAddrInvalid)
	}
	drv, err := Lookup(u.Scheme)
	if err != nil {
		return nil, err
	}
	d, err := drv.NewDialer(cloneURL(u))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewDialerURL",
			"url":      u.String(),
			"error":    err.Error(),
		}).Debug("Dialer allocation failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewDialerURL",
		"scheme":   u.Scheme,
		"url":      u.String(),
	}).Debug("Dialer allocated")
	return d, nil
}

// NewListener parses uri and creates a Listener for its scheme.
func NewListener(uri string) (Listener, error) {
	u, err := ParseURL(uri)
	if err != nil {
		return nil, err
	}
	return NewListenerURL(u)
}

// NewListenerURL creates a Listener for an already parsed URL. The
// Listener keeps its own copy of u.
func NewListenerURL(u *url.URL) (Listener, error) {
	if u == nil {
		return nil, fmt.Errorf("%w: nil URL", ErrAddrInvalid)
	}
	drv, err := Lookup(u.Scheme)
	if err != nil {
		return nil, err
	}
	l, err := drv.NewListener(cloneURL(u))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "NewListenerURL",
			"url":      u.String(),
			"error":    err.Error(),
		}).Debug("Listener allocation failed")
		return nil, err
	}
	logrus.WithFields(logrus.Fields{
		"function": "NewListenerURL",
		"scheme":   u.Scheme,
		"url":      u.String(),
	}).Debug("Listener allocated")
	return l, nil
}
