package streamcore

import (
	"fmt"
	"net/url"
	"strings"
)

// ParseURL parses a stream URL. Failures wrap ErrAddrInvalid.
//
// The scheme keeps its original case so that registry lookup stays exact:
// "TCP://host:1" parses but names no transport.
func ParseURL(uri string) (*url.URL, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAddrInvalid, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme in %q", ErrAddrInvalid, uri)
	}
	if i := strings.Index(uri, ":"); i > 0 {
		u.Scheme = uri[:i]
	}
	return u, nil
}

// cloneURL copies u so that backends never share the caller's value.
func cloneURL(u *url.URL) *url.URL {
	c := *u
	if u.User != nil {
		user := *u.User
		c.User = &user
	}
	return &c
}
