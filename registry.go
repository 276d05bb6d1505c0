package streamcore

import (
	"fmt"
	"net/url"

	"github.com/opd-ai/streamcore/transport/tcp"
	"github.com/opd-ai/streamcore/transport/tlstcp"
	"github.com/opd-ai/streamcore/transport/ws"
	"github.com/sirupsen/logrus"
)

// DialerFactory creates a Dialer for a parsed URL of its scheme.
type DialerFactory func(u *url.URL) (Dialer, error)

// ListenerFactory creates a Listener for a parsed URL of its scheme.
type ListenerFactory func(u *url.URL) (Listener, error)

// Driver binds a URL scheme to the factories of one backend.
type Driver struct {
	Scheme      string
	NewDialer   DialerFactory
	NewListener ListenerFactory
}

// registry is the immutable scheme table built at initialization.
type registry struct {
	order    []Driver
	byScheme map[string]Driver
}

var drivers = newRegistry(builtinDrivers())

func newRegistry(list []Driver) *registry {
	r := &registry{
		order:    list,
		byScheme: make(map[string]Driver, len(list)),
	}
	for _, d := range list {
		if _, dup := r.byScheme[d.Scheme]; dup {
			panic("streamcore: duplicate scheme " + d.Scheme)
		}
		r.byScheme[d.Scheme] = d
	}
	return r
}

// builtinDrivers lists the compiled-in backends in lookup order.
func builtinDrivers() []Driver {
	var list []Driver
	list = append(list, localDrivers()...)
	list = append(list, family("tcp", tcp.NewDialer, tcp.NewListener)...)
	list = append(list, family("tls+tcp", tlstcp.NewDialer, tlstcp.NewListener)...)
	list = append(list, family("ws", ws.NewDialer, ws.NewListener)...)
	list = append(list, family("wss", ws.NewSecureDialer, ws.NewSecureListener)...)
	list = append(list, socketDrivers()...)
	return list
}

// family registers base, base4 and, unless IPv6 is compiled out, base6
// with the same factories.
func family[D Dialer, L Listener](base string, nd func(*url.URL) (D, error), nl func(*url.URL) (L, error)) []Driver {
	schemes := []string{base, base + "4"}
	if ipv6Enabled {
		schemes = append(schemes, base+"6")
	}
	list := make([]Driver, 0, len(schemes))
	for _, s := range schemes {
		list = append(list, Driver{Scheme: s, NewDialer: dialerFactory(nd), NewListener: listenerFactory(nl)})
	}
	return list
}

// dialerFactory adapts a backend constructor, never returning a typed nil.
func dialerFactory[D Dialer](fn func(*url.URL) (D, error)) DialerFactory {
	return func(u *url.URL) (Dialer, error) {
		d, err := fn(u)
		if err != nil {
			return nil, err
		}
		return d, nil
	}
}

func listenerFactory[L Listener](fn func(*url.URL) (L, error)) ListenerFactory {
	return func(u *url.URL) (Listener, error) {
		l, err := fn(u)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}

// Lookup returns the driver registered for scheme. The match is exact and
// case-sensitive.
func Lookup(scheme string) (Driver, error) {
	d, ok := drivers.byScheme[scheme]
	if !ok {
		logrus.WithFields(logrus.Fields{
			"function": "Lookup",
			"scheme":   scheme,
		}).Debug("No transport registered for scheme")
		return Driver{}, fmt.Errorf("%w: scheme %q", ErrNotSupported, scheme)
	}
	return d, nil
}

// Schemes returns the registered schemes in lookup order.
func Schemes() []string {
	out := make([]string, len(drivers.order))
	for i, d := range drivers.order {
		out[i] = d.Scheme
	}
	return out
}
