package tcp

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/opd-ai/streamcore/aio"
)

// Network maps a TCP based scheme (tcp, tls+tcp, ws, wss and their
// 4 and 6 variants) to its net package network name.
func Network(scheme string) string {
	switch {
	case strings.HasSuffix(scheme, "4"):
		return "tcp4"
	case strings.HasSuffix(scheme, "6"):
		return "tcp6"
	default:
		return "tcp"
	}
}

func checkURL(u *url.URL) error {
	if u.Path != "" && u.Path != "/" {
		return fmt.Errorf("%w: path not allowed in %s URL", aio.ErrAddrInvalid, u.Scheme)
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("%w: unexpected URL components in %q", aio.ErrAddrInvalid, u.String())
	}
	return nil
}

func port(u *url.URL) (int, error) {
	p := u.Port()
	if p == "" {
		return 0, fmt.Errorf("%w: missing port in %q", aio.ErrAddrInvalid, u.String())
	}
	n, err := strconv.ParseUint(p, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: bad port %q", aio.ErrAddrInvalid, p)
	}
	return int(n), nil
}

// ResolveDial validates a dialer URL and returns the host:port to dial.
func ResolveDial(u *url.URL) (string, error) {
	if err := checkURL(u); err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "" || host == "*" {
		return "", fmt.Errorf("%w: missing host in %q", aio.ErrAddrInvalid, u.String())
	}
	p, err := port(u)
	if err != nil {
		return "", err
	}
	if p == 0 {
		return "", fmt.Errorf("%w: cannot dial port 0", aio.ErrAddrInvalid)
	}
	return net.JoinHostPort(host, strconv.Itoa(p)), nil
}

// ResolveListen validates a listener URL and returns the host:port to bind.
func ResolveListen(u *url.URL) (string, error) {
	if err := checkURL(u); err != nil {
		return "", err
	}
	host := u.Hostname()
	if host == "*" {
		host = ""
	}
	p, err := port(u)
	if err != nil {
		return "", err
	}
	return net.JoinHostPort(host, strconv.Itoa(p)), nil
}
