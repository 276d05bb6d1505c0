package options

import (
	"fmt"
	"net"
	"net/netip"
	"strings"
)

// Family identifies the kind of address held by a SockAddr.
type Family uint16

const (
	// FamilyUnspec is the zero SockAddr
	FamilyUnspec Family = iota
	// FamilyIPC is a filesystem socket path or named pipe
	FamilyIPC
	// FamilyInet is an IPv4 address and port
	FamilyInet
	// FamilyInet6 is an IPv6 address, port and scope
	FamilyInet6
	// FamilyAbstract is a Linux abstract-namespace socket name
	FamilyAbstract
)

// String returns the family name.
func (f Family) String() string {
	switch f {
	case FamilyUnspec:
		return "unspec"
	case FamilyIPC:
		return "ipc"
	case FamilyInet:
		return "inet"
	case FamilyInet6:
		return "inet6"
	case FamilyAbstract:
		return "abstract"
	default:
		return fmt.Sprintf("family(%d)", uint16(f))
	}
}

// SockAddr is a comparable, fixed-layout socket address. Addr and Port are
// used by the inet families, Path by the IPC and abstract families.
type SockAddr struct {
	Family Family
	Addr   netip.Addr
	Port   uint16
	Path   string
}

// SockAddrFromNet converts a net.Addr produced by the standard library.
func SockAddrFromNet(a net.Addr) SockAddr {
	switch addr := a.(type) {
	case nil:
		return SockAddr{}
	case *net.TCPAddr:
		return SockAddrFromAddrPort(addr.AddrPort())
	case *net.UnixAddr:
		if strings.HasPrefix(addr.Name, "@") {
			return SockAddr{Family: FamilyAbstract, Path: strings.TrimPrefix(addr.Name, "@")}
		}
		return SockAddr{Family: FamilyIPC, Path: addr.Name}
	default:
		if ap, err := netip.ParseAddrPort(a.String()); err == nil {
			return SockAddrFromAddrPort(ap)
		}
		return SockAddr{Family: FamilyIPC, Path: a.String()}
	}
}

// SockAddrFromAddrPort converts an IP address and port.
func SockAddrFromAddrPort(ap netip.AddrPort) SockAddr {
	ip := ap.Addr()
	if ip.Is4In6() {
		ip = ip.Unmap()
	}
	fam := FamilyInet6
	if ip.Is4() {
		fam = FamilyInet
	}
	return SockAddr{Family: fam, Addr: ip, Port: ap.Port()}
}

// AddrPort returns the IP address and port of an inet SockAddr.
func (s SockAddr) AddrPort() (netip.AddrPort, bool) {
	if s.Family != FamilyInet && s.Family != FamilyInet6 {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(s.Addr, s.Port), true
}

// TCPAddr returns the address as a *net.TCPAddr, or nil for non-inet families.
func (s SockAddr) TCPAddr() *net.TCPAddr {
	ap, ok := s.AddrPort()
	if !ok {
		return nil
	}
	return net.TCPAddrFromAddrPort(ap)
}

// String formats the address the way it would appear in a URL host or path.
func (s SockAddr) String() string {
	switch s.Family {
	case FamilyInet, FamilyInet6:
		return netip.AddrPortFrom(s.Addr, s.Port).String()
	case FamilyIPC:
		return s.Path
	case FamilyAbstract:
		return "@" + s.Path
	default:
		return ""
	}
}
