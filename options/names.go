package options

// Well-known option names. Backends publish the subset that applies to them.
const (
	// URL is the address the object was created for (string, read-only)
	URL = "url"

	// LocalAddr is the local socket address (sockaddr)
	LocalAddr = "local-address"

	// RemoteAddr is the peer socket address (sockaddr, read-only)
	RemoteAddr = "remote-address"

	// DialTimeout bounds one connection attempt (duration)
	DialTimeout = "dial-timeout"

	// RecvMaxSize limits one received message; zero means unlimited (size)
	RecvMaxSize = "recv-size-max"

	// TCPNoDelay disables Nagle's algorithm (bool)
	TCPNoDelay = "tcp-nodelay"

	// TCPKeepAlive enables TCP keep-alive probes (bool)
	TCPKeepAlive = "tcp-keepalive"

	// TCPBoundPort is the port a listener actually bound (int32, read-only)
	TCPBoundPort = "tcp-bound-port"

	// TLSHandshakeTimeout bounds the TLS handshake (duration)
	TLSHandshakeTimeout = "tls-handshake-timeout"

	// TLSVerified reports whether the peer presented a verified certificate (bool, read-only)
	TLSVerified = "tls-verified"

	// TLSPeerCN is the common name of the peer certificate (string, read-only)
	TLSPeerCN = "tls-peer-cn"

	// TLSPeerAltNames lists the peer certificate's DNS names, comma separated (string, read-only)
	TLSPeerAltNames = "tls-peer-alt-names"

	// IPCPermissions are the file mode bits applied to a listening socket (int32)
	IPCPermissions = "ipc:permissions"

	// PeerUID is the user ID of the connected process (int32, read-only)
	PeerUID = "peer-uid"

	// PeerGID is the group ID of the connected process (int32, read-only)
	PeerGID = "peer-gid"

	// PeerPID is the process ID of the connected process (int32, read-only)
	PeerPID = "peer-pid"

	// WSRequestHeaders are extra or received HTTP request headers, "Key: Value" per line (string)
	WSRequestHeaders = "ws:request-headers"

	// WSResponseHeaders are extra or received HTTP response headers, "Key: Value" per line (string)
	WSResponseHeaders = "ws:response-headers"

	// WSRequestURI is the request URI of an accepted WebSocket (string, read-only)
	WSRequestURI = "ws:request-uri"

	// WSProtocol is the WebSocket sub-protocol (string)
	WSProtocol = "ws:protocol"

	// SocketFD hands a connected file descriptor to a socket listener (int32, write-only)
	SocketFD = "socket:fd"
)
