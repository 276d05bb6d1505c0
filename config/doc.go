// Package config provides process-wide defaults for streamcore backends.
//
// Every dialer and listener starts from Defaults(), which is computed once
// from built-in values and STREAMCORE_* environment variables. Individual
// objects can then be tuned through their options.
//
// Recognized environment variables:
//
//	STREAMCORE_DIAL_TIMEOUT_MS       connection attempt timeout, 0 for none
//	STREAMCORE_HANDSHAKE_TIMEOUT_MS  TLS / WebSocket handshake timeout
//	STREAMCORE_TCP_NODELAY           disable Nagle's algorithm (bool)
//	STREAMCORE_TCP_KEEPALIVE         enable TCP keep-alive (bool)
//	STREAMCORE_RECV_MAX              largest received WebSocket message in bytes, 0 for unlimited
//	STREAMCORE_IPC_PERMISSIONS       octal mode for new IPC sockets, 0 to keep the umask default
//
// Values that fail to parse or fall outside their bounds are logged and
// ignored.
package config
