// Package ws implements the ws, ws4 and ws6 stream backends and their
// TLS-secured wss, wss4 and wss6 counterparts.
//
// Each Send is written as one binary WebSocket message and Recv returns
// message payload bytes as a byte stream. Listeners serve the upgrade on
// the URL path only; other paths get 404. The plain types carry no TLS
// capability; SecureDialer and SecureListener add TLSConfig and
// SetTLSConfig.
package ws
