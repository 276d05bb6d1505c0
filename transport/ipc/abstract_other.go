//go:build unix && !linux

package ipc

const abstractSupported = false
