//go:build unix && !linux

package streamcore

const abstractEnabled = false
