//go:build streamcore_noipv6

package streamcore

const ipv6Enabled = false
