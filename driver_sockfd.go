//go:build unix && !streamcore_nosockfd

package streamcore

import "github.com/opd-ai/streamcore/transport/sockfd"

func socketDrivers() []Driver {
	return []Driver{
		{Scheme: "socket", NewDialer: dialerFactory(sockfd.NewDialer), NewListener: listenerFactory(sockfd.NewListener)},
	}
}
