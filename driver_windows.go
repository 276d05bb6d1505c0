package streamcore

import "github.com/opd-ai/streamcore/transport/ipc"

func localDrivers() []Driver {
	return []Driver{
		{Scheme: "ipc", NewDialer: dialerFactory(ipc.NewDialer), NewListener: listenerFactory(ipc.NewListener)},
	}
}
