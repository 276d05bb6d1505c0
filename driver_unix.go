//go:build unix

package streamcore

import "github.com/opd-ai/streamcore/transport/ipc"

func localDrivers() []Driver {
	list := []Driver{
		{Scheme: "ipc", NewDialer: dialerFactory(ipc.NewDialer), NewListener: listenerFactory(ipc.NewListener)},
		{Scheme: "unix", NewDialer: dialerFactory(ipc.NewDialer), NewListener: listenerFactory(ipc.NewListener)},
	}
	if abstractEnabled {
		list = append(list, Driver{Scheme: "abstract", NewDialer: dialerFactory(ipc.NewDialer), NewListener: listenerFactory(ipc.NewListener)})
	}
	return list
}
