//go:build !unix || streamcore_nosockfd

package streamcore

func socketDrivers() []Driver {
	return nil
}
