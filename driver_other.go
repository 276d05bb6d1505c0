//go:build !unix && !windows

package streamcore

func localDrivers() []Driver {
	return nil
}
