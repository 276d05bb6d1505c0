//go:build linux

package peercred

import "golang.org/x/sys/unix"

func fromFD(fd int) (Cred, error) {
	ucred, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return Cred{}, err
	}
	return Cred{
		UID: int32(ucred.Uid),
		GID: int32(ucred.Gid),
		PID: ucred.Pid,
	}, nil
}
