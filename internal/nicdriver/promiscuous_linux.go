//go:build linux && afpacket

package nicdriver

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

type ifreqFlags struct {
	name  [unix.IFNAMSIZ]byte
	flags uint16
	_     [22]byte
}

// setPromiscuous toggles IFF_PROMISC on the named interface via a
// SIOCSIFFLAGS ioctl, the same raw-socket mechanism the wider pack
// (psaab-bpfrx) uses golang.org/x/sys/unix for elsewhere.
func setPromiscuous(name string, on bool) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return err
	}
	defer unix.Close(fd)

	var ifr ifreqFlags
	copy(ifr.name[:], name)

	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCGIFFLAGS, uintptr(unsafe.Pointer(&ifr))); errno != 0 {
		return errno
	}
	if on {
		ifr.flags |= unix.IFF_PROMISC
	} else {
		ifr.flags &^= unix.IFF_PROMISC
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), unix.SIOCSIFFLAGS, uintptr(unsafe.Pointer(&ifr))); errno != 0 {
		return errno
	}
	return nil
}
