//go:build linux

package tlstransport

import (
	"net"

	"golang.org/x/sys/unix"
)

// requestHardwareTimestamping asks the kernel for SO_TIMESTAMPING with the
// hardware-RX, software-RX, software-general, and raw-hardware flags spec.md
// §4.2 names. It is best-effort: failure (unsupported kernel, unsupported
// NIC driver) degrades to software timestamps and is logged, never fatal.
func requestHardwareTimestamping(conn *net.TCPConn, lg *logger) bool {
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return false
	}

	const flags = unix.SOF_TIMESTAMPING_RX_HARDWARE |
		unix.SOF_TIMESTAMPING_RX_SOFTWARE |
		unix.SOF_TIMESTAMPING_SOFTWARE |
		unix.SOF_TIMESTAMPING_RAW_HARDWARE

	var ok bool
	_ = rawConn.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_TIMESTAMPING, flags); e != nil {
			lg.debugf("SO_TIMESTAMPING unavailable: %v", e)
			return
		}
		ok = true
	})
	return ok
}
