package tlstransport

import (
	"net"

	"golang.org/x/sys/unix"
)

const socketBufferSize = 256 * 1024 // ~256 KiB per spec.md §4.2

// tuneSocket applies spec.md §4.2's socket options: TCP_NODELAY,
// SO_KEEPALIVE, and enlarged send/receive buffers. It sets no SIGPIPE
// option; see the note inside. Grounded on the raw-sockopt style of
// other_examples/tcpinfo.go's syscall.Syscall6(SYS_GETSOCKOPT, ...) pattern,
// adapted to the setsockopt direction via x/sys/unix's typed wrappers.
func tuneSocket(conn *net.TCPConn) error {
	if err := conn.SetNoDelay(true); err != nil {
		return err
	}
	if err := conn.SetKeepAlive(true); err != nil {
		return err
	}

	var sockErr error
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	ctrlErr := rawConn.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, socketBufferSize); e != nil {
			sockErr = e
			return
		}
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, socketBufferSize); e != nil {
			sockErr = e
			return
		}
		// No SIGPIPE option is set here and Send passes no MSG_NOSIGNAL:
		// Go's runtime already turns SIGPIPE on a non-stdio fd into an
		// EPIPE write error, so a write to a peer-closed socket surfaces
		// as an error from Send rather than a signal.
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return sockErr
}
