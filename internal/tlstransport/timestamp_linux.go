//go:build linux

package tlstransport

import (
	"net"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// timestampConn wraps a *net.TCPConn so every Read also harvests the
// SO_TIMESTAMPING control message the kernel attaches to the datagram
// carrying that data, per spec.md §4.2's "scatter/control-message form of
// the receive syscall". Grounded on
// other_examples/13343ae1_olebeck-goktls__ktls_linux.go.go's recvmsg/cmsg
// handling, adapted from its raw unix.Syscall(SYS_RECVMSG, ...) call to the
// typed unix.Recvmsg wrapper, which is the documented equivalent.
type timestampConn struct {
	conn       *net.TCPConn
	enabled    bool
	oob        []byte
	lastTS     nicTimestamp
	lastReadGT bool // true if the most recent Read returned a full buffer
	lg         *logger
}

func newTimestampConn(conn *net.TCPConn, enabled bool, lg *logger) *timestampConn {
	return &timestampConn{
		conn:    conn,
		enabled: enabled,
		oob:     make([]byte, unix.CmsgSpace(int(unsafe.Sizeof(unix.ScmTimestamping{})))),
		lg:      lg,
	}
}

func (t *timestampConn) Read(p []byte) (int, error) {
	if !t.enabled {
		n, err := t.conn.Read(p)
		t.lastReadGT = n == len(p)
		return n, err
	}

	rawConn, err := t.conn.SyscallConn()
	if err != nil {
		return 0, err
	}

	var n, oobn int
	var rerr error
	ctrlErr := rawConn.Read(func(fd uintptr) bool {
		n, oobn, _, _, rerr = unix.Recvmsg(int(fd), p, t.oob, 0)
		if rerr == unix.EAGAIN {
			return false
		}
		return true
	})
	if ctrlErr != nil {
		return n, ctrlErr
	}
	if rerr != nil {
		return n, rerr
	}
	if n == 0 {
		return 0, nil
	}

	if oobn > 0 {
		if ts, ok := parseTimestampingCmsg(t.oob[:oobn]); ok {
			t.lastTS = ts
		}
	}
	t.lastReadGT = n == len(p)
	return n, nil
}

func (t *timestampConn) pendingHint() int {
	if t.lastReadGT {
		return 1
	}
	return 0
}

func (t *timestampConn) lastTimestampSnapshot() nicTimestamp {
	snap := t.lastTS
	t.lastTS.valid = false
	return snap
}

func (t *timestampConn) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *timestampConn) Close() error                { return t.conn.Close() }
func (t *timestampConn) LocalAddr() net.Addr         { return t.conn.LocalAddr() }
func (t *timestampConn) RemoteAddr() net.Addr        { return t.conn.RemoteAddr() }

func (t *timestampConn) SetDeadline(tm time.Time) error      { return t.conn.SetDeadline(tm) }
func (t *timestampConn) SetReadDeadline(tm time.Time) error  { return t.conn.SetReadDeadline(tm) }
func (t *timestampConn) SetWriteDeadline(tm time.Time) error { return t.conn.SetWriteDeadline(tm) }

// parseTimestampingCmsg decodes the SCM_TIMESTAMPING control message layout
// spec.md §4.2 names: three timespec values (software, legacy, hardware),
// preferring the hardware value when non-zero. Seconds overflowing a
// nanosecond uint64 saturate rather than wrap, per spec.md §4.2.
func parseTimestampingCmsg(b []byte) (nicTimestamp, bool) {
	msgs, err := unix.ParseSocketControlMessage(b)
	if err != nil {
		return nicTimestamp{}, false
	}
	for _, m := range msgs {
		if m.Header.Level != unix.SOL_SOCKET || m.Header.Type != unix.SCM_TIMESTAMPING {
			continue
		}
		if len(m.Data) < int(unsafe.Sizeof(unix.ScmTimestamping{})) {
			continue
		}
		st := (*unix.ScmTimestamping)(unsafe.Pointer(&m.Data[0]))
		if ns, ok := timespecToNanos(st.Ts[2]); ok { // hardware
			return nicTimestamp{ns: ns, hardware: true, valid: true}, true
		}
		if ns, ok := timespecToNanos(st.Ts[0]); ok { // software
			return nicTimestamp{ns: ns, hardware: false, valid: true}, true
		}
	}
	return nicTimestamp{}, false
}

const maxSecondsBeforeSaturation = int64(^uint64(0) / 1e9)

func timespecToNanos(ts unix.Timespec) (uint64, bool) {
	if ts.Sec == 0 && ts.Nsec == 0 {
		return 0, false
	}
	if ts.Sec < 0 {
		return 0, false
	}
	if ts.Sec > maxSecondsBeforeSaturation {
		return ^uint64(0), true
	}
	return uint64(ts.Sec)*1e9 + uint64(ts.Nsec), true
}
