//go:build !linux

package tlstransport

import (
	"net"
	"time"
)

// timestampConn on non-Linux platforms is a passthrough: SO_TIMESTAMPING is
// a Linux socket option (spec.md §1 frames this engine Linux-first), so
// requestHardwareTimestamping never succeeds here and enabled is always
// false.
type timestampConn struct {
	conn *net.TCPConn
}

func newTimestampConn(conn *net.TCPConn, enabled bool, lg *logger) *timestampConn {
	return &timestampConn{conn: conn}
}

func (t *timestampConn) Read(p []byte) (int, error)  { return t.conn.Read(p) }
func (t *timestampConn) Write(p []byte) (int, error) { return t.conn.Write(p) }
func (t *timestampConn) Close() error                { return t.conn.Close() }
func (t *timestampConn) LocalAddr() net.Addr         { return t.conn.LocalAddr() }
func (t *timestampConn) RemoteAddr() net.Addr        { return t.conn.RemoteAddr() }

func (t *timestampConn) SetDeadline(tm time.Time) error      { return t.conn.SetDeadline(tm) }
func (t *timestampConn) SetReadDeadline(tm time.Time) error  { return t.conn.SetReadDeadline(tm) }
func (t *timestampConn) SetWriteDeadline(tm time.Time) error { return t.conn.SetWriteDeadline(tm) }

func (t *timestampConn) pendingHint() int { return 0 }

func (t *timestampConn) lastTimestampSnapshot() nicTimestamp { return nicTimestamp{} }

func requestHardwareTimestamping(conn *net.TCPConn, lg *logger) bool { return false }
