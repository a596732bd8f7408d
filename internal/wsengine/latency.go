package wsengine

// EventTick returns the cycle counter value captured at entry to the most
// recent ingestion routine call, spec.md §4.5's first latency probe.
func (c *Conn) EventTick() uint64 { return c.eventTick }

// SslReadTick returns the cycle counter value captured immediately after
// the first successful decrypt of the most recent ingestion cycle.
func (c *Conn) SslReadTick() uint64 { return c.sslReadTick }

// HwNicNs returns the most recent nanosecond timestamp recovered from a
// receive control message, and whether one was captured during the most
// recent ingestion cycle (the flag is cleared at the start of each cycle).
func (c *Conn) HwNicNs() (ns uint64, hardware bool, ok bool) {
	return c.hwNicNs, c.hwNicIsHW, c.hasHwNicTS
}
