package wsengine

import "wsll/internal/tlstransport"

// ingest implements spec.md §4.3.6: capture event_tick, then repeatedly
// acquire the RX ring's writable region and decrypt into it until the
// ring is full, the transport would block, or the transport reports no
// more buffered bytes.
func (c *Conn) ingest() {
	c.eventTick = c.cycles.NowTicks()
	c.hasHwNicTS = false

	first := true
	for {
		region := c.rx.WriteRegion()
		if len(region) == 0 {
			return
		}

		n, err := c.transport.ReadInto(region)
		if err != nil {
			if tlstransport.IsWouldBlock(err) {
				return
			}
			c.fail(ReasonTransportError, err)
			return
		}
		if n == 0 {
			c.fail(ReasonTransportError, errOrderlyClose)
			return
		}

		if first {
			c.sslReadTick = c.cycles.NowTicks()
			if ns, hw, ok := c.transport.NicTimestamp(); ok {
				c.hwNicNs = ns
				c.hwNicIsHW = hw
				c.hasHwNicTS = true
			}
			first = false
		}

		c.rx.CommitWrite(uint64(n))

		if c.transport.Pending() <= 0 {
			return
		}
	}
}

var errOrderlyClose = errOrderlyCloseError{}

type errOrderlyCloseError struct{}

func (errOrderlyCloseError) Error() string { return "wsengine: transport closed orderly" }
