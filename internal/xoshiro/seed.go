package xoshiro

import (
	"crypto/rand"
	"encoding/binary"
	"os"
	"time"
)

// SeedFromEntropy draws 16 bytes from the strongest entropy source this
// process can reach and seeds s from them. spec.md §4.3.3 specifies the
// same fallback ladder the teacher's own internal/rand.go uses for its
// math/rand seed (time+PID as a last resort), generalized to the
// getrandom/arc4random/urandom tiers crypto/rand.Reader already walks on
// each platform before this function's own last-resort fallback runs.
func SeedFromEntropy(s *State) error {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err == nil {
		seedFromBytes(s, buf[:])
		return nil
	}

	// crypto/rand failed outright (sandboxed environment with no entropy
	// source reachable at all): compose a seed from wall-clock, pid, and
	// two cheap reads of the runtime clock, the same last-resort the spec
	// names when /dev/urandom is unavailable.
	now := uint64(time.Now().UnixNano())
	pid := uint64(os.Getpid())
	a := uint32(now)
	b := uint32(now >> 32)
	c := uint32(pid) ^ uint32(time.Now().UnixNano())
	d := uint32(pid<<16) ^ uint32(time.Now().UnixNano()>>16)
	s.Seed(a|1, b, c, d|1)
	return nil
}

func seedFromBytes(s *State, buf []byte) {
	a := binary.LittleEndian.Uint32(buf[0:4])
	b := binary.LittleEndian.Uint32(buf[4:8])
	c := binary.LittleEndian.Uint32(buf[8:12])
	d := binary.LittleEndian.Uint32(buf[12:16])
	// xoshiro128+ never recovers from an all-zero state; nudge the low
	// bits of two words on the vanishingly unlikely chance crypto/rand
	// handed back all zero bytes.
	s.Seed(a|1, b, c, d|1)
}
