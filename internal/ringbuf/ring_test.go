package ringbuf

import (
	"bytes"
	"testing"
)

func newTestRing(t *testing.T, n uint64) *Ring {
	t.Helper()
	r, err := New(n)
	if err != nil {
		t.Fatalf("New(%d): %v", n, err)
	}
	t.Cleanup(func() { _ = r.Free() })
	return r
}

func TestInvariant_ReadWriteCapacity(t *testing.T) {
	r := newTestRing(t, 16)
	if got := r.AvailableRead() + r.AvailableWrite() + 1; got != r.Capacity() {
		t.Fatalf("available_read+available_write+1 = %d, want %d", got, r.Capacity())
	}
}

func TestCommitAdvance_PreservesAvailableRead(t *testing.T) {
	r := newTestRing(t, 16)
	before := r.AvailableRead()

	region := r.WriteRegion()
	copy(region, []byte{1, 2, 3})
	r.CommitWrite(3)
	r.AdvanceRead(3)

	if got := r.AvailableRead(); got != before {
		t.Fatalf("available_read changed: before=%d after=%d", before, got)
	}
	if got := r.AvailableRead() + r.AvailableWrite() + 1; got != r.Capacity() {
		t.Fatalf("invariant broken after commit+advance: %d", got)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	r := newTestRing(t, 16)
	payload := []byte("hello world")

	region := r.WriteRegion()
	if len(region) < len(payload) {
		t.Fatalf("region too small: %d < %d", len(region), len(payload))
	}
	n := copy(region, payload)
	r.CommitWrite(uint64(n))

	read := r.ReadRegion()
	if !bytes.Equal(read[:len(payload)], payload) {
		t.Fatalf("read back %q, want %q", read[:len(payload)], payload)
	}
	r.AdvanceRead(uint64(len(payload)))
	if r.AvailableRead() != 0 {
		t.Fatalf("expected empty ring, got %d available", r.AvailableRead())
	}
}

func TestWrapAround_OneByteWrite(t *testing.T) {
	r := newTestRing(t, 16)
	// Drive write_offset and read_offset both to N-1 (an empty ring whose
	// cursors sit on the last physical byte).
	r.CommitWrite(r.AvailableWrite())
	r.AdvanceRead(r.Capacity() - 1)
	if r.writeOff != r.Capacity()-1 || r.readOff != r.Capacity()-1 {
		t.Fatalf("setup failed: write=%d read=%d", r.writeOff, r.readOff)
	}
	// The ring is empty, so N-1 bytes are writable starting at offset N-1.
	r.AdvanceRead(0)
	avail := r.AvailableWrite()
	if avail == 0 {
		t.Skip("no room to exercise wrap in this configuration")
	}

	region := r.WriteRegion()
	region[0] = 0xAB
	r.CommitWrite(1)
	if r.writeOff != 0 {
		t.Fatalf("expected wrap to offset 0, got %d", r.writeOff)
	}
}

func TestSplitWrite_NonMirrored(t *testing.T) {
	r, err := newHeapOnlyRing(16)
	if err != nil {
		t.Fatalf("newHeapOnlyRing: %v", err)
	}
	t.Cleanup(func() { _ = r.Free() })

	r.CommitWrite(r.AvailableWrite())
	r.AdvanceRead(r.Capacity() - 1)

	first := r.WriteRegion()
	if len(first) != 1 {
		t.Fatalf("expected 1-byte region at the physical wrap, got %d", len(first))
	}
	first[0] = 0x11
	r.CommitWrite(1)

	second := r.WriteRegion()
	if len(second) < 2 {
		t.Fatalf("expected room for the remaining 2 bytes after the wrap, got %d", len(second))
	}
	second[0], second[1] = 0x22, 0x33
	r.CommitWrite(2)

	if r.AvailableRead() != 3 {
		t.Fatalf("expected 3 bytes readable across the wrap, got %d", r.AvailableRead())
	}
}

// newHeapOnlyRing bypasses the mmap tiers to exercise the non-mirrored,
// physical-wrap code path deterministically regardless of platform.
func newHeapOnlyRing(n uint64) (*Ring, error) {
	if err := validateCapacity(n); err != nil {
		return nil, err
	}
	buf := acquireHeap(n)
	return &Ring{buf: buf, n: n, mask: n - 1, isMmap: false, isMirrored: false, backend: backendHeap}, nil
}

func TestMirroredRing_AliasesAcrossWrap(t *testing.T) {
	r, ok, err := tryMirrored(1 << 16)
	if err != nil {
		t.Fatalf("tryMirrored: %v", err)
	}
	if !ok {
		t.Skip("mirrored tier unavailable in this environment")
	}
	n := 1 << 16
	defer freeMapped(r)

	r[0] = 0x42
	if r[n] != 0x42 {
		t.Fatalf("mirror did not alias: r[N]=%x, want 0x42", r[n])
	}
	r[n+5] = 0x99
	if r[5] != 0x99 {
		t.Fatalf("mirror did not alias in reverse: r[5]=%x, want 0x99", r[5])
	}
}

func TestAdvanceRead_ClampsToAvailable(t *testing.T) {
	r := newTestRing(t, 16)
	if got := r.AdvanceRead(100); got != 0 {
		t.Fatalf("advancing an empty ring should consume 0 bytes, got %d", got)
	}
}

func TestCommitWrite_ClampsToAvailable(t *testing.T) {
	r := newTestRing(t, 16)
	avail := r.AvailableWrite()
	if got := r.CommitWrite(avail + 1000); got != avail {
		t.Fatalf("commit should clamp to %d, got %d", avail, got)
	}
}

func TestNew_RejectsNonPowerOfTwo(t *testing.T) {
	if _, err := New(17); err == nil {
		t.Fatal("expected error for non-power-of-two capacity")
	}
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}
