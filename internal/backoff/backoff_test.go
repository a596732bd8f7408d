package backoff

import (
	"testing"
	"time"
)

func TestNext_StaysWithinMinMaxBounds(t *testing.T) {
	b := New(100*time.Millisecond, time.Second, 20*time.Millisecond, 1.6)

	for i := 0; i < 20; i++ {
		d := b.Next()
		if d < 0 {
			t.Fatalf("iteration %d: negative interval %v", i, d)
		}
		if d > time.Second+20*time.Millisecond {
			t.Fatalf("iteration %d: interval %v exceeds max+jitter", i, d)
		}
	}
}

func TestNext_GrowsTowardMax(t *testing.T) {
	b := New(10*time.Millisecond, time.Second, 0, 2.0)

	first := b.current
	b.Next()
	if b.current <= first {
		t.Fatalf("internal interval did not grow: before=%v after=%v", first, b.current)
	}
}

func TestNext_CapsAtMax(t *testing.T) {
	b := New(10*time.Millisecond, 50*time.Millisecond, 0, 10.0)

	for i := 0; i < 10; i++ {
		b.Next()
	}
	if b.current > 50*time.Millisecond {
		t.Fatalf("internal interval %v exceeds max %v", b.current, 50*time.Millisecond)
	}
}

func TestReset_ReturnsToMin(t *testing.T) {
	b := New(10*time.Millisecond, time.Second, 0, 2.0)
	b.Next()
	b.Next()
	b.Reset()
	if b.current != b.Min {
		t.Fatalf("after Reset, current = %v, want %v", b.current, b.Min)
	}
}

func TestNew_RejectsNonGrowingFactor(t *testing.T) {
	b := New(time.Second, time.Minute, 0, 0.5)
	if b.Factor != 1.6 {
		t.Fatalf("Factor = %v, want default 1.6 for a non-growing input", b.Factor)
	}
}
