package wsengine

import "testing"

// TestParseHeader_UnmaskedText is spec.md §8's scenario 1: server sends
// unmasked TEXT "hi" as `81 02 68 69`.
func TestParseHeader_UnmaskedText(t *testing.T) {
	region := []byte{0x81, 0x02, 'h', 'i'}
	hdr, incomplete, violation := parseHeader(region)
	if incomplete || violation != violationNone {
		t.Fatalf("unexpected incomplete=%v violation=%v", incomplete, violation)
	}
	if hdr.opcode != OpText || hdr.headerLen != 2 || hdr.payloadLen != 2 || hdr.total != 4 {
		t.Fatalf("got %+v", hdr)
	}
}

// TestApplyMask_RoundTrip is spec.md §8 scenario 2: masking "hi" with key
// 0x00112233 (stored little-endian 33 22 11 00) yields 5B 4B, and applying
// the same key again restores the original bytes.
func TestApplyMask_RoundTrip(t *testing.T) {
	key := maskKeyBytes(0x00112233)
	if key != [4]byte{0x33, 0x22, 0x11, 0x00} {
		t.Fatalf("unexpected key layout: % x", key)
	}

	payload := []byte("hi")
	applyMask(payload, key)
	if payload[0] != 0x5B || payload[1] != 0x4B {
		t.Fatalf("masked payload = % x, want 5b 4b", payload)
	}

	applyMask(payload, key)
	if string(payload) != "hi" {
		t.Fatalf("round-trip failed: got %q", payload)
	}
}

func TestEncodeHeader_MatchesMaskedExample(t *testing.T) {
	key := maskKeyBytes(0x00112233)
	payload := []byte("hi")
	buf := make([]byte, headerLenFor(uint64(len(payload))))
	n := encodeHeader(buf, OpText, uint64(len(payload)), key)
	copy(buf[n:], payload)
	applyMask(buf[n:], key)

	want := []byte{0x81, 0x82, 0x33, 0x22, 0x11, 0x00, 0x5B, 0x4B}
	if string(buf) != string(want) {
		t.Fatalf("got % x, want % x", buf, want)
	}
}

func TestParseHeader_RejectsMaskedFrameFromServer(t *testing.T) {
	region := []byte{0x81, 0x82, 0, 0, 0, 0, 'h', 'i'}
	_, _, violation := parseHeader(region)
	if violation != violationServerMasked {
		t.Fatalf("violation = %v, want violationServerMasked", violation)
	}
}

func TestParseHeader_RejectsNonMinimalLength126(t *testing.T) {
	region := make([]byte, 4+125)
	region[0] = 0x82
	region[1] = 126
	region[2] = 0
	region[3] = 125 // 125 fits in 7 bits; must use the direct encoding
	_, _, violation := parseHeader(region)
	if violation != violationNonMinimalLength {
		t.Fatalf("violation = %v, want violationNonMinimalLength", violation)
	}
}

func TestParseHeader_RejectsNonMinimalLength127(t *testing.T) {
	region := make([]byte, 10)
	region[0] = 0x82
	region[1] = 127
	// 65535 fits in the 16-bit form; encoding it in the 64-bit form is
	// non-minimal.
	for i := 0; i < 8; i++ {
		region[2+i] = 0
	}
	region[8] = 0xFF
	region[9] = 0xFF
	_, _, violation := parseHeader(region)
	if violation != violationNonMinimalLength {
		t.Fatalf("violation = %v, want violationNonMinimalLength", violation)
	}
}

func TestParseHeader_RejectsOversizeControlFrame(t *testing.T) {
	region := make([]byte, 4)
	region[0] = 0x89 // FIN|PING
	region[1] = 126
	region[2] = 0
	region[3] = 126 // 126 > 125, would need extended length anyway
	_, _, violation := parseHeader(region)
	if violation != violationOversizeControlFrame && violation != violationNonMinimalLength {
		t.Fatalf("violation = %v, want oversize or non-minimal", violation)
	}
}

func TestParseHeader_IncompleteShortRegion(t *testing.T) {
	_, incomplete, violation := parseHeader([]byte{0x81})
	if !incomplete || violation != violationNone {
		t.Fatalf("incomplete=%v violation=%v, want incomplete with no violation", incomplete, violation)
	}
}

func TestParseHeader_IncompleteExtended16(t *testing.T) {
	_, incomplete, violation := parseHeader([]byte{0x82, 126, 0})
	if !incomplete || violation != violationNone {
		t.Fatalf("incomplete=%v violation=%v", incomplete, violation)
	}
}

func TestParseHeader_IncompleteExtended64(t *testing.T) {
	region := []byte{0x82, 127, 0, 0, 0, 0, 0, 1}
	_, incomplete, violation := parseHeader(region)
	if !incomplete || violation != violationNone {
		t.Fatalf("incomplete=%v violation=%v", incomplete, violation)
	}
}

// TestParseHeader_BoundaryPayloadLengths exercises spec.md §8's boundary
// payload lengths: 0, 1, 125, 126, 127, 65535, 65536.
func TestParseHeader_BoundaryPayloadLengths(t *testing.T) {
	cases := []uint64{0, 1, 125, 126, 127, 65535, 65536}
	for _, n := range cases {
		hlen := headerLenFor(n)
		buf := make([]byte, hlen+int(n))
		key := [4]byte{1, 2, 3, 4}
		written := encodeHeader(buf, OpBinary, n, key)
		if written != hlen {
			t.Fatalf("n=%d: encodeHeader wrote %d, headerLenFor says %d", n, written, hlen)
		}
		hdr, incomplete, violation := parseHeader(buf)
		if incomplete || violation != violationNone {
			t.Fatalf("n=%d: incomplete=%v violation=%v", n, incomplete, violation)
		}
		if hdr.payloadLen != n {
			t.Fatalf("n=%d: payloadLen = %d", n, hdr.payloadLen)
		}
		if hdr.total != uint64(hlen-4)+n {
			t.Fatalf("n=%d: total = %d, want %d", n, hdr.total, uint64(hlen-4)+n)
		}
	}
}

func TestParseHeader_ClosePayload(t *testing.T) {
	// CLOSE with status 1000 encodes as 88 02 03 E8, per spec.md §8.
	region := []byte{0x88, 0x02, 0x03, 0xE8}
	hdr, incomplete, violation := parseHeader(region)
	if incomplete || violation != violationNone {
		t.Fatalf("incomplete=%v violation=%v", incomplete, violation)
	}
	if hdr.opcode != OpClose || hdr.payloadLen != 2 {
		t.Fatalf("got %+v", hdr)
	}
}

func TestParseHeader_ShortClosePayloadIsCallerChecked(t *testing.T) {
	// A 1-byte close payload is a wire-level oddity parseHeader accepts;
	// parseLoop is responsible for rejecting it (violationShortClosePayload),
	// since a length of 1 alone does not violate the header-decode rules
	// parseHeader enforces.
	region := []byte{0x88, 0x01, 0x03}
	hdr, incomplete, violation := parseHeader(region)
	if incomplete || violation != violationNone {
		t.Fatalf("incomplete=%v violation=%v", incomplete, violation)
	}
	if hdr.payloadLen != 1 {
		t.Fatalf("payloadLen = %d, want 1", hdr.payloadLen)
	}
}
