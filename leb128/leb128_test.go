package leb128

import (
	"math"
	"testing"

	"github.com/agrinman/candid/status"
)

func TestUintRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 2, 0x7f, 0x80, 0xff, 0x3fff, 0x4000, 1 << 20,
		math.MaxUint32, math.MaxUint32 + 1, math.MaxInt64, math.MaxUint64}
	for _, v := range cases {
		enc := AppendUint(nil, v)
		got, n, err := DecodeUint(enc)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: encoded %d, decoded %d", v, got)
		}
		if n != len(enc) {
			t.Fatalf("consumed length mismatch: want %d got %d", len(enc), n)
		}
	}
}

func TestIntRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 2, -2, 63, -64, 64, -65, 0x3fff, -0x4000,
		math.MaxInt32, math.MinInt32, math.MaxInt64, math.MinInt64, -42}
	for _, v := range cases {
		enc := AppendInt(nil, v)
		got, n, err := DecodeInt(enc)
		if err != nil {
			t.Fatalf("decode(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: encoded %d, decoded %d (bytes % x)", v, got, enc)
		}
		if n != len(enc) {
			t.Fatalf("consumed length mismatch: want %d got %d", len(enc), n)
		}
	}
}

func TestIntEncodingSingleByte(t *testing.T) {
	// int 42 encodes as the single byte 0x2a.
	enc := AppendInt(nil, 42)
	if len(enc) != 1 || enc[0] != 0x2a {
		t.Fatalf("expected [0x2a], got % x", enc)
	}
}

func TestDecodeUintTruncated(t *testing.T) {
	_, _, err := DecodeUint([]byte{0x80, 0x80})
	if !status.Is(err, status.Truncated) {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestDecodeIntTruncated(t *testing.T) {
	_, _, err := DecodeInt([]byte{0x80})
	if !status.Is(err, status.Truncated) {
		t.Fatalf("expected truncated, got %v", err)
	}
}

func TestDecodeUintOverflow(t *testing.T) {
	// 10 bytes, each contributing non-zero bits past bit 63.
	overlong := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x02}
	_, _, err := DecodeUint(overlong)
	if !status.Is(err, status.Overflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestDecodeIntOverflow(t *testing.T) {
	// 10 bytes whose last group puts 0 in bit 63 but a set sign bit above it,
	// so the value does not fit in 64 bits.
	overlong := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x40}
	_, _, err := DecodeInt(overlong)
	if !status.Is(err, status.Overflow) {
		t.Fatalf("expected overflow, got %v", err)
	}
}

func TestDecodeUintMinimalEncodingLength(t *testing.T) {
	enc := AppendUint(nil, 0x80)
	if len(enc) != 2 {
		t.Fatalf("expected minimal 2-byte encoding, got %d bytes", len(enc))
	}
}

func TestScanLength(t *testing.T) {
	enc := AppendUint(nil, 1<<40)
	n, err := ScanLength(enc)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(enc) {
		t.Fatalf("ScanLength mismatch: want %d got %d", len(enc), n)
	}
}

func TestScanLengthTruncated(t *testing.T) {
	_, err := ScanLength([]byte{0x80, 0x80, 0x80})
	if !status.Is(err, status.Truncated) {
		t.Fatalf("expected truncated, got %v", err)
	}
}
