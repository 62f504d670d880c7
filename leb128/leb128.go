// Package leb128 implements the unsigned and signed variable-length
// integer encodings Candid's wire format uses: LEB128 groups of 7 bits,
// written little-endian in stream order with the high bit of every
// non-terminal byte set.
//
// This is deliberately hand-rolled against the standard library only: the
// core needs to stay embeddable with no heap allocation beyond a bump
// arena, and no general-purpose varint package uses this exact grouping
// (protobuf's varints and CBOR's length prefixes both use incompatible,
// non-LEB128 schemes; see DESIGN.md). The buffer-management style
// (append-only growth, explicit byte counts returned) follows the same
// shape as other binary codecs in the ecosystem, though not their wire
// format.
package leb128

import "github.com/agrinman/candid/status"

// MaxBytes64 is the maximum number of LEB128 groups needed to represent a
// 64-bit value: ceil(64/7) = 10 groups, the last of which carries only
// bit 63 plus padding.
const MaxBytes64 = 10

// AppendUint appends the ULEB128 encoding of v to dst and returns the
// extended slice. It always writes the minimum number of groups.
func AppendUint(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			dst = append(dst, b|0x80)
			continue
		}
		return append(dst, b)
	}
}

// AppendInt appends the SLEB128 encoding of v to dst and returns the
// extended slice, terminating once the remaining value is entirely
// sign-extension (0 for a cleared top bit, -1 for a set one).
func AppendInt(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		signBitSet := b&0x40 != 0
		if (v == 0 && !signBitSet) || (v == -1 && signBitSet) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// DecodeUint decodes a ULEB128 value from the front of src, returning the
// value and the number of bytes consumed. It fails with status.Truncated if
// src ends before a terminating byte, and status.Overflow if the value
// doesn't fit in 64 bits (a non-zero bit would be discarded above bit 63).
func DecodeUint(src []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i := 0; i < len(src); i++ {
		b := src[i]
		if shift >= 64 {
			// Every bit contributed by this group must be zero, or we'd be
			// discarding information above bit 63.
			if b&0x7f != 0 {
				return 0, 0, status.New(status.Overflow, "leb128: uint overflow at byte %d", i)
			}
		} else {
			chunk := uint64(b & 0x7f)
			if shift == 63 && chunk > 1 {
				return 0, 0, status.New(status.Overflow, "leb128: uint overflow at byte %d", i)
			}
			result |= chunk << shift
		}
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, status.New(status.Truncated, "leb128: uint truncated after %d bytes", len(src))
}

// DecodeInt decodes a SLEB128 value from the front of src, returning the
// value and the number of bytes consumed. Failure modes mirror DecodeUint:
// status.Truncated on exhausted input, status.Overflow when the decoded
// magnitude can't be represented in 64 bits without discarding
// non-sign-consistent bits above bit 63.
func DecodeInt(src []byte) (int64, int, error) {
	var result int64
	var shift uint
	for i := 0; i < len(src); i++ {
		b := src[i]
		last := b&0x80 == 0
		chunk := int64(b & 0x7f)

		switch {
		case i < MaxBytes64-1:
			result |= chunk << shift
		case i == MaxBytes64-1:
			// Only bit 0 of this group fits (bit 63 of the result); the
			// remaining 6 bits must be redundant sign padding equal to that
			// bit, or real information would be silently discarded.
			bit63Set := chunk&1 != 0
			upper := chunk &^ 1
			if (bit63Set && upper != 0x7e) || (!bit63Set && upper != 0) {
				return 0, 0, status.New(status.Overflow, "leb128: int overflow at byte %d", i)
			}
			result |= (chunk & 1) << 63
		default:
			return 0, 0, status.New(status.Overflow, "leb128: int overflow at byte %d", i)
		}

		if last {
			if i < MaxBytes64-1 && b&0x40 != 0 {
				result |= -1 << (shift + 7)
			}
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, status.New(status.Truncated, "leb128: int truncated after %d bytes", len(src))
}

// ScanLength returns the number of bytes a single LEB128 group sequence
// occupies at the front of src, without interpreting the value as a bounded
// integer. This is used for arbitrary-precision nat/int values, whose
// magnitude is not limited to 64 bits and whose raw encoded bytes travel
// verbatim rather than being reinterpreted. It still fails with
// status.Truncated if no terminating byte (high bit clear) is found.
func ScanLength(src []byte) (int, error) {
	for i := 0; i < len(src); i++ {
		if src[i]&0x80 == 0 {
			return i + 1, nil
		}
	}
	return 0, status.New(status.Truncated, "leb128: varint truncated after %d bytes", len(src))
}
