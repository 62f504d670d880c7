// Package decode implements the type-directed value deserializer: given a
// parsed header (wiretable.Header) and the remaining message bytes, it
// reads each argument value in order, charging a quota accountant, and
// reports trailing-byte violations via Done.
//
// The Decoder carries an explicit cursor and dispatches on the declared
// type rather than a self-describing tag per value, matching Candid's
// "type graph tells you how to read the bytes" wire design.
package decode

import (
	"math"
	"unicode/utf8"

	"github.com/agrinman/candid/leb128"
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
	"github.com/agrinman/candid/value"
	"github.com/agrinman/candid/wiretable"
)

// Decoder walks one message's argument values in order.
type Decoder struct {
	src     []byte
	cursor  int
	header  *wiretable.Header
	nextArg int
	quota   *Quota
}

// NewDecoder parses src's header and prepares to read its argument values.
// decodingQuota bounds total header+value work; 0 disables the limit.
func NewDecoder(src []byte, decodingQuota uint64) (*Decoder, error) {
	hdr, consumed, err := wiretable.Parse(src)
	if err != nil {
		return nil, err
	}
	q := NewQuota(decodingQuota)
	// Header parsing charges 4x its byte length; value decoding charges 1
	// unit per byte read plus 1 per ULEB128 length prefix or variant index.
	if err := q.Charge(4 * uint64(consumed)); err != nil {
		return nil, err
	}
	return &Decoder{src: src, cursor: consumed, header: hdr, quota: q}, nil
}

// ArgTypes returns the argument types the header declared, in order. Each
// may be a types.Var requiring resolution through Env.
func (d *Decoder) ArgTypes() []*types.Type {
	return d.header.ArgTypes
}

// Env returns the type environment the header bound (table<i> names).
func (d *Decoder) Env() *typeenv.Env {
	return d.header.Env
}

// QuotaUsed reports the decoding work charged so far, for diagnostics.
func (d *Decoder) QuotaUsed() uint64 {
	return d.quota.Used()
}

// Src returns the full message buffer backing this decoder, for callers
// (the candid facade's GetValueAs, via ReadValueExpected) that read or Skip
// wire-only record fields by cursor position rather than by materialized
// value.
func (d *Decoder) Src() []byte {
	return d.src
}

// Cursor returns a pointer to the decoder's live read position, so a
// caller can advance it via decode.Skip in lockstep with GetValue.
func (d *Decoder) Cursor() *int {
	return &d.cursor
}

// Quota returns the decoder's quota accountant, so a caller skipping
// fields via decode.Skip charges the same budget GetValue does.
func (d *Decoder) Quota() *Quota {
	return d.quota
}

// GetValue reads the next argument value in sequence, dispatching on its
// declared type (resolved through Env). It fails if called more times than
// there are arguments.
func (d *Decoder) GetValue() (*value.Value, error) {
	if d.nextArg >= len(d.header.ArgTypes) {
		return nil, status.New(status.InvalidArgument, "decode: no more arguments")
	}
	t := d.header.ArgTypes[d.nextArg]
	v, err := readValue(d.src, &d.cursor, d.header.Env, t, d.quota)
	if err != nil {
		return nil, err
	}
	d.nextArg++
	return v, nil
}

// AdvanceArg marks the current argument consumed without decoding it via
// GetValue, for a caller (candid.Message.GetValueAs) that reads the
// argument itself through ReadValueExpected.
func (d *Decoder) AdvanceArg() {
	d.nextArg++
}

// Done reports whether every argument has been consumed and no trailing
// bytes remain.
func (d *Decoder) Done() error {
	if d.nextArg != len(d.header.ArgTypes) {
		return status.New(status.InvalidArgument, "decode: %d argument(s) not yet consumed", len(d.header.ArgTypes)-d.nextArg)
	}
	if d.cursor != len(d.src) {
		return status.New(status.InvalidArgument, "decode: %d trailing byte(s) after last argument", len(d.src)-d.cursor)
	}
	return nil
}

func readByte(src []byte, cursor *int, q *Quota) (byte, error) {
	if *cursor >= len(src) {
		return 0, status.New(status.Truncated, "decode: unexpected end of input")
	}
	if err := q.Charge(1); err != nil {
		return 0, err
	}
	b := src[*cursor]
	*cursor++
	return b, nil
}

func readBytes(src []byte, cursor *int, q *Quota, n int) ([]byte, error) {
	if n < 0 || *cursor+n > len(src) {
		return nil, status.New(status.Truncated, "decode: unexpected end of input")
	}
	if err := q.Charge(uint64(n)); err != nil {
		return nil, err
	}
	b := src[*cursor : *cursor+n]
	*cursor += n
	return b, nil
}

func readULEB(src []byte, cursor *int, q *Quota) (uint64, error) {
	v, n, err := leb128.DecodeUint(src[*cursor:])
	if err != nil {
		return 0, err
	}
	if err := q.Charge(uint64(n) + 1); err != nil {
		return 0, err
	}
	*cursor += n
	return v, nil
}

func readSLEB(src []byte, cursor *int, q *Quota) (int64, error) {
	v, n, err := leb128.DecodeInt(src[*cursor:])
	if err != nil {
		return 0, err
	}
	if err := q.Charge(uint64(n) + 1); err != nil {
		return 0, err
	}
	*cursor += n
	return v, nil
}

func readValue(src []byte, cursor *int, env *typeenv.Env, t *types.Type, q *Quota) (*value.Value, error) {
	rt, err := env.Resolve(t)
	if err != nil {
		return nil, err
	}
	switch rt.Kind {
	case types.Null:
		return value.NewNull(), nil
	case types.Reserved:
		return value.NewReserved(), nil
	case types.Empty:
		return nil, status.New(status.InvalidArgument, "decode: empty has no inhabitants")
	case types.Bool:
		b, err := readByte(src, cursor, q)
		if err != nil {
			return nil, err
		}
		if b > 1 {
			return nil, status.New(status.InvalidArgument, "decode: bool byte %d is not 0 or 1", b)
		}
		return value.NewBool(b == 1), nil
	case types.Nat8:
		b, err := readByte(src, cursor, q)
		if err != nil {
			return nil, err
		}
		return value.NewNat8(b), nil
	case types.Int8:
		b, err := readByte(src, cursor, q)
		if err != nil {
			return nil, err
		}
		return value.NewInt8(int8(b)), nil
	case types.Nat16:
		b, err := readBytes(src, cursor, q, 2)
		if err != nil {
			return nil, err
		}
		return value.NewNat16(uint16(leU(b))), nil
	case types.Int16:
		b, err := readBytes(src, cursor, q, 2)
		if err != nil {
			return nil, err
		}
		return value.NewInt16(int16(leU(b))), nil
	case types.Nat32:
		b, err := readBytes(src, cursor, q, 4)
		if err != nil {
			return nil, err
		}
		return value.NewNat32(uint32(leU(b))), nil
	case types.Int32:
		b, err := readBytes(src, cursor, q, 4)
		if err != nil {
			return nil, err
		}
		return value.NewInt32(int32(leU(b))), nil
	case types.Nat64:
		b, err := readBytes(src, cursor, q, 8)
		if err != nil {
			return nil, err
		}
		return value.NewNat64(leU(b)), nil
	case types.Int64:
		b, err := readBytes(src, cursor, q, 8)
		if err != nil {
			return nil, err
		}
		return value.NewInt64(int64(leU(b))), nil
	case types.Float32:
		b, err := readBytes(src, cursor, q, 4)
		if err != nil {
			return nil, err
		}
		return value.NewFloat32(math.Float32frombits(uint32(leU(b)))), nil
	case types.Float64:
		b, err := readBytes(src, cursor, q, 8)
		if err != nil {
			return nil, err
		}
		return value.NewFloat64(math.Float64frombits(leU(b))), nil
	case types.Nat:
		// Arbitrary precision: only the LEB128 group structure (a
		// terminator byte exists) is validated here; the magnitude is not
		// bounded to 64 bits, so no overflow check applies.
		n, err := leb128.ScanLength(src[*cursor:])
		if err != nil {
			return nil, err
		}
		raw, err := readBytes(src, cursor, q, n)
		if err != nil {
			return nil, err
		}
		return value.NewNat(append([]byte(nil), raw...)), nil
	case types.Int:
		n, err := leb128.ScanLength(src[*cursor:])
		if err != nil {
			return nil, err
		}
		raw, err := readBytes(src, cursor, q, n)
		if err != nil {
			return nil, err
		}
		return value.NewInt(append([]byte(nil), raw...)), nil
	case types.Text:
		n, err := readULEB(src, cursor, q)
		if err != nil {
			return nil, err
		}
		raw, err := readBytes(src, cursor, q, int(n))
		if err != nil {
			return nil, err
		}
		if !utf8.Valid(raw) {
			return nil, status.New(status.InvalidArgument, "decode: text is not valid UTF-8")
		}
		return value.NewText(string(raw)), nil
	case types.Principal:
		flag, err := readByte(src, cursor, q)
		if err != nil {
			return nil, err
		}
		if flag != 0x01 {
			return nil, status.New(status.InvalidArgument, "decode: principal flag byte %d is not 1", flag)
		}
		n, err := readULEB(src, cursor, q)
		if err != nil {
			return nil, err
		}
		if n > 29 {
			return nil, status.New(status.InvalidArgument, "decode: principal length %d exceeds 29", n)
		}
		raw, err := readBytes(src, cursor, q, int(n))
		if err != nil {
			return nil, err
		}
		return value.NewPrincipal(append([]byte(nil), raw...)), nil
	case types.Opt:
		tag, err := readByte(src, cursor, q)
		if err != nil {
			return nil, err
		}
		switch tag {
		case 0x00:
			return value.AbsentOpt(), nil
		case 0x01:
			inner, err := readValue(src, cursor, env, rt.Inner, q)
			if err != nil {
				return nil, err
			}
			return value.PresentOpt(inner), nil
		default:
			return nil, status.New(status.InvalidArgument, "decode: opt tag byte %d is neither 0 nor 1", tag)
		}
	case types.Vec:
		return readVec(src, cursor, env, rt, q)
	case types.Record:
		return readRecord(src, cursor, env, rt, q)
	case types.Variant:
		return readVariant(src, cursor, env, rt, q)
	case types.Func, types.Service:
		return nil, status.New(status.Unsupported, "decode: func/service value decoding is not implemented in the basic code path")
	default:
		return nil, status.New(status.Unsupported, "decode: unsupported kind %v", rt.Kind)
	}
}

func readVec(src []byte, cursor *int, env *typeenv.Env, t *types.Type, q *Quota) (*value.Value, error) {
	n, err := readULEB(src, cursor, q)
	if err != nil {
		return nil, err
	}
	inner, err := env.Resolve(t.Inner)
	if err != nil {
		return nil, err
	}
	if inner.Kind == types.Nat8 {
		raw, err := readBytes(src, cursor, q, int(n))
		if err != nil {
			return nil, err
		}
		return value.NewBlob(append([]byte(nil), raw...)), nil
	}
	elems := make([]*value.Value, n)
	for i := uint64(0); i < n; i++ {
		e, err := readValue(src, cursor, env, t.Inner, q)
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return value.NewVec(elems), nil
}

func readRecord(src []byte, cursor *int, env *typeenv.Env, t *types.Type, q *Quota) (*value.Value, error) {
	fields := make([]value.Field, len(t.Fields))
	for i, f := range t.Fields {
		fv, err := readValue(src, cursor, env, f.Type, q)
		if err != nil {
			return nil, err
		}
		fields[i] = value.Field{Label: f.Label, Value: fv}
	}
	return value.NewRecord(fields), nil
}

func readVariant(src []byte, cursor *int, env *typeenv.Env, t *types.Type, q *Quota) (*value.Value, error) {
	idx, err := readULEB(src, cursor, q)
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(t.Fields)) {
		return nil, status.New(status.InvalidArgument, "decode: variant index %d out of range (%d cases)", idx, len(t.Fields))
	}
	caseField := t.Fields[idx]
	inner, err := readValue(src, cursor, env, caseField.Type, q)
	if err != nil {
		return nil, err
	}
	return value.NewVariant(int(idx), caseField.Label, inner), nil
}

func leU(b []byte) uint64 {
	var v uint64
	for i, c := range b {
		v |= uint64(c) << (8 * uint(i))
	}
	return v
}
