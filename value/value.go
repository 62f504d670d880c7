// Package value implements the tagged Candid value model: a union
// mirroring types.Kind, plus the two representations with no type
// analogue — Blob (the decoded form of vec nat8) and Bignum (arbitrary
// precision nat/int carried as raw LEB128 bytes, never reinterpreted).
//
// Value carries one Go struct field per possible Candid kind rather than a
// separate Go type per variant, and uses plain typed fields instead of a
// reflect.Value wrapper, since the primitive kind set is fixed and small
// enough that reflection buys nothing over a field per payload shape.
package value

import (
	"bytes"
	"math"

	"github.com/agrinman/candid/label"
	"github.com/agrinman/candid/types"
)

// Field is one (Label, Value) pair inside a Record value.
type Field struct {
	Label label.Label
	Value *Value
}

// Value is the tagged union described above. Only the fields relevant to
// Kind are meaningful.
type Value struct {
	Kind types.Kind

	Bool bool

	Nat8  uint8
	Nat16 uint16
	Nat32 uint32
	Nat64 uint64
	Int8  int8
	Int16 int16
	Int32 int32
	Int64 int64

	Float32 float32
	Float64 float64

	Text string

	// Blob is the canonical decoded form of vec nat8: a contiguous byte
	// run, materialized without a per-element Value.
	Blob []byte

	// Bignum is raw ULEB128 (for Nat) or SLEB128 (for Int) bytes, carried
	// verbatim and never reinterpreted as a fixed-width integer.
	Bignum []byte

	// Principal is the raw identity bytes (at most 29), not including the
	// wire's leading 0x01 flag.
	Principal []byte

	// Opt: Present false means absent; true means Inner holds the value.
	Present bool
	Inner   *Value

	// Vec: element values, in order. Unused when Kind == Blob-shaped
	// (vec nat8 decodes to Blob instead; see NewBlob/AsBytes).
	Elems []*Value

	// Record
	Fields []Field

	// Variant
	VariantIndex int
	VariantLabel label.Label
	VariantValue *Value
}

func NewNull() *Value  { return &Value{Kind: types.Null} }
func NewBool(b bool) *Value { return &Value{Kind: types.Bool, Bool: b} }

func NewNat8(v uint8) *Value   { return &Value{Kind: types.Nat8, Nat8: v} }
func NewNat16(v uint16) *Value { return &Value{Kind: types.Nat16, Nat16: v} }
func NewNat32(v uint32) *Value { return &Value{Kind: types.Nat32, Nat32: v} }
func NewNat64(v uint64) *Value { return &Value{Kind: types.Nat64, Nat64: v} }
func NewInt8(v int8) *Value    { return &Value{Kind: types.Int8, Int8: v} }
func NewInt16(v int16) *Value  { return &Value{Kind: types.Int16, Int16: v} }
func NewInt32(v int32) *Value  { return &Value{Kind: types.Int32, Int32: v} }
func NewInt64(v int64) *Value  { return &Value{Kind: types.Int64, Int64: v} }

func NewFloat32(v float32) *Value { return &Value{Kind: types.Float32, Float32: v} }
func NewFloat64(v float64) *Value { return &Value{Kind: types.Float64, Float64: v} }

func NewText(s string) *Value { return &Value{Kind: types.Text, Text: s} }

func NewReserved() *Value { return &Value{Kind: types.Reserved} }

// NewNat constructs an arbitrary-precision nat from its raw ULEB128 bytes.
func NewNat(raw []byte) *Value { return &Value{Kind: types.Nat, Bignum: raw} }

// NewInt constructs an arbitrary-precision int from its raw SLEB128 bytes.
func NewInt(raw []byte) *Value { return &Value{Kind: types.Int, Bignum: raw} }

// NewPrincipal constructs a principal value from raw identity bytes
// (length is validated by the decoder/encoder, not here).
func NewPrincipal(raw []byte) *Value { return &Value{Kind: types.Principal, Principal: raw} }

// NewBlob constructs the canonical decoded form of vec nat8: a Vec-kinded
// value carrying its elements as a contiguous byte run rather than
// per-element Values. AsBytes recovers the run; Equal treats a Blob and an
// element-wise vec nat8 as equal whenever their bytes match.
func NewBlob(b []byte) *Value { return &Value{Kind: types.Vec, Blob: b} }

// AbsentOpt constructs an absent optional value.
func AbsentOpt() *Value { return &Value{Kind: types.Opt, Present: false} }

// PresentOpt constructs a present optional value wrapping inner.
func PresentOpt(inner *Value) *Value { return &Value{Kind: types.Opt, Present: true, Inner: inner} }

// NewVec constructs a vector value from its elements.
func NewVec(elems []*Value) *Value { return &Value{Kind: types.Vec, Elems: elems} }

// NewRecord constructs a record value from fields, which must already be
// in the type's label order: there is no independent sort here, because a
// record value's order is dictated by its type, not recomputed from the
// labels alone.
func NewRecord(fields []Field) *Value { return &Value{Kind: types.Record, Fields: fields} }

// NewVariant constructs a variant value naming its active case.
func NewVariant(index int, lbl label.Label, inner *Value) *Value {
	return &Value{Kind: types.Variant, VariantIndex: index, VariantLabel: lbl, VariantValue: inner}
}

// Equal implements structural value equality: same kind, equal primitive
// payload, equal text/blob bytes, and structural equality for
// opt/vec/record/variant including their children. Bignum payloads
// compare by raw bytes, since they travel verbatim and are never
// reinterpreted.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case types.Null, types.Reserved, types.Empty:
		return true
	case types.Bool:
		return a.Bool == b.Bool
	case types.Nat8:
		return a.Nat8 == b.Nat8
	case types.Nat16:
		return a.Nat16 == b.Nat16
	case types.Nat32:
		return a.Nat32 == b.Nat32
	case types.Nat64:
		return a.Nat64 == b.Nat64
	case types.Int8:
		return a.Int8 == b.Int8
	case types.Int16:
		return a.Int16 == b.Int16
	case types.Int32:
		return a.Int32 == b.Int32
	case types.Int64:
		return a.Int64 == b.Int64
	case types.Float32:
		return floatBitsEqual32(a.Float32, b.Float32)
	case types.Float64:
		return floatBitsEqual64(a.Float64, b.Float64)
	case types.Nat, types.Int:
		return bytes.Equal(a.Bignum, b.Bignum)
	case types.Text:
		return a.Text == b.Text
	case types.Principal:
		return bytes.Equal(a.Principal, b.Principal)
	case types.Opt:
		if a.Present != b.Present {
			return false
		}
		if !a.Present {
			return true
		}
		return Equal(a.Inner, b.Inner)
	case types.Vec:
		return vecOrBlobEqual(a, b)
	case types.Record:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if !a.Fields[i].Label.Equal(b.Fields[i].Label) {
				return false
			}
			if !Equal(a.Fields[i].Value, b.Fields[i].Value) {
				return false
			}
		}
		return true
	case types.Variant:
		return a.VariantLabel.Equal(b.VariantLabel) && Equal(a.VariantValue, b.VariantValue)
	default:
		return false
	}
}

// vecOrBlobEqual implements Blob/Vec<nat8> equivalence: a Blob value and a
// Vec<nat8> value are equal iff their bytes match. When either side is a
// Blob, an element-wise side is compared by its nat8 elements' bytes;
// otherwise the elements are compared one by one.
func vecOrBlobEqual(a, b *Value) bool {
	if a.Blob != nil || b.Blob != nil {
		byteRun := func(v *Value) ([]byte, bool) {
			if bb, ok := AsBytes(v); ok {
				return bb, true
			}
			out := make([]byte, len(v.Elems))
			for i, e := range v.Elems {
				if e == nil || e.Kind != types.Nat8 {
					return nil, false
				}
				out[i] = e.Nat8
			}
			return out, true
		}
		ab, aok := byteRun(a)
		bb, bok := byteRun(b)
		if aok && bok {
			return bytes.Equal(ab, bb)
		}
	}
	if len(a.Elems) != len(b.Elems) {
		return false
	}
	for i := range a.Elems {
		if !Equal(a.Elems[i], b.Elems[i]) {
			return false
		}
	}
	return true
}

// AsBytes returns v's contiguous byte run if v is a Blob-shaped vec nat8
// (either materialized via NewVec+Blob or produced as Blob directly), and
// whether v was byte-shaped at all.
func AsBytes(v *Value) ([]byte, bool) {
	if v.Kind == types.Vec && v.Blob != nil {
		return v.Blob, true
	}
	return nil, false
}

func floatBitsEqual32(a, b float32) bool {
	if math.IsNaN(float64(a)) && math.IsNaN(float64(b)) {
		return true
	}
	return a == b
}

func floatBitsEqual64(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
