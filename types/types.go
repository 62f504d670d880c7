// Package types implements the tagged Candid type model: the primitive
// kinds, the composite constructors (opt, vec, record, variant, func,
// service), and the named Var indirection used for type-table references
// and self-reference.
//
// Type is a single struct carrying a kind tag plus the fields relevant to
// that kind, rather than one Go type per Candid constructor. It does not
// hash-cons (structurally equal types do not automatically share one
// pointer); that's left to the Builder in the wiretable package, since
// Candid types here are scoped to a single encode/decode session rather
// than interned process-wide.
//
// Candid's object graph can self-reference (a record containing itself
// via a table reference). Go's type system has no safe way to place a
// pointer-containing struct inside a byte arena: doing so would require
// unsafe.Pointer casts that defeat the garbage collector's ability to
// track the very pointers the arena claims to own. This package instead
// lets *Type values live on the ordinary Go heap, and the byte slices and
// strings a Type or Value carries (label names, var names, raw blob and
// bignum bytes) are ordinary Go allocations too: no constructor here or in
// the value package takes an arena.Arena. See DESIGN.md.
package types

import (
	"fmt"

	"github.com/agrinman/candid/label"
	"github.com/agrinman/candid/status"
)

// Kind tags which Candid type constructor a Type value represents.
type Kind int

const (
	Null Kind = iota
	Bool
	Nat
	Int
	Nat8
	Nat16
	Nat32
	Nat64
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
	Text
	Reserved
	Empty
	Principal
	Opt
	Vec
	Record
	Variant
	Func
	Service
	Var
)

var kindNames = map[Kind]string{
	Null: "null", Bool: "bool", Nat: "nat", Int: "int",
	Nat8: "nat8", Nat16: "nat16", Nat32: "nat32", Nat64: "nat64",
	Int8: "int8", Int16: "int16", Int32: "int32", Int64: "int64",
	Float32: "float32", Float64: "float64", Text: "text",
	Reserved: "reserved", Empty: "empty", Principal: "principal",
	Opt: "opt", Vec: "vec", Record: "record", Variant: "variant",
	Func: "func", Service: "service", Var: "var",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Opcode is the SLEB128 constant the wire format uses to identify a
// constructor in the type table. Primitive kinds use their opcode directly
// as a type reference; composite kinds use their opcode only as the leading
// tag of their type-table entry.
type Opcode int64

const (
	OpcodeNull      Opcode = -1
	OpcodeBool      Opcode = -2
	OpcodeNat       Opcode = -3
	OpcodeInt       Opcode = -4
	OpcodeNat8      Opcode = -5
	OpcodeNat16     Opcode = -6
	OpcodeNat32     Opcode = -7
	OpcodeNat64     Opcode = -8
	OpcodeInt8      Opcode = -9
	OpcodeInt16     Opcode = -10
	OpcodeInt32     Opcode = -11
	OpcodeInt64     Opcode = -12
	OpcodeFloat32   Opcode = -13
	OpcodeFloat64   Opcode = -14
	OpcodeText      Opcode = -15
	OpcodeReserved  Opcode = -16
	OpcodeEmpty     Opcode = -17
	OpcodeOpt       Opcode = -18
	OpcodeVec       Opcode = -19
	OpcodeRecord    Opcode = -20
	OpcodeVariant   Opcode = -21
	OpcodeFunc      Opcode = -22
	OpcodeService   Opcode = -23
	OpcodePrincipal Opcode = -24
	// ReservedOpcodeBoundary: any opcode strictly less than this one is a
	// forward-compatibility blob entry, not a kind this package models.
	ReservedOpcodeBoundary Opcode = -24
)

var primitiveOpcodes = map[Kind]Opcode{
	Null: OpcodeNull, Bool: OpcodeBool, Nat: OpcodeNat, Int: OpcodeInt,
	Nat8: OpcodeNat8, Nat16: OpcodeNat16, Nat32: OpcodeNat32, Nat64: OpcodeNat64,
	Int8: OpcodeInt8, Int16: OpcodeInt16, Int32: OpcodeInt32, Int64: OpcodeInt64,
	Float32: OpcodeFloat32, Float64: OpcodeFloat64, Text: OpcodeText,
	Reserved: OpcodeReserved, Empty: OpcodeEmpty, Principal: OpcodePrincipal,
}

var compositeOpcodes = map[Kind]Opcode{
	Opt: OpcodeOpt, Vec: OpcodeVec, Record: OpcodeRecord,
	Variant: OpcodeVariant, Func: OpcodeFunc, Service: OpcodeService,
}

var opcodeToPrimitive = func() map[Opcode]Kind {
	m := make(map[Opcode]Kind, len(primitiveOpcodes))
	for k, op := range primitiveOpcodes {
		m[op] = k
	}
	return m
}()

// IsPrimitive reports whether k is one of the fixed primitive kinds whose
// type reference on the wire is simply its opcode.
func IsPrimitive(k Kind) bool {
	_, ok := primitiveOpcodes[k]
	return ok
}

// PrimitiveOpcode returns the SLEB128 opcode for a primitive kind.
func PrimitiveOpcode(k Kind) (Opcode, bool) {
	op, ok := primitiveOpcodes[k]
	return op, ok
}

// CompositeOpcode returns the SLEB128 tag opcode for a composite
// constructor kind.
func CompositeOpcode(k Kind) (Opcode, bool) {
	op, ok := compositeOpcodes[k]
	return op, ok
}

// PrimitiveKindForOpcode maps a wire opcode back to its primitive Kind.
func PrimitiveKindForOpcode(op Opcode) (Kind, bool) {
	k, ok := opcodeToPrimitive[op]
	return k, ok
}

// FuncMode is the at-most-one calling-convention modifier a Func type
// carries.
type FuncMode int

const (
	ModeNone           FuncMode = 0
	ModeQuery          FuncMode = 1
	ModeOneway         FuncMode = 2
	ModeCompositeQuery FuncMode = 3
)

// Field is one (Label, Type) pair of a Record or Variant.
type Field struct {
	Label label.Label
	Type  *Type
}

// Method is one (name, Func-type) pair of a Service.
type Method struct {
	Name string
	Func *Type
}

// Type is the tagged Candid type union. Only the fields relevant to Kind
// are meaningful; constructors below populate the correct subset and leave
// the rest zero.
type Type struct {
	Kind Kind

	// Opt, Vec
	Inner *Type

	// Record, Variant — must be sorted ascending by Label.NumericID, with
	// unique IDs, by the time a Type escapes a constructor.
	Fields []Field

	// Func
	Args []*Type
	Rets []*Type
	Mode FuncMode

	// Service — must be sorted ascending by Method.Name, with unique names.
	Methods []Method

	// Var
	VarName string
}

func primitive(k Kind) *Type { return &Type{Kind: k} }

func NewNull() *Type      { return primitive(Null) }
func NewBool() *Type      { return primitive(Bool) }
func NewNat() *Type       { return primitive(Nat) }
func NewInt() *Type       { return primitive(Int) }
func NewNat8() *Type      { return primitive(Nat8) }
func NewNat16() *Type     { return primitive(Nat16) }
func NewNat32() *Type     { return primitive(Nat32) }
func NewNat64() *Type     { return primitive(Nat64) }
func NewInt8() *Type      { return primitive(Int8) }
func NewInt16() *Type     { return primitive(Int16) }
func NewInt32() *Type     { return primitive(Int32) }
func NewInt64() *Type     { return primitive(Int64) }
func NewFloat32() *Type   { return primitive(Float32) }
func NewFloat64() *Type   { return primitive(Float64) }
func NewText() *Type      { return primitive(Text) }
func NewReserved() *Type  { return primitive(Reserved) }
func NewEmpty() *Type     { return primitive(Empty) }
func NewPrincipal() *Type { return primitive(Principal) }

// NewOpt constructs opt(inner).
func NewOpt(inner *Type) *Type { return &Type{Kind: Opt, Inner: inner} }

// NewVec constructs vec(inner).
func NewVec(inner *Type) *Type { return &Type{Kind: Vec, Inner: inner} }

// NewRecord constructs a record from fields, sorting them by label ID and
// rejecting duplicate IDs.
func NewRecord(fields []Field) (*Type, error) {
	sorted, err := sortedUniqueFields(fields)
	if err != nil {
		return nil, err
	}
	return &Type{Kind: Record, Fields: sorted}, nil
}

// NewVariant constructs a variant from cases, with the same ordering rule
// as NewRecord.
func NewVariant(cases []Field) (*Type, error) {
	sorted, err := sortedUniqueFields(cases)
	if err != nil {
		return nil, err
	}
	return &Type{Kind: Variant, Fields: sorted}, nil
}

func sortedUniqueFields(fields []Field) ([]Field, error) {
	out := make([]Field, len(fields))
	copy(out, fields)
	sortFields(out)
	for i := 1; i < len(out); i++ {
		if out[i].Label.Equal(out[i-1].Label) {
			return nil, duplicateLabelErr(out[i].Label)
		}
	}
	return out, nil
}

func sortFields(fields []Field) {
	for i := 1; i < len(fields); i++ {
		for j := i; j > 0 && fields[j].Label.Less(fields[j-1].Label); j-- {
			fields[j], fields[j-1] = fields[j-1], fields[j]
		}
	}
}

// NewFunc constructs a func type. At most one mode is permitted.
func NewFunc(args, rets []*Type, mode FuncMode) *Type {
	return &Type{Kind: Func, Args: args, Rets: rets, Mode: mode}
}

// NewService constructs a service type from methods sorted by strictly
// ascending name.
func NewService(methods []Method) (*Type, error) {
	out := make([]Method, len(methods))
	copy(out, methods)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Name < out[j-1].Name; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i].Name == out[i-1].Name {
			return nil, status.New(status.InvalidArgument, "types: duplicate service method name %q", out[i].Name)
		}
	}
	return &Type{Kind: Service, Methods: out}, nil
}

// NewVar constructs a named indirection used for table references and
// user-supplied recursive bindings.
func NewVar(name string) *Type { return &Type{Kind: Var, VarName: name} }

// NewPrimitive constructs a primitive Type for kind k, failing if k is not
// one of the fixed primitive kinds.
func NewPrimitive(k Kind) (*Type, error) {
	if !IsPrimitive(k) {
		return nil, status.New(status.Unsupported, "types: %v is not a primitive kind", k)
	}
	return primitive(k), nil
}

// IsOptionalLike reports whether t's single legal "absent" inhabitant is
// defined without further context: null, reserved, or opt T. Var is not
// resolved here; callers resolve through a type environment first.
func IsOptionalLike(t *Type) bool {
	switch t.Kind {
	case Null, Reserved, Opt:
		return true
	default:
		return false
	}
}

func duplicateLabelErr(l label.Label) error {
	return status.New(status.InvalidArgument, "types: duplicate field id %d", l.NumericID())
}
