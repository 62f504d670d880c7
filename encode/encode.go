// Package encode implements the type-directed value serializer: a writer
// that appends a Candid value's bytes to a growing buffer according to
// its paired Type, plus the Builder that ties a value's type-table
// registration (wiretable) and serialization together behind one Arg
// call.
//
// AppendValue emits length-prefixed, tag-free bytes for each constructor,
// dispatching on the paired type (resolved through the environment) and
// reading the matching payload field of the value. Record values are
// checked against the type's field count and labels, and variant values
// against the type's case label at their index.
package encode

import (
	"math"

	"github.com/agrinman/candid/arena"
	"github.com/agrinman/candid/leb128"
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
	"github.com/agrinman/candid/value"
	"github.com/agrinman/candid/wiretable"
)

// Builder accumulates (Type, Value) argument pairs and produces the
// complete wire message — magic, type table, argument types, then argument
// values in order — on Finish.
type Builder struct {
	env    *typeenv.Env
	arena  *arena.Arena
	types  []*types.Type
	values []*value.Value
}

// NewBuilder constructs an empty Builder. env supplies bindings for any
// types.Var the caller's argument types reference; a may be nil, in which
// case Finish returns a plain Go byte slice instead of an arena-owned one.
func NewBuilder(env *typeenv.Env, a *arena.Arena) *Builder {
	return &Builder{env: env, arena: a}
}

// Arg queues t and v as the next argument pair. Finish registers every
// queued type via the type-table builder and then serializes the queued
// values in the same order.
func (b *Builder) Arg(t *types.Type, v *value.Value) {
	b.types = append(b.types, t)
	b.values = append(b.values, v)
}

// Finish produces the complete message bytes. Record and variant values
// are expected in the schema order their paired type dictates.
func (b *Builder) Finish() ([]byte, error) {
	header, err := wiretable.Write(b.types, b.env)
	if err != nil {
		return nil, err
	}
	out := header
	env := b.env
	if env == nil {
		env = typeenv.New()
	}
	for i, t := range b.types {
		out, err = AppendValue(out, env, t, b.values[i])
		if err != nil {
			return nil, err
		}
	}
	if b.arena == nil {
		return out, nil
	}
	return b.arena.Dup(out)
}

// AppendValue appends v's wire encoding, interpreted under t (resolving
// any Var through env first), to dst, returning the extended slice. This
// is the recursive core of the serializer.
func AppendValue(dst []byte, env *typeenv.Env, t *types.Type, v *value.Value) ([]byte, error) {
	rt, err := env.Resolve(t)
	if err != nil {
		return nil, err
	}
	switch rt.Kind {
	case types.Null, types.Reserved, types.Empty:
		return dst, nil
	case types.Bool:
		if v.Bool {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case types.Nat8:
		return append(dst, v.Nat8), nil
	case types.Int8:
		return append(dst, byte(v.Int8)), nil
	case types.Nat16:
		return appendLE(dst, uint64(v.Nat16), 2), nil
	case types.Int16:
		return appendLE(dst, uint64(uint16(v.Int16)), 2), nil
	case types.Nat32:
		return appendLE(dst, uint64(v.Nat32), 4), nil
	case types.Int32:
		return appendLE(dst, uint64(uint32(v.Int32)), 4), nil
	case types.Nat64:
		return appendLE(dst, v.Nat64, 8), nil
	case types.Int64:
		return appendLE(dst, uint64(v.Int64), 8), nil
	case types.Float32:
		return appendLE(dst, uint64(math.Float32bits(v.Float32)), 4), nil
	case types.Float64:
		return appendLE(dst, math.Float64bits(v.Float64), 8), nil
	case types.Nat, types.Int:
		return append(dst, v.Bignum...), nil
	case types.Text:
		dst = leb128.AppendUint(dst, uint64(len(v.Text)))
		return append(dst, v.Text...), nil
	case types.Principal:
		if len(v.Principal) > 29 {
			return nil, status.New(status.InvalidArgument, "encode: principal longer than 29 bytes")
		}
		dst = append(dst, 0x01)
		dst = leb128.AppendUint(dst, uint64(len(v.Principal)))
		return append(dst, v.Principal...), nil
	case types.Opt:
		if !v.Present {
			return append(dst, 0x00), nil
		}
		dst = append(dst, 0x01)
		return AppendValue(dst, env, rt.Inner, v.Inner)
	case types.Vec:
		return appendVec(dst, env, rt, v)
	case types.Record:
		return appendRecord(dst, env, rt, v)
	case types.Variant:
		return appendVariant(dst, env, rt, v)
	case types.Func, types.Service:
		return nil, status.New(status.Unsupported, "encode: func/service value encoding is not implemented in the basic code path")
	default:
		return nil, status.New(status.Unsupported, "encode: unsupported kind %v", rt.Kind)
	}
}

func appendLE(dst []byte, v uint64, width int) []byte {
	for i := 0; i < width; i++ {
		dst = append(dst, byte(v>>(8*uint(i))))
	}
	return dst
}

func appendVec(dst []byte, env *typeenv.Env, t *types.Type, v *value.Value) ([]byte, error) {
	if bytesRun, ok := value.AsBytes(v); ok {
		dst = leb128.AppendUint(dst, uint64(len(bytesRun)))
		return append(dst, bytesRun...), nil
	}
	dst = leb128.AppendUint(dst, uint64(len(v.Elems)))
	var err error
	for _, e := range v.Elems {
		dst, err = AppendValue(dst, env, t.Inner, e)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func appendRecord(dst []byte, env *typeenv.Env, t *types.Type, v *value.Value) ([]byte, error) {
	if len(v.Fields) != len(t.Fields) {
		return nil, status.New(status.InvalidArgument, "encode: record value has %d fields, type expects %d", len(v.Fields), len(t.Fields))
	}
	var err error
	for i, f := range t.Fields {
		if !v.Fields[i].Label.Equal(f.Label) {
			return nil, status.New(status.InvalidArgument, "encode: record value field %d label does not match type", i)
		}
		dst, err = AppendValue(dst, env, f.Type, v.Fields[i].Value)
		if err != nil {
			return nil, err
		}
	}
	return dst, nil
}

func appendVariant(dst []byte, env *typeenv.Env, t *types.Type, v *value.Value) ([]byte, error) {
	if v.VariantIndex < 0 || v.VariantIndex >= len(t.Fields) {
		return nil, status.New(status.InvalidArgument, "encode: variant index %d out of range", v.VariantIndex)
	}
	dst = leb128.AppendUint(dst, uint64(v.VariantIndex))
	caseField := t.Fields[v.VariantIndex]
	if !caseField.Label.Equal(v.VariantLabel) {
		return nil, status.New(status.InvalidArgument, "encode: variant label does not match type at index %d", v.VariantIndex)
	}
	return AppendValue(dst, env, caseField.Type, v.VariantValue)
}
