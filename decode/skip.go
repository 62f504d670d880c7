package decode

import (
	"github.com/agrinman/candid/leb128"
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
)

// Skip advances cursor past one wire-encoded value of type t (resolved
// through env) without materializing a value, charging q instead of the
// decoding quota. ReadValueExpected uses this to discard wire-only record
// fields an expected type does not declare, reusing the same kind-dispatch
// and the vec-nat8 fast path as GetValue.
func Skip(src []byte, cursor *int, env *typeenv.Env, t *types.Type, q *Quota) error {
	rt, err := env.Resolve(t)
	if err != nil {
		return err
	}
	switch rt.Kind {
	case types.Null, types.Reserved, types.Empty:
		return nil
	case types.Bool, types.Nat8, types.Int8:
		_, err := readByte(src, cursor, q)
		return err
	case types.Nat16, types.Int16:
		_, err := readBytes(src, cursor, q, 2)
		return err
	case types.Nat32, types.Int32, types.Float32:
		_, err := readBytes(src, cursor, q, 4)
		return err
	case types.Nat64, types.Int64, types.Float64:
		_, err := readBytes(src, cursor, q, 8)
		return err
	case types.Nat, types.Int:
		n, err := leb128.ScanLength(src[*cursor:])
		if err != nil {
			return err
		}
		_, err = readBytes(src, cursor, q, n)
		return err
	case types.Text:
		n, err := readULEB(src, cursor, q)
		if err != nil {
			return err
		}
		_, err = readBytes(src, cursor, q, int(n))
		return err
	case types.Principal:
		if _, err := readByte(src, cursor, q); err != nil {
			return err
		}
		n, err := readULEB(src, cursor, q)
		if err != nil {
			return err
		}
		_, err = readBytes(src, cursor, q, int(n))
		return err
	case types.Opt:
		tag, err := readByte(src, cursor, q)
		if err != nil {
			return err
		}
		if tag == 0x00 {
			return nil
		}
		if tag != 0x01 {
			return status.New(status.InvalidArgument, "decode: opt tag byte %d is neither 0 nor 1", tag)
		}
		return Skip(src, cursor, env, rt.Inner, q)
	case types.Vec:
		n, err := readULEB(src, cursor, q)
		if err != nil {
			return err
		}
		inner, err := env.Resolve(rt.Inner)
		if err != nil {
			return err
		}
		if inner.Kind == types.Nat8 {
			_, err := readBytes(src, cursor, q, int(n))
			return err
		}
		for i := uint64(0); i < n; i++ {
			if err := Skip(src, cursor, env, rt.Inner, q); err != nil {
				return err
			}
		}
		return nil
	case types.Record:
		for _, f := range rt.Fields {
			if err := Skip(src, cursor, env, f.Type, q); err != nil {
				return err
			}
		}
		return nil
	case types.Variant:
		idx, err := readULEB(src, cursor, q)
		if err != nil {
			return err
		}
		if idx >= uint64(len(rt.Fields)) {
			return status.New(status.InvalidArgument, "decode: variant index %d out of range (%d cases)", idx, len(rt.Fields))
		}
		return Skip(src, cursor, env, rt.Fields[idx].Type, q)
	case types.Func, types.Service:
		return status.New(status.Unsupported, "decode: func/service value skipping is not implemented in the basic code path")
	default:
		return status.New(status.Unsupported, "decode: unsupported kind %v", rt.Kind)
	}
}
