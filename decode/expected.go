package decode

import (
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
	"github.com/agrinman/candid/value"
)

// ReadValueExpected reads one wire-encoded value of wireType the same way
// GetValue does, except that wherever wireType and expectedType are both
// records it only materializes the fields expectedType also declares,
// skipping the remaining wire fields in place rather than decoding them and
// throwing the result away. Skipped bytes are charged to skipQuota instead
// of q, keeping that work separate from ordinary decoding cost.
//
// Narrowing only changes how bytes are consumed where a record is nested
// directly under a record/variant/vec/opt of the same kind on both sides;
// everywhere else the value is read in full via the ordinary wire-typed
// path, and any type mismatch is left for the coercer to reject afterward.
func ReadValueExpected(src []byte, cursor *int, env *typeenv.Env, wireType, expectedType *types.Type, q, skipQuota *Quota) (*value.Value, error) {
	wt, err := env.Resolve(wireType)
	if err != nil {
		return nil, err
	}
	et, err := env.Resolve(expectedType)
	if err != nil {
		return nil, err
	}

	switch {
	case wt.Kind == types.Record && et.Kind == types.Record:
		return readRecordExpected(src, cursor, env, wt, et, q, skipQuota)
	case wt.Kind == types.Variant && et.Kind == types.Variant:
		return readVariantExpected(src, cursor, env, wt, et, q, skipQuota)
	case wt.Kind == types.Vec && et.Kind == types.Vec:
		return readVecExpected(src, cursor, env, wt, et, q, skipQuota)
	case wt.Kind == types.Opt && et.Kind == types.Opt:
		return readOptExpected(src, cursor, env, wt, et, q, skipQuota)
	default:
		return readValue(src, cursor, env, wt, q)
	}
}

func readRecordExpected(src []byte, cursor *int, env *typeenv.Env, wt, et *types.Type, q, skipQuota *Quota) (*value.Value, error) {
	wanted := make(map[uint32]*types.Type, len(et.Fields))
	for _, f := range et.Fields {
		wanted[f.Label.NumericID()] = f.Type
	}

	kept := make(map[uint32]*value.Value, len(et.Fields))
	for _, f := range wt.Fields {
		id := f.Label.NumericID()
		expectedFieldType, want := wanted[id]
		if !want {
			if err := Skip(src, cursor, env, f.Type, skipQuota); err != nil {
				return nil, err
			}
			continue
		}
		fv, err := ReadValueExpected(src, cursor, env, f.Type, expectedFieldType, q, skipQuota)
		if err != nil {
			return nil, err
		}
		kept[id] = fv
	}

	fields := make([]value.Field, 0, len(et.Fields))
	for _, f := range et.Fields {
		if fv, ok := kept[f.Label.NumericID()]; ok {
			fields = append(fields, value.Field{Label: f.Label, Value: fv})
		}
	}
	return value.NewRecord(fields), nil
}

func readVariantExpected(src []byte, cursor *int, env *typeenv.Env, wt, et *types.Type, q, skipQuota *Quota) (*value.Value, error) {
	idx, err := readULEB(src, cursor, q)
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(wt.Fields)) {
		return nil, status.New(status.InvalidArgument, "decode: variant index %d out of range (%d cases)", idx, len(wt.Fields))
	}
	wireCase := wt.Fields[idx]
	for _, f := range et.Fields {
		if !f.Label.Equal(wireCase.Label) {
			continue
		}
		inner, err := ReadValueExpected(src, cursor, env, wireCase.Type, f.Type, q, skipQuota)
		if err != nil {
			return nil, err
		}
		return value.NewVariant(int(idx), wireCase.Label, inner), nil
	}
	// No matching case in expectedType: read the wire case in full so its
	// bytes are consumed, and leave the mismatch for the coercer to reject.
	inner, err := readValue(src, cursor, env, wireCase.Type, q)
	if err != nil {
		return nil, err
	}
	return value.NewVariant(int(idx), wireCase.Label, inner), nil
}

func readVecExpected(src []byte, cursor *int, env *typeenv.Env, wt, et *types.Type, q, skipQuota *Quota) (*value.Value, error) {
	n, err := readULEB(src, cursor, q)
	if err != nil {
		return nil, err
	}
	wireInner, err := env.Resolve(wt.Inner)
	if err != nil {
		return nil, err
	}
	if wireInner.Kind == types.Nat8 {
		raw, err := readBytes(src, cursor, q, int(n))
		if err != nil {
			return nil, err
		}
		return value.NewBlob(append([]byte(nil), raw...)), nil
	}
	elems := make([]*value.Value, n)
	for i := uint64(0); i < n; i++ {
		e, err := ReadValueExpected(src, cursor, env, wt.Inner, et.Inner, q, skipQuota)
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	return value.NewVec(elems), nil
}

func readOptExpected(src []byte, cursor *int, env *typeenv.Env, wt, et *types.Type, q, skipQuota *Quota) (*value.Value, error) {
	tag, err := readByte(src, cursor, q)
	if err != nil {
		return nil, err
	}
	switch tag {
	case 0x00:
		return value.AbsentOpt(), nil
	case 0x01:
		inner, err := ReadValueExpected(src, cursor, env, wt.Inner, et.Inner, q, skipQuota)
		if err != nil {
			return nil, err
		}
		return value.PresentOpt(inner), nil
	default:
		return nil, status.New(status.InvalidArgument, "decode: opt tag byte %d is neither 0 nor 1", tag)
	}
}
