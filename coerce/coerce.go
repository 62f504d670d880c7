// Package coerce adapts an already-decoded value from its wire type to a
// caller's expected type: widening or narrowing records, renumbering
// variant cases, promoting nat to int, and normalizing vec/blob, applying
// the special opt rule (a failed coercion into opt T silently becomes
// absent unless the caller's error policy demands otherwise) along the
// way. It does not read wire bytes itself; a record's wire-only fields are
// expected to already be gone from the value by the time Coerce sees it
// (see decode.ReadValueExpected).
package coerce

import (
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
	"github.com/agrinman/candid/value"
)

// OptPolicy mirrors subtype.OptPolicy without importing it: Error makes the
// special opt rule fail, Warning reports it through the warn callback, and
// Silence falls back to absent quietly.
type OptPolicy int

const (
	Silence OptPolicy = iota
	Warning
	Error
)

// Coercer adapts values from a wire type to an expected type.
type Coercer struct {
	env    *typeenv.Env
	policy OptPolicy
	warn   func(format string, args ...interface{})
}

// NewCoercer constructs a Coercer. env resolves types.Var on either side.
// warn, if non-nil, is invoked when the special opt rule fires under the
// Warning policy.
func NewCoercer(env *typeenv.Env, policy OptPolicy, warn func(string, ...interface{})) *Coercer {
	return &Coercer{env: env, policy: policy, warn: warn}
}

// Coerce adapts v (of wireType) into a value of expectedType.
func (c *Coercer) Coerce(wireType, expectedType *types.Type, v *value.Value) (*value.Value, error) {
	wt, err := c.env.Resolve(wireType)
	if err != nil {
		return nil, err
	}
	et, err := c.env.Resolve(expectedType)
	if err != nil {
		return nil, err
	}

	if wt == et || (types.IsPrimitive(wt.Kind) && wt.Kind == et.Kind) {
		return v, nil
	}
	if et.Kind == types.Reserved {
		return value.NewReserved(), nil
	}
	if wt.Kind == types.Nat && et.Kind == types.Int {
		return value.NewInt(v.Bignum), nil
	}
	if wt.Kind == types.Null && et.Kind == types.Opt {
		return value.AbsentOpt(), nil
	}
	if wt.Kind == types.Opt && et.Kind == types.Opt {
		if !v.Present {
			return value.AbsentOpt(), nil
		}
		inner, err := c.Coerce(wt.Inner, et.Inner, v.Inner)
		if err != nil {
			return nil, err
		}
		return value.PresentOpt(inner), nil
	}
	if et.Kind == types.Opt {
		return c.coerceIntoOpt(wt, et, v)
	}
	if wt.Kind == types.Vec && et.Kind == types.Vec {
		return c.coerceVec(wt, et, v)
	}
	if wt.Kind == types.Record && et.Kind == types.Record {
		return c.coerceRecord(wt, et, v)
	}
	if wt.Kind == types.Variant && et.Kind == types.Variant {
		return c.coerceVariant(wt, et, v)
	}
	if wt.Kind == et.Kind {
		return v, nil
	}
	return nil, status.New(status.InvalidArgument, "coerce: cannot coerce %v to %v", wt.Kind, et.Kind)
}

// coerceIntoOpt implements the special opt rule: wrap a successful
// coercion in present, or produce absent rather than failing, unless the
// Error policy is active.
func (c *Coercer) coerceIntoOpt(wt, et *types.Type, v *value.Value) (*value.Value, error) {
	innerResolved, err := c.env.Resolve(et.Inner)
	if err != nil {
		return nil, err
	}
	if !isOptionalLike(innerResolved) {
		if inner, cerr := c.Coerce(wt, et.Inner, v); cerr == nil {
			return value.PresentOpt(inner), nil
		}
	}
	switch c.policy {
	case Error:
		return nil, status.New(status.InvalidArgument, "coerce: %v is not coercible to %v and the error opt policy is active", wt.Kind, et.Kind)
	default:
		if c.policy == Warning && c.warn != nil {
			c.warn("coerce: falling back to absent for %v -> opt %v", wt.Kind, et.Inner.Kind)
		}
		return value.AbsentOpt(), nil
	}
}

func isOptionalLike(t *types.Type) bool {
	switch t.Kind {
	case types.Null, types.Reserved, types.Opt:
		return true
	default:
		return false
	}
}

func (c *Coercer) coerceVec(wt, et *types.Type, v *value.Value) (*value.Value, error) {
	wireInner, err := c.env.Resolve(wt.Inner)
	if err != nil {
		return nil, err
	}
	expectedInner, err := c.env.Resolve(et.Inner)
	if err != nil {
		return nil, err
	}
	if wireInner.Kind == types.Nat8 && expectedInner.Kind == types.Nat8 {
		// Both byte-shaped: normalize to the canonical Blob representation
		// regardless of how the wire value happened to be materialized.
		if bb, ok := value.AsBytes(v); ok {
			return value.NewBlob(bb), nil
		}
		bytesOut := make([]byte, len(v.Elems))
		for i, e := range v.Elems {
			bytesOut[i] = e.Nat8
		}
		return value.NewBlob(bytesOut), nil
	}
	if bb, ok := value.AsBytes(v); ok {
		// Blob -> vec of some other element type.
		elems := make([]*value.Value, len(bb))
		for i, b := range bb {
			coerced, err := c.Coerce(wireInner, et.Inner, value.NewNat8(b))
			if err != nil {
				return nil, err
			}
			elems[i] = coerced
		}
		return value.NewVec(elems), nil
	}
	elems := make([]*value.Value, len(v.Elems))
	for i, e := range v.Elems {
		coerced, err := c.Coerce(wt.Inner, et.Inner, e)
		if err != nil {
			return nil, err
		}
		elems[i] = coerced
	}
	return value.NewVec(elems), nil
}

// coerceRecord builds an expectedType-shaped record out of v, which may
// already be missing wire-only fields (when v came from
// decode.ReadValueExpected) or may still carry them (when v was decoded in
// full); either way only the fields expectedType declares end up in the
// result, and a declared field v doesn't have falls back to its
// optional-like default.
func (c *Coercer) coerceRecord(wt, et *types.Type, v *value.Value) (*value.Value, error) {
	wireByLabel := make(map[uint32]*types.Type, len(wt.Fields))
	for _, f := range wt.Fields {
		wireByLabel[f.Label.NumericID()] = f.Type
	}
	valueByLabel := make(map[uint32]*value.Value, len(v.Fields))
	for _, f := range v.Fields {
		valueByLabel[f.Label.NumericID()] = f.Value
	}

	out := make([]value.Field, len(et.Fields))
	for i, f := range et.Fields {
		id := f.Label.NumericID()
		wireFieldType, hasWire := wireByLabel[id]
		fieldValue, hasValue := valueByLabel[id]
		if !hasWire || !hasValue {
			resolved, err := c.env.Resolve(f.Type)
			if err != nil {
				return nil, err
			}
			def, err := defaultOptionalLike(resolved)
			if err != nil {
				return nil, status.New(status.InvalidArgument, "coerce: missing required field %d", id)
			}
			out[i] = value.Field{Label: f.Label, Value: def}
			continue
		}
		coerced, err := c.Coerce(wireFieldType, f.Type, fieldValue)
		if err != nil {
			return nil, err
		}
		out[i] = value.Field{Label: f.Label, Value: coerced}
	}

	return value.NewRecord(out), nil
}

func defaultOptionalLike(t *types.Type) (*value.Value, error) {
	switch t.Kind {
	case types.Null:
		return value.NewNull(), nil
	case types.Reserved:
		return value.NewReserved(), nil
	case types.Opt:
		return value.AbsentOpt(), nil
	default:
		return nil, status.New(status.InvalidArgument, "coerce: %v is not optional-like", t.Kind)
	}
}

func (c *Coercer) coerceVariant(wt, et *types.Type, v *value.Value) (*value.Value, error) {
	for i, f := range et.Fields {
		if !f.Label.Equal(v.VariantLabel) {
			continue
		}
		wireCaseType := wt.Fields[v.VariantIndex].Type
		coerced, err := c.Coerce(wireCaseType, f.Type, v.VariantValue)
		if err != nil {
			return nil, err
		}
		return value.NewVariant(i, f.Label, coerced), nil
	}
	return nil, status.New(status.InvalidArgument, "coerce: wire variant case %d has no match in the expected type", v.VariantLabel.NumericID())
}
