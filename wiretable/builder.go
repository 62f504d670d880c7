// Package wiretable implements the type-table builder and DIDL header
// codec: the piece that turns a graph of types.Type values into the
// wire's type table plus argument-type index sequence, and back again.
//
// The builder assigns every non-primitive type a table index the first
// time it's referenced and reuses that index for later
// structurally-identical types (hash-consing), via a depth-first walk. An
// anonymous composite gets its slot after its constituents are registered;
// a Var-named type reserves its slot before its body is built, so
// self-references through that name resolve. The table is scoped to
// one Builder (one encode call) rather than a process-wide registry,
// since the library carries no shared state at package scope.
package wiretable

import (
	"fmt"

	"github.com/agrinman/candid/leb128"
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
)

// maxStructuralDepth bounds the recursion a structural dedup key walk will
// perform. True self-reference always runs through types.Var plus an Env
// entry, so this bound should never legitimately bind; it exists as a
// guard against a caller accidentally constructing a raw pointer cycle.
const maxStructuralDepth = 10000

type entry struct {
	bytes []byte
}

// Builder accumulates composite types referenced by a set of arguments,
// deduplicating structurally equal ones, and produces the wire-form type
// table plus argument-reference sequence.
type Builder struct {
	env     *typeenv.Env
	entries []*entry
	byKey   map[string]int
	byName  map[string]int
	depth   int
}

// NewBuilder constructs an empty Builder. env supplies the bindings for
// any types.Var the caller's types reference (recursive type definitions);
// it may be nil if no argument type contains a Var.
func NewBuilder(env *typeenv.Env) *Builder {
	if env == nil {
		env = typeenv.New()
	}
	return &Builder{
		env:    env,
		byKey:  make(map[string]int),
		byName: make(map[string]int),
	}
}

// ref returns the SLEB128 type reference for t: a negative primitive
// opcode, or a non-negative type-table index, registering composite
// entries (and their constituents) as needed.
func (b *Builder) ref(t *types.Type) (int64, error) {
	if t == nil {
		return 0, status.New(status.InvalidArgument, "wiretable: nil type")
	}
	if types.IsPrimitive(t.Kind) {
		op, _ := types.PrimitiveOpcode(t.Kind)
		return int64(op), nil
	}
	if t.Kind == types.Var {
		return b.refVar(t.VarName)
	}
	return b.refComposite(t)
}

func (b *Builder) refVar(name string) (int64, error) {
	if idx, ok := b.byName[name]; ok {
		return int64(idx), nil
	}
	idx := len(b.entries)
	b.entries = append(b.entries, &entry{})
	b.byName[name] = idx

	bound, ok := b.env.Lookup(name)
	if !ok {
		return 0, status.New(status.InvalidArgument, "wiretable: var %q has no binding", name)
	}
	resolved, err := b.env.Resolve(bound)
	if err != nil {
		return 0, err
	}
	body, op, err := b.buildBody(resolved)
	if err != nil {
		return 0, err
	}
	b.entries[idx].bytes = append(leb128.AppendInt(nil, int64(op)), body...)
	return int64(idx), nil
}

func (b *Builder) refComposite(t *types.Type) (int64, error) {
	b.depth++
	if b.depth > maxStructuralDepth {
		b.depth--
		return 0, status.New(status.InvalidArgument, "wiretable: type graph exceeds depth %d without a Var indirection", maxStructuralDepth)
	}
	body, op, err := b.buildBody(t)
	b.depth--
	if err != nil {
		return 0, err
	}
	key := fmt.Sprintf("%d:%x", op, body)
	if idx, ok := b.byKey[key]; ok {
		return int64(idx), nil
	}
	idx := len(b.entries)
	b.entries = append(b.entries, &entry{bytes: append(leb128.AppendInt(nil, int64(op)), body...)})
	b.byKey[key] = idx
	return int64(idx), nil
}

// buildBody renders t's entry body (everything after the leading opcode)
// in the wire-form type table, returning the body bytes and the opcode
// that should prefix them.
func (b *Builder) buildBody(t *types.Type) ([]byte, types.Opcode, error) {
	op, ok := types.CompositeOpcode(t.Kind)
	if !ok {
		return nil, 0, status.New(status.Unsupported, "wiretable: %v has no composite wire form", t.Kind)
	}
	var body []byte
	switch t.Kind {
	case types.Opt, types.Vec:
		ref, err := b.ref(t.Inner)
		if err != nil {
			return nil, 0, err
		}
		body = leb128.AppendInt(nil, ref)
	case types.Record, types.Variant:
		body = leb128.AppendUint(nil, uint64(len(t.Fields)))
		for _, f := range t.Fields {
			body = leb128.AppendUint(body, uint64(f.Label.NumericID()))
			ref, err := b.ref(f.Type)
			if err != nil {
				return nil, 0, err
			}
			body = leb128.AppendInt(body, ref)
		}
	case types.Func:
		body = leb128.AppendUint(nil, uint64(len(t.Args)))
		for _, a := range t.Args {
			ref, err := b.ref(a)
			if err != nil {
				return nil, 0, err
			}
			body = leb128.AppendInt(body, ref)
		}
		body = leb128.AppendUint(body, uint64(len(t.Rets)))
		for _, r := range t.Rets {
			ref, err := b.ref(r)
			if err != nil {
				return nil, 0, err
			}
			body = leb128.AppendInt(body, ref)
		}
		if t.Mode == types.ModeNone {
			body = leb128.AppendUint(body, 0)
		} else {
			body = leb128.AppendUint(body, 1)
			body = append(body, byte(t.Mode))
		}
	case types.Service:
		body = leb128.AppendUint(nil, uint64(len(t.Methods)))
		for _, m := range t.Methods {
			body = leb128.AppendUint(body, uint64(len(m.Name)))
			body = append(body, m.Name...)
			ref, err := b.ref(m.Func)
			if err != nil {
				return nil, 0, err
			}
			body = leb128.AppendInt(body, ref)
		}
	default:
		return nil, 0, status.New(status.Unsupported, "wiretable: unsupported kind %v", t.Kind)
	}
	return body, op, nil
}

// Build registers every argument type (in order) and returns the wire
// bytes of the type table plus argument-reference sequence: ULEB128
// type-count, concatenated entries, ULEB128 arg-count, concatenated
// argument references. It does not include the leading "DIDL" magic; see
// Write for the full message prefix.
func (b *Builder) Build(args []*types.Type) ([]byte, error) {
	refs := make([]int64, len(args))
	for i, a := range args {
		ref, err := b.ref(a)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}
	var out []byte
	out = leb128.AppendUint(out, uint64(len(b.entries)))
	for _, e := range b.entries {
		out = append(out, e.bytes...)
	}
	out = leb128.AppendUint(out, uint64(len(refs)))
	for _, r := range refs {
		out = leb128.AppendInt(out, r)
	}
	return out, nil
}
