package wiretable

import (
	"fmt"
	"unicode/utf8"

	"github.com/agrinman/candid/label"
	"github.com/agrinman/candid/leb128"
	"github.com/agrinman/candid/status"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
)

func labelFromID(id uint32) label.Label {
	return label.ID(id)
}

func checkFieldOrder(fields []types.Field) error {
	labels := make([]label.Label, len(fields))
	for i, f := range fields {
		labels[i] = f.Label
	}
	return label.CheckAscending(labels)
}

func checkNameOrder(names []string) error {
	return label.CheckNamesAscending(names)
}

// Magic is the four-byte "DIDL" prefix every Candid message begins with.
var Magic = [4]byte{0x44, 0x49, 0x44, 0x4c}

// Write produces the full header prefix of a message: magic, then the
// type table and argument-reference sequence built by a fresh Builder
// over argTypes. Callers append the serialized argument values after this.
func Write(argTypes []*types.Type, env *typeenv.Env) ([]byte, error) {
	b := NewBuilder(env)
	body, err := b.Build(argTypes)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(Magic)+len(body))
	out = append(out, Magic[:]...)
	out = append(out, body...)
	return out, nil
}

// Header is the parsed result of a message's type table: a type
// environment binding every table<i> name, and the resolved argument
// types in order.
type Header struct {
	Env      *typeenv.Env
	ArgTypes []*types.Type
}

func tableName(i int) string {
	return fmt.Sprintf("table%d", i)
}

// resolveRef turns a decoded SLEB128 type reference into a types.Type:
// a non-negative value less than n becomes Var(table<i>); a recognized
// primitive opcode becomes that primitive type; anything else is invalid.
func resolveRef(raw int64, n int) (*types.Type, error) {
	if raw >= 0 {
		if raw >= int64(n) {
			return nil, status.New(status.InvalidArgument, "wiretable: type reference %d out of range (table has %d entries)", raw, n)
		}
		return types.NewVar(tableName(int(raw))), nil
	}
	kind, ok := types.PrimitiveKindForOpcode(types.Opcode(raw))
	if !ok {
		return nil, status.New(status.InvalidArgument, "wiretable: unrecognized type reference %d", raw)
	}
	return types.NewPrimitive(kind)
}

// Parse reads the header (magic, type table, argument types) from the
// front of src and returns the materialized Header plus the number of
// bytes consumed, so the caller (the decode package) can charge quota and
// continue reading the values section immediately after.
func Parse(src []byte) (*Header, int, error) {
	if len(src) < len(Magic) || src[0] != Magic[0] || src[1] != Magic[1] || src[2] != Magic[2] || src[3] != Magic[3] {
		return nil, 0, status.New(status.InvalidArgument, "wiretable: bad magic")
	}
	cursor := len(Magic)

	n, nBytes, err := leb128.DecodeUint(src[cursor:])
	if err != nil {
		return nil, 0, err
	}
	cursor += nBytes

	env := typeenv.New()
	entryTypes := make([]*types.Type, n)
	for i := uint64(0); i < n; i++ {
		t, consumed, err := parseEntry(src[cursor:], int(n))
		if err != nil {
			return nil, 0, err
		}
		cursor += consumed
		entryTypes[i] = t
		if err := env.Insert(tableName(int(i)), t); err != nil {
			return nil, 0, err
		}
	}

	m, mBytes, err := leb128.DecodeUint(src[cursor:])
	if err != nil {
		return nil, 0, err
	}
	cursor += mBytes

	argTypes := make([]*types.Type, m)
	for i := uint64(0); i < m; i++ {
		raw, consumed, err := leb128.DecodeInt(src[cursor:])
		if err != nil {
			return nil, 0, err
		}
		cursor += consumed
		at, err := resolveRef(raw, int(n))
		if err != nil {
			return nil, 0, err
		}
		argTypes[i] = at
	}

	return &Header{Env: env, ArgTypes: argTypes}, cursor, nil
}

// parseEntry parses one type-table entry and returns the materialized
// Type plus bytes consumed. n is the declared table length, needed to
// validate in-range Var references among the entry's own children.
func parseEntry(src []byte, n int) (*types.Type, int, error) {
	op64, opBytes, err := leb128.DecodeInt(src)
	if err != nil {
		return nil, 0, err
	}
	cursor := opBytes
	op := types.Opcode(op64)

	if op < types.ReservedOpcodeBoundary {
		// Forward-compatibility blob entry: skip a ULEB128-prefixed opaque
		// payload and materialize as reserved.
		length, lBytes, err := leb128.DecodeUint(src[cursor:])
		if err != nil {
			return nil, 0, err
		}
		cursor += lBytes
		if uint64(len(src)-cursor) < length {
			return nil, 0, status.New(status.Truncated, "wiretable: forward-compat entry truncated")
		}
		cursor += int(length)
		return types.NewReserved(), cursor, nil
	}

	switch op {
	case types.OpcodeOpt, types.OpcodeVec:
		ref, refBytes, err := leb128.DecodeInt(src[cursor:])
		if err != nil {
			return nil, 0, err
		}
		cursor += refBytes
		inner, err := resolveRef(ref, n)
		if err != nil {
			return nil, 0, err
		}
		if op == types.OpcodeOpt {
			return types.NewOpt(inner), cursor, nil
		}
		return types.NewVec(inner), cursor, nil

	case types.OpcodeRecord, types.OpcodeVariant:
		count, cBytes, err := leb128.DecodeUint(src[cursor:])
		if err != nil {
			return nil, 0, err
		}
		cursor += cBytes
		fields := make([]types.Field, count)
		for i := uint64(0); i < count; i++ {
			id, idBytes, err := leb128.DecodeUint(src[cursor:])
			if err != nil {
				return nil, 0, err
			}
			cursor += idBytes
			ref, refBytes, err := leb128.DecodeInt(src[cursor:])
			if err != nil {
				return nil, 0, err
			}
			cursor += refBytes
			ft, err := resolveRef(ref, n)
			if err != nil {
				return nil, 0, err
			}
			fields[i] = types.Field{Label: labelFromID(uint32(id)), Type: ft}
		}
		if err := checkFieldOrder(fields); err != nil {
			return nil, 0, err
		}
		if op == types.OpcodeRecord {
			return &types.Type{Kind: types.Record, Fields: fields}, cursor, nil
		}
		return &types.Type{Kind: types.Variant, Fields: fields}, cursor, nil

	case types.OpcodeFunc:
		args, n1, err := parseRefList(src[cursor:], n)
		if err != nil {
			return nil, 0, err
		}
		cursor += n1
		rets, n2, err := parseRefList(src[cursor:], n)
		if err != nil {
			return nil, 0, err
		}
		cursor += n2
		modeCount, mBytes, err := leb128.DecodeUint(src[cursor:])
		if err != nil {
			return nil, 0, err
		}
		cursor += mBytes
		if modeCount > 1 {
			return nil, 0, status.New(status.InvalidArgument, "wiretable: func has more than one mode")
		}
		mode := types.ModeNone
		if modeCount == 1 {
			if cursor >= len(src) {
				return nil, 0, status.New(status.Truncated, "wiretable: func mode byte truncated")
			}
			switch src[cursor] {
			case 1:
				mode = types.ModeQuery
			case 2:
				mode = types.ModeOneway
			case 3:
				mode = types.ModeCompositeQuery
			default:
				return nil, 0, status.New(status.InvalidArgument, "wiretable: unknown func mode %d", src[cursor])
			}
			cursor++
		}
		return types.NewFunc(args, rets, mode), cursor, nil

	case types.OpcodeService:
		count, cBytes, err := leb128.DecodeUint(src[cursor:])
		if err != nil {
			return nil, 0, err
		}
		cursor += cBytes
		methods := make([]types.Method, count)
		names := make([]string, count)
		for i := uint64(0); i < count; i++ {
			nameLen, nlBytes, err := leb128.DecodeUint(src[cursor:])
			if err != nil {
				return nil, 0, err
			}
			cursor += nlBytes
			if uint64(len(src)-cursor) < nameLen {
				return nil, 0, status.New(status.Truncated, "wiretable: service method name truncated")
			}
			name := string(src[cursor : cursor+int(nameLen)])
			if !utf8.ValidString(name) {
				return nil, 0, status.New(status.InvalidArgument, "wiretable: service method name is not valid UTF-8")
			}
			cursor += int(nameLen)
			ref, refBytes, err := leb128.DecodeInt(src[cursor:])
			if err != nil {
				return nil, 0, err
			}
			cursor += refBytes
			ft, err := resolveRef(ref, n)
			if err != nil {
				return nil, 0, err
			}
			methods[i] = types.Method{Name: name, Func: ft}
			names[i] = name
		}
		if err := checkNameOrder(names); err != nil {
			return nil, 0, err
		}
		return &types.Type{Kind: types.Service, Methods: methods}, cursor, nil

	default:
		return nil, 0, status.New(status.Unsupported, "wiretable: unknown composite opcode %d", op64)
	}
}

func parseRefList(src []byte, n int) ([]*types.Type, int, error) {
	count, cBytes, err := leb128.DecodeUint(src)
	if err != nil {
		return nil, 0, err
	}
	cursor := cBytes
	out := make([]*types.Type, count)
	for i := uint64(0); i < count; i++ {
		ref, refBytes, err := leb128.DecodeInt(src[cursor:])
		if err != nil {
			return nil, 0, err
		}
		cursor += refBytes
		t, err := resolveRef(ref, n)
		if err != nil {
			return nil, 0, err
		}
		out[i] = t
	}
	return out, cursor, nil
}
