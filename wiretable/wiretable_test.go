package wiretable

import (
	"testing"

	"github.com/agrinman/candid/label"
	"github.com/agrinman/candid/leb128"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
)

func TestParseVecNat64ArgType(t *testing.T) {
	src := []byte{0x44, 0x49, 0x44, 0x4c, 0x01, 0x6d, 0x78, 0x01, 0x00}
	hdr, consumed, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(src) {
		t.Fatalf("expected to consume all %d bytes, consumed %d", len(src), consumed)
	}
	if len(hdr.ArgTypes) != 1 || hdr.ArgTypes[0].Kind != types.Var {
		t.Fatalf("expected one Var argument type, got %+v", hdr.ArgTypes)
	}
	resolved, err := hdr.Env.Resolve(hdr.ArgTypes[0])
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Kind != types.Vec || resolved.Inner.Kind != types.Nat64 {
		t.Fatalf("expected vec nat64, got kind=%v inner=%v", resolved.Kind, resolved.Inner)
	}
}

func TestBuildPrimitiveArgsNoTableEntries(t *testing.T) {
	b := NewBuilder(nil)
	out, err := b.Build([]*types.Type{types.NewText(), types.NewInt()})
	if err != nil {
		t.Fatal(err)
	}
	if out[0] != 0x00 {
		t.Fatalf("expected zero table entries for two primitive args, got leading byte %x", out[0])
	}
}

func TestBuildDedupsStructurallyEqualRecords(t *testing.T) {
	mkRecord := func() *types.Type {
		r, err := types.NewRecord([]types.Field{{Label: label.ID(1), Type: types.NewNat64()}})
		if err != nil {
			t.Fatal(err)
		}
		return r
	}
	b := NewBuilder(nil)
	out, err := b.Build([]*types.Type{types.NewVec(mkRecord()), types.NewVec(mkRecord())})
	if err != nil {
		t.Fatal(err)
	}
	// Two distinct *types.Type record pointers with identical structure, each
	// wrapped in its own vec, must still collapse to 2 table entries (one
	// record, one vec), not 4.
	n, _, err := leb128.DecodeUint(out)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 deduplicated table entries, got %d", n)
	}
}

func TestRoundTripHeaderRecord(t *testing.T) {
	rec, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewText()},
	})
	if err != nil {
		t.Fatal(err)
	}
	out, err := Write([]*types.Type{rec}, nil)
	if err != nil {
		t.Fatal(err)
	}
	hdr, consumed, err := Parse(out)
	if err != nil {
		t.Fatal(err)
	}
	if consumed != len(out) {
		t.Fatalf("expected full consumption, got %d of %d", consumed, len(out))
	}
	resolved, err := hdr.Env.Resolve(hdr.ArgTypes[0])
	if err != nil {
		t.Fatal(err)
	}
	if resolved.Kind != types.Record || len(resolved.Fields) != 2 {
		t.Fatalf("expected 2-field record, got %+v", resolved)
	}
	if resolved.Fields[0].Label.NumericID() != 1 || resolved.Fields[1].Label.NumericID() != 2 {
		t.Fatalf("fields out of order: %+v", resolved.Fields)
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	if _, _, err := Parse([]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestParseRejectsOutOfOrderFields(t *testing.T) {
	// One record entry (opcode -20 = 0x6c) with two fields emitted as
	// (id=2, nat64) then (id=1, nat8) — out of ascending order — followed
	// by one argument referencing table0.
	src := []byte{
		0x44, 0x49, 0x44, 0x4c, // magic
		0x01,                         // N = 1 table entry
		0x6c, 0x02, 0x02, 0x78, 0x01, 0x7b, // record{2:nat64, 1:nat8}
		0x01, 0x00, // 1 arg, ref table0
	}
	if _, _, err := Parse(src); err == nil {
		t.Fatal("expected error for out-of-order record fields")
	}
}

func TestRecursiveTypeViaVar(t *testing.T) {
	env := typeenv.New()
	selfRef := types.NewVar("list")
	opt, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewOpt(selfRef)},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Insert("list", opt); err != nil {
		t.Fatal(err)
	}
	b := NewBuilder(env)
	out, err := b.Build([]*types.Type{types.NewVar("list")})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("expected non-empty output for recursive type")
	}
}
