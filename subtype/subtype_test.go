package subtype

import (
	"testing"

	"github.com/agrinman/candid/label"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
)

func mustChecker(t *testing.T, env *typeenv.Env, policy OptPolicy) *Checker {
	c, err := NewChecker(env, policy)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestReflexivity(t *testing.T) {
	c := mustChecker(t, typeenv.New(), Silence)
	cases := []*types.Type{
		types.NewNat(), types.NewText(), types.NewOpt(types.NewNat()),
		types.NewVec(types.NewBool()),
	}
	for _, tp := range cases {
		res, err := c.IsSubtype(tp, tp)
		if err != nil {
			t.Fatal(err)
		}
		if res == Fail {
			t.Fatalf("expected %v <: %v to hold reflexively", tp.Kind, tp.Kind)
		}
	}
}

func TestNatSubtypeOfInt(t *testing.T) {
	c := mustChecker(t, typeenv.New(), Silence)
	res, err := c.IsSubtype(types.NewNat(), types.NewInt())
	if err != nil {
		t.Fatal(err)
	}
	if res == Fail {
		t.Fatal("expected nat <: int")
	}
	res, err = c.IsSubtype(types.NewInt(), types.NewNat())
	if err != nil {
		t.Fatal(err)
	}
	if res != Fail {
		t.Fatal("expected int not <: nat")
	}
}

func TestRecordSupersetIsSubtype(t *testing.T) {
	c := mustChecker(t, typeenv.New(), Silence)
	wide, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewText()},
	})
	if err != nil {
		t.Fatal(err)
	}
	narrow, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
	})
	if err != nil {
		t.Fatal(err)
	}
	res, err := c.IsSubtype(wide, narrow)
	if err != nil {
		t.Fatal(err)
	}
	if res == Fail {
		t.Fatal("expected the wider record to be a subtype of the narrower one")
	}
	res, err = c.IsSubtype(narrow, wide)
	if err != nil {
		t.Fatal(err)
	}
	if res != Fail {
		t.Fatal("expected the narrower record not to be a subtype of the wider one")
	}
}

func TestSpecialOptRule(t *testing.T) {
	c := mustChecker(t, typeenv.New(), Silence)
	res, err := c.IsSubtype(types.NewText(), types.NewOpt(types.NewNat()))
	if err != nil {
		t.Fatal(err)
	}
	if res != OptSpecial {
		t.Fatalf("expected OptSpecial for text <: opt nat, got %v", res)
	}

	strict := mustChecker(t, typeenv.New(), Error)
	res, err = strict.IsSubtype(types.NewText(), types.NewOpt(types.NewNat()))
	if err != nil {
		t.Fatal(err)
	}
	if res != Fail {
		t.Fatal("expected Fail under the error opt policy")
	}
}

func TestWrapInSome(t *testing.T) {
	c := mustChecker(t, typeenv.New(), Silence)
	res, err := c.IsSubtype(types.NewNat64(), types.NewOpt(types.NewNat64()))
	if err != nil {
		t.Fatal(err)
	}
	if res != OK {
		t.Fatalf("expected plain OK via wrap-in-some, got %v", res)
	}
}

func TestRecursiveTypeTerminates(t *testing.T) {
	env := typeenv.New()
	list, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewOpt(types.NewVar("list"))},
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := env.Insert("list", list); err != nil {
		t.Fatal(err)
	}
	c := mustChecker(t, env, Silence)
	v1 := types.NewVar("list")
	v2 := types.NewVar("list")
	res, err := c.IsSubtype(v1, v2)
	if err != nil {
		t.Fatal(err)
	}
	if res == Fail {
		t.Fatal("expected a recursive type to be a subtype of itself")
	}
}

func TestFuncContravariantArgsCovariantRets(t *testing.T) {
	c := mustChecker(t, typeenv.New(), Silence)
	// t1 accepts a wider arg (record{a}) than t2's (record{a,b}); since
	// args are contravariant, t2.args <: t1.args must hold: record{a,b} <:
	// record{a} holds, so t1 <: t2.
	wide, _ := types.NewRecord([]types.Field{{Label: label.ID(1), Type: types.NewNat64()}})
	narrow, _ := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewText()},
	})
	t1 := types.NewFunc([]*types.Type{wide}, nil, types.ModeNone)
	t2 := types.NewFunc([]*types.Type{narrow}, nil, types.ModeNone)
	res, err := c.IsSubtype(t1, t2)
	if err != nil {
		t.Fatal(err)
	}
	if res == Fail {
		t.Fatal("expected func subtype via contravariant args")
	}
}
