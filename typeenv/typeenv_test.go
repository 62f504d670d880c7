package typeenv

import (
	"testing"

	"github.com/agrinman/candid/types"
)

func TestInsertSameNameSameTypeSucceeds(t *testing.T) {
	e := New()
	nat := types.NewNat()
	if err := e.Insert("table0", nat); err != nil {
		t.Fatal(err)
	}
	if err := e.Insert("table0", nat); err != nil {
		t.Fatalf("re-inserting the identical type must succeed: %v", err)
	}
}

func TestInsertSameNameDifferentTypeFails(t *testing.T) {
	e := New()
	if err := e.Insert("table0", types.NewNat()); err != nil {
		t.Fatal(err)
	}
	if err := e.Insert("table0", types.NewText()); err == nil {
		t.Fatal("expected error rebinding a name to a different type")
	}
}

func TestResolveFollowsChain(t *testing.T) {
	e := New()
	leaf := types.NewNat64()
	if err := e.Insert("table0", leaf); err != nil {
		t.Fatal(err)
	}
	if err := e.Insert("table1", types.NewVar("table0")); err != nil {
		t.Fatal(err)
	}
	resolved, err := e.Resolve(types.NewVar("table1"))
	if err != nil {
		t.Fatal(err)
	}
	if resolved != leaf {
		t.Fatalf("expected to resolve to the leaf nat64 type, got %v", resolved.Kind)
	}
}

func TestResolveNonVarIsIdentity(t *testing.T) {
	e := New()
	text := types.NewText()
	resolved, err := e.Resolve(text)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != text {
		t.Fatal("resolving a non-Var type must return it unchanged")
	}
}

func TestResolveUnboundNameFails(t *testing.T) {
	e := New()
	if _, err := e.Resolve(types.NewVar("nope")); err == nil {
		t.Fatal("expected error resolving an unbound var")
	}
}
