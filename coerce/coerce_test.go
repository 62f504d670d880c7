package coerce

import (
	"testing"

	"github.com/agrinman/candid/label"
	"github.com/agrinman/candid/typeenv"
	"github.com/agrinman/candid/types"
	"github.com/agrinman/candid/value"
)

func newCoercer(t *testing.T) *Coercer {
	return NewCoercer(typeenv.New(), Silence, nil)
}

func TestRecordCoercionDropsWireOnlyField(t *testing.T) {
	wire, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewText()},
	})
	if err != nil {
		t.Fatal(err)
	}
	expected, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
	})
	if err != nil {
		t.Fatal(err)
	}
	wireValue := value.NewRecord([]value.Field{
		{Label: label.ID(1), Value: value.NewNat64(42)},
		{Label: label.ID(2), Value: value.NewText("hello")},
	})

	c := newCoercer(t)
	out, err := c.Coerce(wire, expected, wireValue)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Fields) != 1 || out.Fields[0].Value.Nat64 != 42 {
		t.Fatalf("expected {a=42}, got %+v", out.Fields)
	}
}

func TestRecordCoercionDefaultsMissingOptionalField(t *testing.T) {
	wire, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewText()},
	})
	if err != nil {
		t.Fatal(err)
	}
	expected, err := types.NewRecord([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(3), Type: types.NewOpt(types.NewText())},
	})
	if err != nil {
		t.Fatal(err)
	}
	wireValue := value.NewRecord([]value.Field{
		{Label: label.ID(1), Value: value.NewNat64(42)},
		{Label: label.ID(2), Value: value.NewText("hello")},
	})

	c := newCoercer(t)
	out, err := c.Coerce(wire, expected, wireValue)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %+v", out.Fields)
	}
	if out.Fields[1].Value.Present {
		t.Fatalf("expected c to be absent, got %+v", out.Fields[1].Value)
	}
}

func TestSpecialOptRuleAlwaysDefined(t *testing.T) {
	c := newCoercer(t)
	out, err := c.Coerce(types.NewText(), types.NewOpt(types.NewNat()), value.NewText("x"))
	if err != nil {
		t.Fatalf("special opt rule must never fail under silence policy: %v", err)
	}
	if out.Present {
		t.Fatalf("expected absent via special opt rule, got %+v", out)
	}
}

func TestSpecialOptRuleErrorsUnderErrorPolicy(t *testing.T) {
	c := NewCoercer(typeenv.New(), Error, nil)
	if _, err := c.Coerce(types.NewText(), types.NewOpt(types.NewNat()), value.NewText("x")); err == nil {
		t.Fatal("expected error under the error opt policy")
	}
}

func TestNatToIntCoercion(t *testing.T) {
	c := newCoercer(t)
	out, err := c.Coerce(types.NewNat(), types.NewInt(), value.NewNat([]byte{0x2a}))
	if err != nil {
		t.Fatal(err)
	}
	if out.Kind != types.Int {
		t.Fatalf("expected Int kind, got %v", out.Kind)
	}
}

func TestVariantCoercion(t *testing.T) {
	wire, err := types.NewVariant([]types.Field{
		{Label: label.ID(1), Type: types.NewNat64()},
		{Label: label.ID(2), Type: types.NewText()},
	})
	if err != nil {
		t.Fatal(err)
	}
	expected, err := types.NewVariant([]types.Field{
		{Label: label.ID(2), Type: types.NewText()},
		{Label: label.ID(1), Type: types.NewNat64()},
	})
	if err != nil {
		t.Fatal(err)
	}
	wireValue := value.NewVariant(1, label.ID(2), value.NewText("hi"))
	c := newCoercer(t)
	out, err := c.Coerce(wire, expected, wireValue)
	if err != nil {
		t.Fatal(err)
	}
	if !out.VariantLabel.Equal(label.ID(2)) || out.VariantValue.Text != "hi" {
		t.Fatalf("unexpected coerced variant: %+v", out)
	}
}
