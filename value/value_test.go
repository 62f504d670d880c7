package value

import (
	"testing"

	"github.com/agrinman/candid/label"
)

func TestEqualPrimitives(t *testing.T) {
	if !Equal(NewNat64(42), NewNat64(42)) {
		t.Fatal("equal nat64 values must compare equal")
	}
	if Equal(NewNat64(42), NewNat64(43)) {
		t.Fatal("distinct nat64 values must not compare equal")
	}
	if !Equal(NewText("hello"), NewText("hello")) {
		t.Fatal("equal text values must compare equal")
	}
}

func TestEqualBlobAndVecNat8(t *testing.T) {
	blob := NewBlob([]byte{10, 20, 30})
	elemwise := NewVec([]*Value{NewNat8(10), NewNat8(20), NewNat8(30)})
	if !Equal(blob, elemwise) || !Equal(elemwise, blob) {
		t.Fatal("a blob and an element-wise vec nat8 with the same bytes must be equal")
	}
	// Blob carries raw bytes, not per-element Values; AsBytes recovers the
	// byte run, which must match the element-wise values one by one.
	bb, ok := AsBytes(blob)
	if !ok {
		t.Fatal("expected blob to expose AsBytes")
	}
	if len(bb) != len(elemwise.Elems) {
		t.Fatalf("length mismatch: %d vs %d", len(bb), len(elemwise.Elems))
	}
	for i, e := range elemwise.Elems {
		if uint8(bb[i]) != e.Nat8 {
			t.Fatalf("byte %d mismatch: %d vs %d", i, bb[i], e.Nat8)
		}
	}
}

func TestEqualOpt(t *testing.T) {
	if !Equal(AbsentOpt(), AbsentOpt()) {
		t.Fatal("two absent opts must be equal")
	}
	if Equal(AbsentOpt(), PresentOpt(NewNat8(1))) {
		t.Fatal("absent must not equal present")
	}
	if !Equal(PresentOpt(NewNat8(1)), PresentOpt(NewNat8(1))) {
		t.Fatal("present opts with equal inner must be equal")
	}
}

func TestEqualRecordOrderSensitive(t *testing.T) {
	a := NewRecord([]Field{
		{Label: label.ID(1), Value: NewNat64(1)},
		{Label: label.ID(2), Value: NewText("x")},
	})
	b := NewRecord([]Field{
		{Label: label.ID(1), Value: NewNat64(1)},
		{Label: label.ID(2), Value: NewText("x")},
	})
	if !Equal(a, b) {
		t.Fatal("structurally identical records must be equal")
	}
	c := NewRecord([]Field{
		{Label: label.ID(1), Value: NewNat64(1)},
		{Label: label.ID(2), Value: NewText("y")},
	})
	if Equal(a, c) {
		t.Fatal("records with differing field values must not be equal")
	}
}

func TestEqualVariant(t *testing.T) {
	a := NewVariant(0, label.ID(1), NewNat64(5))
	b := NewVariant(0, label.ID(1), NewNat64(5))
	if !Equal(a, b) {
		t.Fatal("variants with same label and payload must be equal")
	}
	c := NewVariant(1, label.ID(2), NewNat64(5))
	if Equal(a, c) {
		t.Fatal("variants with different labels must not be equal")
	}
}

func TestEqualBignumRawBytes(t *testing.T) {
	a := NewNat([]byte{0x2a})
	b := NewNat([]byte{0x2a})
	if !Equal(a, b) {
		t.Fatal("bignums with identical raw bytes must be equal")
	}
	c := NewNat([]byte{0x2b})
	if Equal(a, c) {
		t.Fatal("bignums with different raw bytes must not be equal")
	}
}
