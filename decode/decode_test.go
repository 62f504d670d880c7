package decode

import (
	"testing"

	"github.com/agrinman/candid/value"
)

func TestDecodeTextAndIntArgs(t *testing.T) {
	src := []byte{
		0x44, 0x49, 0x44, 0x4c, 0x00, 0x02, 0x71, 0x7c,
		0x05, 0x68, 0x65, 0x6c, 0x6c, 0x6f, 0x2a,
	}
	d, err := NewDecoder(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	text, err := d.GetValue()
	if err != nil {
		t.Fatal(err)
	}
	if text.Text != "hello" {
		t.Fatalf("expected text %q, got %q", "hello", text.Text)
	}
	i, err := d.GetValue()
	if err != nil {
		t.Fatal(err)
	}
	if len(i.Bignum) != 1 || i.Bignum[0] != 0x2a {
		t.Fatalf("expected raw int bytes [0x2a], got % x", i.Bignum)
	}
	if err := d.Done(); err != nil {
		t.Fatalf("expected done, got %v", err)
	}
}

func TestDecodeVecNat8AsBlob(t *testing.T) {
	src := []byte{
		0x44, 0x49, 0x44, 0x4c, 0x01, 0x6d, 0x7b, 0x01, 0x00,
		0x03, 0x0a, 0x14, 0x1e,
	}
	d, err := NewDecoder(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	v, err := d.GetValue()
	if err != nil {
		t.Fatal(err)
	}
	bb, ok := value.AsBytes(v)
	if !ok {
		t.Fatal("expected a blob-shaped value")
	}
	want := []byte{10, 20, 30}
	for i := range want {
		if bb[i] != want[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, bb[i], want[i])
		}
	}
}

func TestNewDecoderRejectsTinyQuota(t *testing.T) {
	src := []byte{0x44, 0x49, 0x44, 0x4c, 0x00, 0x02, 0x71, 0x7c}
	if _, err := NewDecoder(src, 1); err == nil {
		t.Fatal("expected overflow with a decoding_quota of 1")
	}
	if _, err := NewDecoder(src, 1000); err != nil {
		t.Fatalf("expected success with a generous quota, got %v", err)
	}
}

func TestTrailingByteDetection(t *testing.T) {
	src := []byte{0x44, 0x49, 0x44, 0x4c, 0x00, 0x00, 0xff}
	d, err := NewDecoder(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Done(); err == nil {
		t.Fatal("expected trailing byte to be detected")
	}
}

func TestBoolRejectsNonBinaryByte(t *testing.T) {
	src := []byte{0x44, 0x49, 0x44, 0x4c, 0x00, 0x01, 0x7e, 0x02}
	d, err := NewDecoder(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetValue(); err == nil {
		t.Fatal("expected error decoding bool byte value 2")
	}
}

func TestVariantIndexOutOfRange(t *testing.T) {
	// type table: variant{0: nat} (opcode -21 = 0x6b), one field id 0 -> nat(-3=0x7d)
	src := []byte{
		0x44, 0x49, 0x44, 0x4c,
		0x01, 0x6b, 0x01, 0x00, 0x7d,
		0x01, 0x00,
		0x05, // variant index 5, out of range
	}
	d, err := NewDecoder(src, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetValue(); err == nil {
		t.Fatal("expected error for out-of-range variant index")
	}
}
