package schema

import (
	"strings"
	"testing"
)

func TestResolveKeyLiteral(t *testing.T) {
	literal := "0x" + strings.Repeat("ab", 32)
	key, err := ResolveKey(literal)
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if key.Hex() != literal {
		t.Errorf("literal key changed during resolution: %s", key.Hex())
	}
}

func TestResolveKeyHashed(t *testing.T) {
	key, err := ResolveKey("points")
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if key != DeriveKey("points") {
		t.Error("hashed resolution must match independent derivation")
	}
	if key.IsZero() {
		t.Error("derived key should not be zero")
	}
}

func TestResolveKeyDeterministic(t *testing.T) {
	a, err := ResolveKey("redeemed")
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	b, err := ResolveKey("redeemed")
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if a != b {
		t.Errorf("resolution is not deterministic: %s vs %s", a.Hex(), b.Hex())
	}

	c, err := ResolveKey("Redeemed")
	if err != nil {
		t.Fatalf("ResolveKey: %v", err)
	}
	if a == c {
		t.Error("distinct names should derive distinct keys")
	}
}

func TestResolveKeyEmpty(t *testing.T) {
	if _, err := ResolveKey(""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestDeriveKeyKnownVector(t *testing.T) {
	// keccak256("") is the canonical empty-input digest.
	got := DeriveKey("")
	want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got.Hex() != want {
		t.Errorf("DeriveKey(\"\") = %s, want %s", got.Hex(), want)
	}
}
