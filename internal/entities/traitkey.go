package entities

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// TraitKey is the canonical 32-byte identifier of a trait.
// It is either a literal key (the trait name parses as a 0x-prefixed
// 32-byte hex string) or the keccak256 hash of the trait name.
type TraitKey [32]byte

// ParseTraitKey parses a 0x-prefixed 64-hex-digit string into a TraitKey.
func ParseTraitKey(s string) (TraitKey, error) {
	var k TraitKey
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return k, fmt.Errorf("trait key must have 0x prefix: %q", s)
	}
	body := s[2:]
	if len(body) != 64 {
		return k, fmt.Errorf("trait key must be 32 bytes, got %d hex digits", len(body))
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return k, fmt.Errorf("invalid trait key hex: %w", err)
	}
	copy(k[:], raw)
	return k, nil
}

// IsLiteralKey reports whether s is a well-formed 0x-prefixed 32-byte
// hex string, i.e. a literal trait key rather than a name to be hashed.
func IsLiteralKey(s string) bool {
	_, err := ParseTraitKey(s)
	return err == nil
}

// Hex returns the 0x-prefixed lowercase hex form of the key.
func (k TraitKey) Hex() string {
	return "0x" + hex.EncodeToString(k[:])
}

// IsZero reports whether the key is all zero bytes.
func (k TraitKey) IsZero() bool {
	return k == TraitKey{}
}

// String returns the hex form of the key.
func (k TraitKey) String() string {
	return k.Hex()
}
