package schema

import (
	"fmt"

	"golang.org/x/crypto/sha3"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// ResolveKey maps a trait name or literal key to its canonical TraitKey.
// A well-formed 0x-prefixed 32-byte hex string is the key itself; any
// other string derives its key as keccak256 of the UTF-8 bytes. Literal
// keys are valid even when absent from a schema, since a schema is
// advisory.
func ResolveKey(nameOrKey string) (entities.TraitKey, error) {
	if nameOrKey == "" {
		return entities.TraitKey{}, fmt.Errorf("trait name is required")
	}
	if entities.IsLiteralKey(nameOrKey) {
		return entities.ParseTraitKey(nameOrKey)
	}
	return DeriveKey(nameOrKey), nil
}

// DeriveKey returns the keccak256 hash of a trait name.
func DeriveKey(name string) entities.TraitKey {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(name))
	var k entities.TraitKey
	copy(k[:], h.Sum(nil))
	return k
}
