package entities

import (
	"fmt"
	"time"
)

// Trait is one stored trait record: contract "0xabc..", token 7 has
// trait key K with raw value V. The repository layer owns persistence;
// the value engine only validates what gets stored here.
type Trait struct {
	ContractID string
	TokenID    uint64
	Key        TraitKey
	Value      RawValue
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// String returns a string representation of the record.
// Format: contract_id/token_id.key = value
func (t *Trait) String() string {
	return fmt.Sprintf("%s/%d.%s = %s", t.ContractID, t.TokenID, t.Key.Hex(), t.Value.Hex())
}

// Validate checks if the record is well formed.
func (t *Trait) Validate() error {
	if t.ContractID == "" {
		return fmt.Errorf("contract ID is required")
	}
	if t.Key.IsZero() {
		return fmt.Errorf("trait key is required")
	}
	return nil
}
