package entities

import (
	"fmt"
	"time"
)

// ConsumptionPolicy tells a marketplace how to re-check a trait's value
// against its state at offer time before finalizing a sale.
type ConsumptionPolicy string

const (
	ConsumptionNone           ConsumptionPolicy = "none"
	ConsumptionRequireEq      ConsumptionPolicy = "requireEq"
	ConsumptionRequireUintGte ConsumptionPolicy = "requireUintGte"
	ConsumptionRequireUintLte ConsumptionPolicy = "requireUintLte"
)

// Valid reports whether p is one of the recognized policies.
func (p ConsumptionPolicy) Valid() bool {
	switch p {
	case ConsumptionNone, ConsumptionRequireEq, ConsumptionRequireUintGte, ConsumptionRequireUintLte:
		return true
	}
	return false
}

// TraitSchemaEntry is one trait declaration from the metadata document.
// Entries are immutable once the schema is loaded; a metadata update
// replaces the whole schema, never a single entry.
type TraitSchemaEntry struct {
	Name                  string // trait name as authored in the document
	Key                   TraitKey
	DisplayName           string
	DataType              DataType
	TokenOwnerCanUpdate   bool
	ConsumptionValidation ConsumptionPolicy
}

// Validate checks entry-level invariants that do not depend on the rest
// of the schema.
func (e *TraitSchemaEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("trait name is required")
	}
	if e.DisplayName == "" {
		return fmt.Errorf("trait %q: display name is required", e.Name)
	}
	if e.DataType == nil {
		return fmt.Errorf("trait %q: data type is required", e.Name)
	}
	if !e.ConsumptionValidation.Valid() {
		return fmt.Errorf("trait %q: unknown consumption validation policy %q", e.Name, e.ConsumptionValidation)
	}
	return e.DataType.ValidateConstraints()
}

// TraitSchema is the loaded form of one contract's trait metadata
// document: the forward key lookup plus the reverse name lookup.
// Loading is all-or-nothing; a TraitSchema is never partially built.
type TraitSchema struct {
	ContractID string
	URI        string
	Version    string
	Entries    map[TraitKey]*TraitSchemaEntry
	Names      map[string]TraitKey
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Entry returns the schema entry for a trait key, or nil when the key is
// not declared. Undeclared literal keys are still settable; the schema
// is advisory for them.
func (s *TraitSchema) Entry(key TraitKey) *TraitSchemaEntry {
	if s == nil {
		return nil
	}
	return s.Entries[key]
}

// KeyForName returns the trait key a declared name resolves to.
func (s *TraitSchema) KeyForName(name string) (TraitKey, bool) {
	if s == nil {
		return TraitKey{}, false
	}
	k, ok := s.Names[name]
	return k, ok
}

// Len returns the number of declared traits.
func (s *TraitSchema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}
