package schema

import (
	"fmt"
	"sort"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// LoadSchema parses and validates a trait metadata document, producing
// an immutable TraitSchema. Loading is atomic: any error rejects the
// whole document and no schema is produced.
//
// Load-time checks:
//   - every derived key is unique (literal keys must not equal the hash
//     of any other entry's name, and no two names may hash alike)
//   - every displayName is unique across the document
//   - every dataType.type is one of the recognized variants
//   - type-specific constraints hold, including mapping uniqueness
func LoadSchema(data []byte) (*entities.TraitSchema, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	return buildSchema(doc)
}

func buildSchema(doc *Document) (*entities.TraitSchema, error) {
	// Iterate in name order so a bad document fails the same way every
	// load.
	names := make([]string, 0, len(doc.Traits))
	for name := range doc.Traits {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make(map[entities.TraitKey]*entities.TraitSchemaEntry, len(names))
	keys := make(map[string]entities.TraitKey, len(names))
	displayNames := make(map[string]string, len(names))
	keyOwner := make(map[entities.TraitKey]string, len(names))

	for _, name := range names {
		desc := doc.Traits[name]
		if desc == nil {
			return nil, fmt.Errorf("%w: trait %q has no descriptor", entities.ErrInvalidDocument, name)
		}

		entry, err := buildEntry(name, desc)
		if err != nil {
			return nil, err
		}

		if other, exists := keyOwner[entry.Key]; exists {
			return nil, fmt.Errorf("%w: traits %q and %q derive the same key %s",
				entities.ErrKeyCollision, other, name, entry.Key.Hex())
		}
		keyOwner[entry.Key] = name

		if other, exists := displayNames[entry.DisplayName]; exists {
			return nil, fmt.Errorf("%w: %q used by traits %q and %q",
				entities.ErrDisplayNameCollision, entry.DisplayName, other, name)
		}
		displayNames[entry.DisplayName] = name

		entries[entry.Key] = entry
		keys[name] = entry.Key
	}

	return &entities.TraitSchema{
		Entries: entries,
		Names:   keys,
	}, nil
}

func buildEntry(name string, desc *Descriptor) (*entities.TraitSchemaEntry, error) {
	key, err := ResolveKey(name)
	if err != nil {
		return nil, fmt.Errorf("%w: trait %q: %v", entities.ErrInvalidDocument, name, err)
	}

	if desc.DisplayName == "" {
		return nil, fmt.Errorf("%w: trait %q has no displayName", entities.ErrInvalidDocument, name)
	}
	if desc.DataType == nil {
		return nil, fmt.Errorf("%w: trait %q has no dataType", entities.ErrInvalidDocument, name)
	}

	dataType, err := buildDataType(name, desc.DataType)
	if err != nil {
		return nil, err
	}

	policy := entities.ConsumptionPolicy(desc.ConsumptionValidationOnSale)
	if desc.ConsumptionValidationOnSale == "" {
		policy = entities.ConsumptionNone
	}
	if !policy.Valid() {
		return nil, fmt.Errorf("%w: trait %q: unknown consumptionValidationOnSale %q",
			entities.ErrInvalidConstraint, name, desc.ConsumptionValidationOnSale)
	}

	entry := &entities.TraitSchemaEntry{
		Name:                  name,
		Key:                   key,
		DisplayName:           desc.DisplayName,
		DataType:              dataType,
		TokenOwnerCanUpdate:   desc.TokenOwnerCanUpdateValue,
		ConsumptionValidation: policy,
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("trait %q: %w", name, err)
	}

	return entry, nil
}

func buildDataType(name string, doc *DataTypeDoc) (entities.DataType, error) {
	mappings, err := buildMappings(name, doc.ValueMappings)
	if err != nil {
		return nil, err
	}

	switch doc.Type {
	case "string":
		t := &entities.StringType{
			MinLength: 0,
			MaxLength: entities.DefaultMaxLength,
			Mappings:  mappings,
		}
		if doc.MinLength != nil {
			t.MinLength = *doc.MinLength
		}
		if doc.MaxLength != nil {
			t.MaxLength = *doc.MaxLength
		}
		return t, nil

	case "decimal":
		t := &entities.DecimalType{
			Bits:     entities.DefaultBits,
			Mappings: mappings,
		}
		if doc.Signed != nil {
			t.Signed = *doc.Signed
		}
		if doc.Bits != nil {
			t.Bits = *doc.Bits
		}
		if doc.Decimals != nil {
			t.Decimals = *doc.Decimals
		}
		return t, nil

	case "boolean":
		return &entities.BooleanType{Mappings: mappings}, nil

	case "epochSeconds":
		return &entities.EpochSecondsType{Mappings: mappings}, nil

	default:
		return nil, fmt.Errorf("%w: trait %q declares %q", entities.ErrUnknownDataType, name, doc.Type)
	}
}

func buildMappings(name string, raw map[string]interface{}) (*entities.ValueMappings, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	// Insertion order must be deterministic for DisplayValues.
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	mappings := entities.NewValueMappings()
	for _, k := range keys {
		rawValue, err := parseRawKey(k)
		if err != nil {
			return nil, fmt.Errorf("%w: trait %q: %v", entities.ErrInvalidConstraint, name, err)
		}
		if err := mappings.Add(rawValue, raw[k]); err != nil {
			return nil, fmt.Errorf("%w: trait %q: %v", entities.ErrInvalidConstraint, name, err)
		}
	}
	return mappings, nil
}
