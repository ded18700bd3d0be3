package traits

import (
	"errors"
	"math/big"
	"testing"

	"github.com/mizuhara/dyntraits/internal/entities"
)

func decimalEntry(t *testing.T, bits int, signed bool, decimals int) *entities.TraitSchemaEntry {
	t.Helper()
	return &entities.TraitSchemaEntry{
		Name:                  "points",
		Key:                   entities.TraitKey{1},
		DisplayName:           "Points",
		DataType:              &entities.DecimalType{Bits: bits, Signed: signed, Decimals: decimals},
		ConsumptionValidation: entities.ConsumptionNone,
	}
}

func stringEntry(t *testing.T, min, max int, mappings *entities.ValueMappings) *entities.TraitSchemaEntry {
	t.Helper()
	return &entities.TraitSchemaEntry{
		Name:                  "name",
		Key:                   entities.TraitKey{2},
		DisplayName:           "Name",
		DataType:              &entities.StringType{MinLength: min, MaxLength: max, Mappings: mappings},
		ConsumptionValidation: entities.ConsumptionNone,
	}
}

func TestValidateRawDecimalOverflow(t *testing.T) {
	engine := NewEngine()
	entry := decimalEntry(t, 16, false, 0)

	// 2^16-1 fits in 16 bits; 2^16 needs 17.
	if err := engine.ValidateRaw(entry, entities.RawValueFromUint64(65535)); err != nil {
		t.Errorf("65535 should fit in 16 bits: %v", err)
	}
	err := engine.ValidateRaw(entry, entities.RawValueFromUint64(65536))
	if !errors.Is(err, entities.ErrOverflow) {
		t.Errorf("expected ErrOverflow for 65536 in 16 bits, got %v", err)
	}
}

func TestValidateRawDecimalSigned(t *testing.T) {
	engine := NewEngine()
	entry := decimalEntry(t, 8, true, 0)

	neg, err := entities.RawValueFromBigInt(big.NewInt(-128))
	if err != nil {
		t.Fatalf("RawValueFromBigInt: %v", err)
	}
	if err := engine.ValidateRaw(entry, neg); err != nil {
		t.Errorf("-128 should fit in signed 8 bits: %v", err)
	}

	tooNeg, err := entities.RawValueFromBigInt(big.NewInt(-129))
	if err != nil {
		t.Fatalf("RawValueFromBigInt: %v", err)
	}
	if err := engine.ValidateRaw(entry, tooNeg); !errors.Is(err, entities.ErrOverflow) {
		t.Errorf("expected ErrOverflow for -129 in signed 8 bits, got %v", err)
	}

	if err := engine.ValidateRaw(entry, entities.RawValueFromUint64(128)); !errors.Is(err, entities.ErrOverflow) {
		t.Errorf("expected ErrOverflow for 128 in signed 8 bits, got %v", err)
	}
}

func TestDecimalRoundTrip(t *testing.T) {
	engine := NewEngine()
	entry := decimalEntry(t, 16, false, 0)

	raw, err := engine.Normalize(entry, 1234)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	display, err := engine.Denormalize(entry, raw)
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != "1234" {
		t.Errorf("round trip = %v, want 1234", display)
	}

	back, err := engine.Normalize(entry, display)
	if err != nil {
		t.Fatalf("Normalize(denormalized): %v", err)
	}
	if back != raw {
		t.Errorf("double round trip changed value: %s vs %s", back.Hex(), raw.Hex())
	}
}

func TestDecimalFractionalDigits(t *testing.T) {
	engine := NewEngine()
	entry := decimalEntry(t, 32, true, 2)

	raw, err := engine.Normalize(entry, "1.5")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := raw.BigInt().Int64(); got != 150 {
		t.Errorf("stored integer = %d, want 150", got)
	}

	display, err := engine.Denormalize(entry, raw)
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != "1.50" {
		t.Errorf("display = %v, want 1.50", display)
	}

	negRaw, err := engine.Normalize(entry, "-0.25")
	if err != nil {
		t.Fatalf("Normalize negative: %v", err)
	}
	display, err = engine.Denormalize(entry, negRaw)
	if err != nil {
		t.Fatalf("Denormalize negative: %v", err)
	}
	if display != "-0.25" {
		t.Errorf("display = %v, want -0.25", display)
	}

	if _, err := engine.Normalize(entry, "1.555"); !errors.Is(err, entities.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for excess fractional digits, got %v", err)
	}
}

func TestDecimalMappingWinsOverDecoding(t *testing.T) {
	engine := NewEngine()
	mappings := entities.NewValueMappings()
	if err := mappings.Add(entities.RawValueFromUint64(7), "lucky"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entry := decimalEntry(t, 16, false, 0)
	entry.DataType = &entities.DecimalType{Bits: 16, Mappings: mappings}

	display, err := engine.Denormalize(entry, entities.RawValueFromUint64(7))
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != "lucky" {
		t.Errorf("mapped display = %v, want lucky", display)
	}
}

func TestStringRoundTrip(t *testing.T) {
	engine := NewEngine()
	entry := stringEntry(t, 1, 32, nil)

	raw, err := engine.Normalize(entry, "blue")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	display, err := engine.Denormalize(entry, raw)
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != "blue" {
		t.Errorf("round trip = %v, want blue", display)
	}
}

func TestStringLengthBounds(t *testing.T) {
	engine := NewEngine()
	entry := stringEntry(t, 2, 5, nil)

	if _, err := engine.Normalize(entry, "a"); !errors.Is(err, entities.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange below minLength, got %v", err)
	}
	if _, err := engine.Normalize(entry, "toolong"); !errors.Is(err, entities.ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange above maxLength, got %v", err)
	}
	if _, err := engine.Normalize(entry, "ok"); err != nil {
		t.Errorf("length 2 should pass: %v", err)
	}
}

func TestStringLongValueHashes(t *testing.T) {
	engine := NewEngine()
	entry := stringEntry(t, 0, 100, nil)
	long := "this display string is much longer than thirty-two bytes"

	raw, err := engine.Normalize(entry, long)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if raw != hashString(long) {
		t.Error("long strings should store their keccak hash")
	}

	// The preimage is unknown at read time; display falls back to hex.
	display, err := engine.Denormalize(entry, raw)
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != raw.Hex() {
		t.Errorf("display = %v, want %s", display, raw.Hex())
	}
}

func TestStringMappedValueSkipsLengthCheck(t *testing.T) {
	// Mapped raw keys are already canonical; bounds apply to literals only.
	engine := NewEngine()
	mappings := entities.NewValueMappings()
	if err := mappings.Add(entities.RawValueFromUint64(1), "x"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entry := stringEntry(t, 3, 10, mappings)

	if err := engine.ValidateRaw(entry, entities.RawValueFromUint64(1)); err != nil {
		t.Errorf("mapped raw key should validate: %v", err)
	}

	raw, err := engine.Normalize(entry, "x")
	if err != nil {
		t.Fatalf("Normalize mapped display: %v", err)
	}
	if raw != entities.RawValueFromUint64(1) {
		t.Errorf("mapped display normalized to %s", raw.Hex())
	}
}

func TestNullMappingDenormalizesToUnset(t *testing.T) {
	engine := NewEngine()
	mappings := entities.NewValueMappings()
	if err := mappings.Add(entities.ZeroValue, nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entry := &entities.TraitSchemaEntry{
		Name:        "expiration",
		Key:         entities.TraitKey{3},
		DisplayName: "Expiration",
		DataType:    &entities.EpochSecondsType{Mappings: mappings},
	}

	display, err := engine.Denormalize(entry, entities.ZeroValue)
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != nil {
		t.Errorf("zero raw value should denormalize to the unset marker, got %v", display)
	}

	// Unmapped values still decode numerically.
	display, err = engine.Denormalize(entry, entities.RawValueFromUint64(1700000000))
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != uint64(1700000000) {
		t.Errorf("display = %v, want 1700000000", display)
	}
}

func TestBooleanValues(t *testing.T) {
	engine := NewEngine()
	entry := &entities.TraitSchemaEntry{
		Name:        "redeemed",
		Key:         entities.TraitKey{4},
		DisplayName: "Redeemed",
		DataType:    &entities.BooleanType{},
	}

	raw, err := engine.Normalize(entry, true)
	if err != nil {
		t.Fatalf("Normalize(true): %v", err)
	}
	display, err := engine.Denormalize(entry, raw)
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != true {
		t.Errorf("round trip = %v, want true", display)
	}

	if err := engine.ValidateRaw(entry, entities.RawValueFromUint64(2)); !errors.Is(err, entities.ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for non-canonical boolean, got %v", err)
	}
}

func TestEpochSecondsOverflow(t *testing.T) {
	engine := NewEngine()
	entry := &entities.TraitSchemaEntry{
		Name:        "expiration",
		Key:         entities.TraitKey{5},
		DisplayName: "Expiration",
		DataType:    &entities.EpochSecondsType{},
	}

	var wide entities.RawValue
	wide[0] = 1
	if err := engine.ValidateRaw(entry, wide); !errors.Is(err, entities.ErrOverflow) {
		t.Errorf("expected ErrOverflow for >64-bit epoch value, got %v", err)
	}
}

func TestNilEntryIsAdvisory(t *testing.T) {
	engine := NewEngine()

	// Undeclared literal keys accept any raw value.
	if err := engine.ValidateRaw(nil, entities.RawValueFromUint64(99)); err != nil {
		t.Errorf("nil entry should accept raw values: %v", err)
	}

	// But display values cannot be normalized without type information.
	if _, err := engine.Normalize(nil, "blue"); !errors.Is(err, entities.ErrTraitNotFound) {
		t.Errorf("expected ErrTraitNotFound, got %v", err)
	}

	display, err := engine.Denormalize(nil, entities.RawValueFromUint64(1))
	if err != nil {
		t.Fatalf("Denormalize: %v", err)
	}
	if display != entities.RawValueFromUint64(1).Hex() {
		t.Errorf("nil entry display = %v, want raw hex", display)
	}
}
