package entities

import "fmt"

// DefaultMaxLength is the string length bound applied when a string
// trait declares no maxLength. The source format leaves the bound
// implementation-chosen; this implementation fixes it at 256.
const DefaultMaxLength = 256

// DefaultBits is the width applied when a decimal trait declares no bits.
const DefaultBits = 256

// DataType is the closed set of trait value types: String, Decimal,
// Boolean, EpochSeconds. Each variant carries its own constraints and
// an optional value-mapping table.
type DataType interface {
	// TypeName returns the document-level type tag.
	TypeName() string

	// ValueMappings returns the entry's alias table, or nil.
	ValueMappings() *ValueMappings

	// ValidateConstraints checks the variant's type-specific invariants.
	ValidateConstraints() error

	isDataType()
}

// StringType describes a string trait with display-length bounds.
type StringType struct {
	MinLength int
	MaxLength int
	Mappings  *ValueMappings
}

// DecimalType describes a fixed-point integer trait.
type DecimalType struct {
	Signed   bool
	Bits     int // magnitude bound in bits, 1..256
	Decimals int // fractional digits shown on display
	Mappings *ValueMappings
}

// BooleanType describes a boolean trait.
type BooleanType struct {
	Mappings *ValueMappings
}

// EpochSecondsType describes a timestamp trait stored as unsigned
// seconds since epoch.
type EpochSecondsType struct {
	Mappings *ValueMappings
}

func (t *StringType) TypeName() string       { return "string" }
func (t *DecimalType) TypeName() string      { return "decimal" }
func (t *BooleanType) TypeName() string      { return "boolean" }
func (t *EpochSecondsType) TypeName() string { return "epochSeconds" }

func (t *StringType) ValueMappings() *ValueMappings       { return t.Mappings }
func (t *DecimalType) ValueMappings() *ValueMappings      { return t.Mappings }
func (t *BooleanType) ValueMappings() *ValueMappings      { return t.Mappings }
func (t *EpochSecondsType) ValueMappings() *ValueMappings { return t.Mappings }

// ValidateConstraints checks minLength/maxLength ordering and bounds.
func (t *StringType) ValidateConstraints() error {
	if t.MinLength < 0 {
		return fmt.Errorf("%w: minLength must not be negative, got %d", ErrInvalidConstraint, t.MinLength)
	}
	if t.MaxLength < 0 {
		return fmt.Errorf("%w: maxLength must not be negative, got %d", ErrInvalidConstraint, t.MaxLength)
	}
	if t.MaxLength > 0 && t.MinLength > t.MaxLength {
		return fmt.Errorf("%w: minLength %d exceeds maxLength %d", ErrInvalidConstraint, t.MinLength, t.MaxLength)
	}
	return nil
}

// ValidateConstraints checks bits is in 1..256 and decimals <= bits.
func (t *DecimalType) ValidateConstraints() error {
	if t.Bits < 1 || t.Bits > 256 {
		return fmt.Errorf("%w: bits must be in 1..256, got %d", ErrInvalidConstraint, t.Bits)
	}
	if t.Decimals < 0 {
		return fmt.Errorf("%w: decimals must not be negative, got %d", ErrInvalidConstraint, t.Decimals)
	}
	if t.Decimals > t.Bits {
		return fmt.Errorf("%w: decimals %d exceeds bits %d", ErrInvalidConstraint, t.Decimals, t.Bits)
	}
	return nil
}

// ValidateConstraints checks mapped display values are boolean or null.
func (t *BooleanType) ValidateConstraints() error {
	if t.Mappings == nil {
		return nil
	}
	for _, display := range t.Mappings.DisplayValues() {
		if display == nil {
			continue
		}
		if _, ok := display.(bool); !ok {
			return fmt.Errorf("%w: boolean mapping must map to a boolean or null, got %T", ErrInvalidConstraint, display)
		}
	}
	return nil
}

// ValidateConstraints has nothing to check beyond mapping uniqueness,
// which ValueMappings enforces on construction.
func (t *EpochSecondsType) ValidateConstraints() error {
	return nil
}

func (t *StringType) isDataType()       {}
func (t *DecimalType) isDataType()      {}
func (t *BooleanType) isDataType()      {}
func (t *EpochSecondsType) isDataType() {}
