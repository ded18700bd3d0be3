package traits

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// Engine validates and transforms trait values against schema entries.
// Every operation is a pure function of its inputs; the engine holds no
// mutable state, so concurrent callers never interfere.
type Engine struct{}

// NewEngine creates a new Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// ValidateRaw checks that a raw candidate is acceptable under the
// entry's data type constraints. A nil entry accepts any value: traits
// outside the schema are settable by literal key, the schema being
// advisory for them.
func (e *Engine) ValidateRaw(entry *entities.TraitSchemaEntry, raw entities.RawValue) error {
	if entry == nil {
		return nil
	}

	// A mapped raw key is already canonical; no further checks apply.
	if _, ok := entry.DataType.ValueMappings().Display(raw); ok {
		return nil
	}

	switch t := entry.DataType.(type) {
	case *entities.StringType:
		// A literal string either packs into the 32 bytes (decodable
		// below) or is the keccak hash of a longer display string. A
		// hash is indistinguishable from arbitrary bytes, so only
		// decodable values can be length-checked here.
		if s, ok := unpackString(raw); ok {
			return checkStringLength(t, s)
		}
		return nil

	case *entities.DecimalType:
		return checkDecimalRange(decodeDecimal(raw, t.Signed), t)

	case *entities.BooleanType:
		if raw.IsZero() || raw == entities.RawValueFromUint64(1) {
			return nil
		}
		return fmt.Errorf("%w: %s is not a canonical boolean encoding or mapped alias",
			entities.ErrInvalidValue, raw.Hex())

	case *entities.EpochSecondsType:
		if _, err := raw.Uint64(); err != nil {
			return fmt.Errorf("epoch seconds: %w", err)
		}
		return nil
	}

	return fmt.Errorf("%w: unhandled data type %q", entities.ErrUnknownDataType, entry.DataType.TypeName())
}

// Normalize transforms a display value into the raw form to store.
// Declared value mappings are consulted first, in the display-to-raw
// direction; a nil display value with no mapping normalizes to the
// unset raw value.
func (e *Engine) Normalize(entry *entities.TraitSchemaEntry, display interface{}) (entities.RawValue, error) {
	if entry == nil {
		return entities.RawValue{}, fmt.Errorf("%w: cannot normalize a display value without a schema entry",
			entities.ErrTraitNotFound)
	}

	if raw, ok := entry.DataType.ValueMappings().Raw(display); ok {
		return raw, nil
	}
	if display == nil {
		return entities.ZeroValue, nil
	}

	switch t := entry.DataType.(type) {
	case *entities.StringType:
		s, ok := display.(string)
		if !ok {
			return entities.RawValue{}, fmt.Errorf("%w: string trait given %T", entities.ErrInvalidValue, display)
		}
		if err := checkStringLength(t, s); err != nil {
			return entities.RawValue{}, err
		}
		if raw, ok := packString(s); ok {
			return raw, nil
		}
		return hashString(s), nil

	case *entities.DecimalType:
		x, err := scaleToInteger(display, t.Decimals)
		if err != nil {
			return entities.RawValue{}, err
		}
		if err := checkDecimalRange(x, t); err != nil {
			return entities.RawValue{}, err
		}
		return entities.RawValueFromBigInt(x)

	case *entities.BooleanType:
		b, ok := display.(bool)
		if !ok {
			return entities.RawValue{}, fmt.Errorf("%w: boolean trait given %T", entities.ErrInvalidValue, display)
		}
		if b {
			return entities.RawValueFromUint64(1), nil
		}
		return entities.ZeroValue, nil

	case *entities.EpochSecondsType:
		x, err := scaleToInteger(display, 0)
		if err != nil {
			return entities.RawValue{}, err
		}
		if x.Sign() < 0 || x.BitLen() > 64 {
			return entities.RawValue{}, fmt.Errorf("%w: epoch seconds must fit in 64 unsigned bits", entities.ErrOverflow)
		}
		return entities.RawValueFromUint64(x.Uint64()), nil
	}

	return entities.RawValue{}, fmt.Errorf("%w: unhandled data type %q", entities.ErrUnknownDataType, entry.DataType.TypeName())
}

// Denormalize transforms a stored raw value back to its display form,
// the inverse of Normalize. Declared value mappings win over type
// decoding; a raw key mapped to null denormalizes to nil, the unset
// marker. A nil entry yields the raw hex form.
func (e *Engine) Denormalize(entry *entities.TraitSchemaEntry, raw entities.RawValue) (interface{}, error) {
	if entry == nil {
		return raw.Hex(), nil
	}

	if display, ok := entry.DataType.ValueMappings().Display(raw); ok {
		return display, nil
	}

	switch t := entry.DataType.(type) {
	case *entities.StringType:
		if s, ok := unpackString(raw); ok {
			return s, nil
		}
		// Hashed literal: the preimage is unknown, display the digest.
		return raw.Hex(), nil

	case *entities.DecimalType:
		return formatDecimal(decodeDecimal(raw, t.Signed), t.Decimals), nil

	case *entities.BooleanType:
		if raw.IsZero() {
			return false, nil
		}
		if raw == entities.RawValueFromUint64(1) {
			return true, nil
		}
		return nil, fmt.Errorf("%w: %s is not a canonical boolean encoding or mapped alias",
			entities.ErrInvalidValue, raw.Hex())

	case *entities.EpochSecondsType:
		seconds, err := raw.Uint64()
		if err != nil {
			return nil, fmt.Errorf("epoch seconds: %w", err)
		}
		return seconds, nil
	}

	return nil, fmt.Errorf("%w: unhandled data type %q", entities.ErrUnknownDataType, entry.DataType.TypeName())
}

func decodeDecimal(raw entities.RawValue, signed bool) *big.Int {
	if signed {
		return raw.SignedBigInt()
	}
	return raw.BigInt()
}

func checkDecimalRange(x *big.Int, t *entities.DecimalType) error {
	if t.Signed {
		// [-2^(bits-1), 2^(bits-1)-1]
		limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits-1))
		max := new(big.Int).Sub(limit, big.NewInt(1))
		min := new(big.Int).Neg(limit)
		if x.Cmp(min) < 0 || x.Cmp(max) > 0 {
			return fmt.Errorf("%w: %s needs more than %d signed bits", entities.ErrOverflow, x, t.Bits)
		}
		return nil
	}
	if x.Sign() < 0 {
		return fmt.Errorf("%w: %s is negative but the trait is unsigned", entities.ErrOverflow, x)
	}
	if x.BitLen() > t.Bits {
		return fmt.Errorf("%w: %s needs %d bits, trait declares %d", entities.ErrOverflow, x, x.BitLen(), t.Bits)
	}
	return nil
}

func checkStringLength(t *entities.StringType, s string) error {
	length := utf8.RuneCountInString(s)
	if length < t.MinLength {
		return fmt.Errorf("%w: length %d below minLength %d", entities.ErrOutOfRange, length, t.MinLength)
	}
	if t.MaxLength > 0 && length > t.MaxLength {
		return fmt.Errorf("%w: length %d above maxLength %d", entities.ErrOutOfRange, length, t.MaxLength)
	}
	return nil
}

// packString encodes a short display string as null-padded literal
// bytes. Strings over 32 bytes, or containing NUL, cannot be packed and
// are stored hashed instead.
func packString(s string) (entities.RawValue, bool) {
	var raw entities.RawValue
	if len(s) > 32 || strings.ContainsRune(s, 0) {
		return raw, false
	}
	copy(raw[:], s)
	return raw, true
}

// unpackString decodes a null-padded literal string. Values with
// interior NUL bytes or invalid UTF-8 are hashed literals, not packed
// strings.
func unpackString(raw entities.RawValue) (string, bool) {
	end := len(raw)
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	body := raw[:end]
	for _, b := range body {
		if b == 0 {
			return "", false
		}
	}
	if !utf8.Valid(body) {
		return "", false
	}
	return string(body), true
}

func hashString(s string) entities.RawValue {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(s))
	var raw entities.RawValue
	copy(raw[:], h.Sum(nil))
	return raw
}

// scaleToInteger converts a display number to the integer stored for a
// decimal trait with the given number of fractional digits.
// "1.5" with decimals=1 stores 15.
func scaleToInteger(display interface{}, decimals int) (*big.Int, error) {
	rat, err := ratFromDisplay(display)
	if err != nil {
		return nil, err
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled := new(big.Rat).Mul(rat, new(big.Rat).SetInt(scale))
	if !scaled.IsInt() {
		return nil, fmt.Errorf("%w: %v has more than %d fractional digits", entities.ErrInvalidValue, display, decimals)
	}
	return new(big.Int).Set(scaled.Num()), nil
}

func ratFromDisplay(display interface{}) (*big.Rat, error) {
	switch x := display.(type) {
	case int:
		return new(big.Rat).SetInt64(int64(x)), nil
	case int64:
		return new(big.Rat).SetInt64(x), nil
	case uint64:
		return new(big.Rat).SetInt(new(big.Int).SetUint64(x)), nil
	case float64:
		rat := new(big.Rat).SetFloat64(x)
		if rat == nil {
			return nil, fmt.Errorf("%w: %v is not a finite number", entities.ErrInvalidValue, x)
		}
		return rat, nil
	case *big.Int:
		return new(big.Rat).SetInt(x), nil
	case string:
		rat, ok := new(big.Rat).SetString(x)
		if !ok {
			return nil, fmt.Errorf("%w: %q is not a number", entities.ErrInvalidValue, x)
		}
		return rat, nil
	}
	return nil, fmt.Errorf("%w: numeric trait given %T", entities.ErrInvalidValue, display)
}

func formatDecimal(x *big.Int, decimals int) string {
	if decimals == 0 {
		return x.String()
	}
	abs := new(big.Int).Abs(x)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	quo, rem := new(big.Int).QuoRem(abs, scale, new(big.Int))

	frac := rem.String()
	for len(frac) < decimals {
		frac = "0" + frac
	}

	out := quo.String() + "." + frac
	if x.Sign() < 0 {
		out = "-" + out
	}
	return out
}
