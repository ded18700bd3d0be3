package entities

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// RawValue is the raw 32-byte value stored for a trait, as the host
// contract persists it. Interpretation depends on the schema entry's
// data type.
type RawValue [32]byte

// ZeroValue is the unset raw value.
var ZeroValue = RawValue{}

// ParseRawValue parses a 0x-prefixed 64-hex-digit string into a RawValue.
func ParseRawValue(s string) (RawValue, error) {
	var v RawValue
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return v, fmt.Errorf("raw value must have 0x prefix: %q", s)
	}
	body := s[2:]
	if len(body) != 64 {
		return v, fmt.Errorf("raw value must be 32 bytes, got %d hex digits", len(body))
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return v, fmt.Errorf("invalid raw value hex: %w", err)
	}
	copy(v[:], raw)
	return v, nil
}

// RawValueFromUint64 encodes v big-endian into the low 8 bytes.
func RawValueFromUint64(v uint64) RawValue {
	var r RawValue
	binary.BigEndian.PutUint64(r[24:], v)
	return r
}

// RawValueFromBigInt encodes x into 32 bytes. Unsigned values are
// big-endian; negative values use 256-bit two's complement.
func RawValueFromBigInt(x *big.Int) (RawValue, error) {
	var r RawValue
	v := new(big.Int).Set(x)
	if v.Sign() < 0 {
		v.Add(v, twoPow256)
	}
	if v.Sign() < 0 || v.BitLen() > 256 {
		return r, fmt.Errorf("%w: %s does not fit in 32 bytes", ErrOverflow, x)
	}
	v.FillBytes(r[:])
	return r, nil
}

// Uint64 decodes the value as an unsigned 64-bit integer.
// Returns ErrOverflow if any of the high 24 bytes are set.
func (v RawValue) Uint64() (uint64, error) {
	for _, b := range v[:24] {
		if b != 0 {
			return 0, fmt.Errorf("%w: value does not fit in 64 bits", ErrOverflow)
		}
	}
	return binary.BigEndian.Uint64(v[24:]), nil
}

// BigInt decodes the value as an unsigned big-endian integer.
func (v RawValue) BigInt() *big.Int {
	return new(big.Int).SetBytes(v[:])
}

// SignedBigInt decodes the value as a 256-bit two's complement integer.
func (v RawValue) SignedBigInt() *big.Int {
	x := new(big.Int).SetBytes(v[:])
	if v[0]&0x80 != 0 {
		x.Sub(x, twoPow256)
	}
	return x
}

// Hex returns the 0x-prefixed lowercase hex form of the value.
func (v RawValue) Hex() string {
	return "0x" + hex.EncodeToString(v[:])
}

// IsZero reports whether the value is all zero bytes.
func (v RawValue) IsZero() bool {
	return v == RawValue{}
}

// String returns the hex form of the value.
func (v RawValue) String() string {
	return v.Hex()
}

var twoPow256 = new(big.Int).Lsh(big.NewInt(1), 256)
