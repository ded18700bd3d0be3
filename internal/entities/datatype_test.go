package entities

import (
	"errors"
	"testing"
)

func TestDecimalTypeValidateConstraints(t *testing.T) {
	tests := []struct {
		name    string
		typ     *DecimalType
		wantErr bool
	}{
		{
			name: "valid unsigned 16 bit",
			typ:  &DecimalType{Bits: 16},
		},
		{
			name: "valid full width",
			typ:  &DecimalType{Bits: 256, Decimals: 18, Signed: true},
		},
		{
			name:    "zero bits",
			typ:     &DecimalType{Bits: 0},
			wantErr: true,
		},
		{
			name:    "bits over 256",
			typ:     &DecimalType{Bits: 300},
			wantErr: true,
		},
		{
			name:    "decimals exceed bits",
			typ:     &DecimalType{Bits: 8, Decimals: 9},
			wantErr: true,
		},
		{
			name:    "negative decimals",
			typ:     &DecimalType{Bits: 16, Decimals: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.ValidateConstraints()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConstraints() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidConstraint) {
				t.Errorf("expected ErrInvalidConstraint, got %v", err)
			}
		})
	}
}

func TestStringTypeValidateConstraints(t *testing.T) {
	tests := []struct {
		name    string
		typ     *StringType
		wantErr bool
	}{
		{
			name: "valid bounds",
			typ:  &StringType{MinLength: 1, MaxLength: 32},
		},
		{
			name: "unbounded max",
			typ:  &StringType{MinLength: 5},
		},
		{
			name:    "min exceeds max",
			typ:     &StringType{MinLength: 10, MaxLength: 5},
			wantErr: true,
		},
		{
			name:    "negative min",
			typ:     &StringType{MinLength: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.typ.ValidateConstraints()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateConstraints() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBooleanTypeValidateConstraints(t *testing.T) {
	good := NewValueMappings()
	if err := good.Add(ZeroValue, false); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := good.Add(RawValueFromUint64(1), nil); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := (&BooleanType{Mappings: good}).ValidateConstraints(); err != nil {
		t.Errorf("boolean/null mappings should be valid: %v", err)
	}

	bad := NewValueMappings()
	if err := bad.Add(RawValueFromUint64(2), "yes"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	err := (&BooleanType{Mappings: bad}).ValidateConstraints()
	if !errors.Is(err, ErrInvalidConstraint) {
		t.Errorf("expected ErrInvalidConstraint for string mapping, got %v", err)
	}
}
