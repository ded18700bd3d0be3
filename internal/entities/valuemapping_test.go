package entities

import "testing"

func TestValueMappingsBidirectional(t *testing.T) {
	m := NewValueMappings()
	red := RawValueFromUint64(1)
	blue := RawValueFromUint64(2)

	if err := m.Add(red, "red"); err != nil {
		t.Fatalf("Add red: %v", err)
	}
	if err := m.Add(blue, "blue"); err != nil {
		t.Fatalf("Add blue: %v", err)
	}

	display, ok := m.Display(red)
	if !ok || display != "red" {
		t.Errorf("Display(red) = %v, %v", display, ok)
	}

	raw, ok := m.Raw("blue")
	if !ok || raw != blue {
		t.Errorf("Raw(blue) = %s, %v", raw.Hex(), ok)
	}

	if _, ok := m.Display(RawValueFromUint64(99)); ok {
		t.Error("unmapped raw value should not resolve")
	}
	if _, ok := m.Raw("green"); ok {
		t.Error("unmapped display value should not resolve")
	}
}

func TestValueMappingsNullMarker(t *testing.T) {
	m := NewValueMappings()
	if err := m.Add(ZeroValue, nil); err != nil {
		t.Fatalf("Add null mapping: %v", err)
	}

	display, ok := m.Display(ZeroValue)
	if !ok {
		t.Fatal("null mapping should resolve")
	}
	if display != nil {
		t.Errorf("null mapping display = %v, want nil", display)
	}
}

func TestValueMappingsDuplicateDisplay(t *testing.T) {
	m := NewValueMappings()
	if err := m.Add(RawValueFromUint64(1), "red"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Add(RawValueFromUint64(2), "red"); err == nil {
		t.Error("expected error for duplicate display value")
	}
}

func TestValueMappingsDuplicateRaw(t *testing.T) {
	m := NewValueMappings()
	if err := m.Add(RawValueFromUint64(1), "red"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Add(RawValueFromUint64(1), "blue"); err == nil {
		t.Error("expected error for duplicate raw key")
	}
}

func TestValueMappingsDistinguishesKinds(t *testing.T) {
	// "1" the string and 1 the number are different display values.
	m := NewValueMappings()
	if err := m.Add(RawValueFromUint64(1), "1"); err != nil {
		t.Fatalf("Add string: %v", err)
	}
	if err := m.Add(RawValueFromUint64(2), float64(1)); err != nil {
		t.Fatalf("Add number: %v", err)
	}
	if m.Len() != 2 {
		t.Errorf("Len() = %d, want 2", m.Len())
	}
}
