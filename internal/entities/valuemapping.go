package entities

import (
	"encoding/json"
	"fmt"
)

// ValueMappings is a bidirectional alias table between raw stored values
// and human-meaningful display values. A nil display value is the
// explicit "unset" marker. Both directions are built once at schema load
// time; mapping uniqueness is a load-time invariant.
type ValueMappings struct {
	toDisplay map[RawValue]interface{}
	toRaw     map[string]RawValue
	order     []RawValue
}

// NewValueMappings creates an empty mapping table.
func NewValueMappings() *ValueMappings {
	return &ValueMappings{
		toDisplay: make(map[RawValue]interface{}),
		toRaw:     make(map[string]RawValue),
	}
}

// Add registers a raw/display pair. It fails if the raw key is already
// mapped or if the display value is already mapped from another raw key.
func (m *ValueMappings) Add(raw RawValue, display interface{}) error {
	if _, exists := m.toDisplay[raw]; exists {
		return fmt.Errorf("raw value %s mapped twice", raw.Hex())
	}
	canon, err := canonicalDisplay(display)
	if err != nil {
		return err
	}
	if prev, exists := m.toRaw[canon]; exists {
		return fmt.Errorf("display value %s mapped from both %s and %s", canon, prev.Hex(), raw.Hex())
	}
	m.toDisplay[raw] = display
	m.toRaw[canon] = raw
	m.order = append(m.order, raw)
	return nil
}

// Display returns the display value mapped from raw, if any.
// A nil display value with ok=true means the explicit unset marker.
func (m *ValueMappings) Display(raw RawValue) (interface{}, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.toDisplay[raw]
	return v, ok
}

// Raw returns the raw value a display value maps back to, if any.
func (m *ValueMappings) Raw(display interface{}) (RawValue, bool) {
	if m == nil {
		return RawValue{}, false
	}
	canon, err := canonicalDisplay(display)
	if err != nil {
		return RawValue{}, false
	}
	v, ok := m.toRaw[canon]
	return v, ok
}

// DisplayValues returns all mapped display values in insertion order.
func (m *ValueMappings) DisplayValues() []interface{} {
	if m == nil {
		return nil
	}
	out := make([]interface{}, 0, len(m.order))
	for _, raw := range m.order {
		out = append(out, m.toDisplay[raw])
	}
	return out
}

// Len returns the number of mapped pairs.
func (m *ValueMappings) Len() int {
	if m == nil {
		return 0
	}
	return len(m.toDisplay)
}

// canonicalDisplay renders a display value as its canonical JSON form so
// string, number, boolean, and null values share one lookup table.
func canonicalDisplay(v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("display value is not representable: %w", err)
	}
	return string(data), nil
}
