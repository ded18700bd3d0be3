package traits

import (
	"testing"

	"github.com/mizuhara/dyntraits/internal/entities"
)

func TestValidateConsumption(t *testing.T) {
	engine := NewEngine()

	tests := []struct {
		name     string
		policy   entities.ConsumptionPolicy
		captured uint64
		current  uint64
		want     bool
	}{
		{name: "none always accepts", policy: entities.ConsumptionNone, captured: 100, current: 1, want: true},
		{name: "requireEq equal", policy: entities.ConsumptionRequireEq, captured: 5, current: 5, want: true},
		{name: "requireEq changed", policy: entities.ConsumptionRequireEq, captured: 5, current: 6, want: false},
		{name: "requireUintGte grew", policy: entities.ConsumptionRequireUintGte, captured: 100, current: 150, want: true},
		{name: "requireUintGte equal", policy: entities.ConsumptionRequireUintGte, captured: 100, current: 100, want: true},
		{name: "requireUintGte shrank", policy: entities.ConsumptionRequireUintGte, captured: 100, current: 50, want: false},
		{name: "requireUintLte shrank", policy: entities.ConsumptionRequireUintLte, captured: 100, current: 50, want: true},
		{name: "requireUintLte grew", policy: entities.ConsumptionRequireUintLte, captured: 100, current: 150, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.ValidateConsumption(tt.policy,
				entities.RawValueFromUint64(tt.captured),
				entities.RawValueFromUint64(tt.current))
			if err != nil {
				t.Fatalf("ValidateConsumption: %v", err)
			}
			if got != tt.want {
				t.Errorf("ValidateConsumption(%s, %d, %d) = %v, want %v",
					tt.policy, tt.captured, tt.current, got, tt.want)
			}
		})
	}
}

func TestValidateConsumptionUnknownPolicy(t *testing.T) {
	engine := NewEngine()
	if _, err := engine.ValidateConsumption("requireHash", entities.ZeroValue, entities.ZeroValue); err == nil {
		t.Error("expected error for unknown policy")
	}
}
