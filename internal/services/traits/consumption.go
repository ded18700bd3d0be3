package traits

import (
	"fmt"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// ValidateConsumption decides whether a sale may proceed given a
// trait's value captured at offer time and its current value. Invoked
// by a marketplace collaborator before finalizing a sale, never by the
// set path itself.
func (e *Engine) ValidateConsumption(policy entities.ConsumptionPolicy, captured, current entities.RawValue) (bool, error) {
	switch policy {
	case entities.ConsumptionNone, "":
		return true, nil
	case entities.ConsumptionRequireEq:
		return current == captured, nil
	case entities.ConsumptionRequireUintGte:
		return current.BigInt().Cmp(captured.BigInt()) >= 0, nil
	case entities.ConsumptionRequireUintLte:
		return current.BigInt().Cmp(captured.BigInt()) <= 0, nil
	}
	return false, fmt.Errorf("unknown consumption validation policy: %q", policy)
}
