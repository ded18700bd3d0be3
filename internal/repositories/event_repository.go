package repositories

import (
	"context"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// EventRepository defines the interface for the emitted update-event
// log. Events are append-only; the service layer appends one event per
// successful write and nothing on a rejected write.
type EventRepository interface {
	// Append stores an event and broadcasts it to listening instances.
	Append(ctx context.Context, event *entities.TraitEvent) error

	// ListByContract retrieves the newest events for a contract, most
	// recent first.
	ListByContract(ctx context.Context, contractID string, limit int) ([]*entities.TraitEvent, error)
}
