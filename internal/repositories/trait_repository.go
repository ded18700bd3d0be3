package repositories

import (
	"context"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// TraitRepository defines the interface for stored trait records, the
// durable state the host contract owns. The repository only persists
// values the engine has already validated; it performs no validation of
// its own.
type TraitRepository interface {
	// Set creates or updates one trait record.
	Set(ctx context.Context, contractID string, tokenID uint64, key entities.TraitKey, value entities.RawValue) error

	// SetBulk writes the same key/value pair for many tokens in one
	// transaction: either every record is written or none is.
	SetBulk(ctx context.Context, contractID string, tokenIDs []uint64, key entities.TraitKey, value entities.RawValue) error

	// Get retrieves the raw value for a single key. Records that were
	// never set read as the zero value.
	Get(ctx context.Context, contractID string, tokenID uint64, key entities.TraitKey) (entities.RawValue, error)

	// GetMany retrieves raw values for several keys, in the same order
	// as the input keys. Unset records read as the zero value.
	GetMany(ctx context.Context, contractID string, tokenID uint64, keys []entities.TraitKey) ([]entities.RawValue, error)

	// ListByToken retrieves all set trait records for one token.
	ListByToken(ctx context.Context, contractID string, tokenID uint64) ([]*entities.Trait, error)
}
