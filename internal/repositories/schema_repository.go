package repositories

import (
	"context"
	"time"
)

// SchemaRecord is one stored trait metadata document version. Versions
// are immutable; a metadata update always creates a new record.
type SchemaRecord struct {
	ContractID string
	Version    string
	URI        string
	Document   string
	CreatedAt  time.Time
}

// SchemaRepository defines the interface for trait metadata document
// storage.
type SchemaRepository interface {
	// Create stores a new document version and returns its version ID.
	Create(ctx context.Context, contractID string, uri string, document string) (string, error)

	// GetLatest retrieves the newest version for a contract.
	GetLatest(ctx context.Context, contractID string) (*SchemaRecord, error)

	// GetByVersion retrieves a specific version.
	GetByVersion(ctx context.Context, contractID string, version string) (*SchemaRecord, error)
}
