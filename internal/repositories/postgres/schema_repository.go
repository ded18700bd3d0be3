package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mizuhara/dyntraits/internal/repositories"
)

// PostgresSchemaRepository implements SchemaRepository using PostgreSQL.
type PostgresSchemaRepository struct {
	db *sql.DB
}

// NewPostgresSchemaRepository creates a new PostgreSQL schema repository.
func NewPostgresSchemaRepository(db *sql.DB) repositories.SchemaRepository {
	return &PostgresSchemaRepository{db: db}
}

// Create stores a new document version and returns its version ID.
// Versions are immutable; updates always append.
func (r *PostgresSchemaRepository) Create(ctx context.Context, contractID string, uri string, document string) (string, error) {
	version := uuid.NewString()
	query := `
		INSERT INTO trait_schemas (contract_id, version, uri, document, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, contractID, version, uri, document, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to create schema version: %w", err)
	}
	return version, nil
}

// GetLatest retrieves the newest version for a contract.
func (r *PostgresSchemaRepository) GetLatest(ctx context.Context, contractID string) (*repositories.SchemaRecord, error) {
	query := `
		SELECT version, uri, document, created_at
		FROM trait_schemas
		WHERE contract_id = $1
		ORDER BY created_at DESC, version DESC
		LIMIT 1
	`
	return r.scanRecord(r.db.QueryRowContext(ctx, query, contractID), contractID)
}

// GetByVersion retrieves a specific version.
func (r *PostgresSchemaRepository) GetByVersion(ctx context.Context, contractID string, version string) (*repositories.SchemaRecord, error) {
	query := `
		SELECT version, uri, document, created_at
		FROM trait_schemas
		WHERE contract_id = $1 AND version = $2
	`
	return r.scanRecord(r.db.QueryRowContext(ctx, query, contractID, version), contractID)
}

func (r *PostgresSchemaRepository) scanRecord(row *sql.Row, contractID string) (*repositories.SchemaRecord, error) {
	record := &repositories.SchemaRecord{ContractID: contractID}
	err := row.Scan(&record.Version, &record.URI, &record.Document, &record.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("schema not found for contract: %s", contractID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	return record, nil
}
