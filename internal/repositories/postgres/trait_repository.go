package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/repositories"
)

// PostgresTraitRepository implements TraitRepository using PostgreSQL.
// Token IDs are stored as signed 64-bit integers; the uint64/int64
// conversion is bijective and only equality lookups are performed.
type PostgresTraitRepository struct {
	db *sql.DB
}

// NewPostgresTraitRepository creates a new PostgreSQL trait repository.
func NewPostgresTraitRepository(db *sql.DB) repositories.TraitRepository {
	return &PostgresTraitRepository{db: db}
}

// Set creates or updates one trait record.
func (r *PostgresTraitRepository) Set(ctx context.Context, contractID string, tokenID uint64, key entities.TraitKey, value entities.RawValue) error {
	record := &entities.Trait{ContractID: contractID, TokenID: tokenID, Key: key, Value: value}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid trait record: %w", err)
	}

	query := `
		INSERT INTO traits (contract_id, token_id, trait_key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (contract_id, token_id, trait_key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	now := time.Now()
	_, err := r.db.ExecContext(ctx, query, contractID, int64(tokenID), key[:], value[:], now, now)
	if err != nil {
		return fmt.Errorf("failed to set trait: %w", err)
	}
	return nil
}

// SetBulk writes the same key/value pair for many tokens atomically.
func (r *PostgresTraitRepository) SetBulk(ctx context.Context, contractID string, tokenIDs []uint64, key entities.TraitKey, value entities.RawValue) error {
	if len(tokenIDs) == 0 {
		return nil
	}
	record := &entities.Trait{ContractID: contractID, TokenID: tokenIDs[0], Key: key, Value: value}
	if err := record.Validate(); err != nil {
		return fmt.Errorf("invalid trait record: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO traits (contract_id, token_id, trait_key, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (contract_id, token_id, trait_key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare bulk set: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, tokenID := range tokenIDs {
		if _, err := stmt.ExecContext(ctx, contractID, int64(tokenID), key[:], value[:], now, now); err != nil {
			return fmt.Errorf("failed to set trait for token %d: %w", tokenID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bulk set: %w", err)
	}
	return nil
}

// Get retrieves the raw value for a single key.
func (r *PostgresTraitRepository) Get(ctx context.Context, contractID string, tokenID uint64, key entities.TraitKey) (entities.RawValue, error) {
	query := `
		SELECT value
		FROM traits
		WHERE contract_id = $1 AND token_id = $2 AND trait_key = $3
	`
	var value []byte
	err := r.db.QueryRowContext(ctx, query, contractID, int64(tokenID), key[:]).Scan(&value)
	if err == sql.ErrNoRows {
		return entities.ZeroValue, nil
	}
	if err != nil {
		return entities.ZeroValue, fmt.Errorf("failed to get trait value: %w", err)
	}
	return rawFromBytes(value)
}

// GetMany retrieves raw values for several keys, preserving input order.
func (r *PostgresTraitRepository) GetMany(ctx context.Context, contractID string, tokenID uint64, keys []entities.TraitKey) ([]entities.RawValue, error) {
	values := make([]entities.RawValue, len(keys))
	if len(keys) == 0 {
		return values, nil
	}

	keyBytes := make([][]byte, len(keys))
	for i, k := range keys {
		key := k
		keyBytes[i] = key[:]
	}

	query := `
		SELECT trait_key, value
		FROM traits
		WHERE contract_id = $1 AND token_id = $2 AND trait_key = ANY($3)
	`
	rows, err := r.db.QueryContext(ctx, query, contractID, int64(tokenID), pq.Array(keyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to get trait values: %w", err)
	}
	defer rows.Close()

	found := make(map[entities.TraitKey]entities.RawValue, len(keys))
	for rows.Next() {
		var keyRaw, valueRaw []byte
		if err := rows.Scan(&keyRaw, &valueRaw); err != nil {
			return nil, fmt.Errorf("failed to scan trait value: %w", err)
		}
		var key entities.TraitKey
		copy(key[:], keyRaw)
		value, err := rawFromBytes(valueRaw)
		if err != nil {
			return nil, err
		}
		found[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trait values: %w", err)
	}

	for i, k := range keys {
		values[i] = found[k] // absent keys stay zero
	}
	return values, nil
}

// ListByToken retrieves all set trait records for one token.
func (r *PostgresTraitRepository) ListByToken(ctx context.Context, contractID string, tokenID uint64) ([]*entities.Trait, error) {
	query := `
		SELECT trait_key, value, created_at, updated_at
		FROM traits
		WHERE contract_id = $1 AND token_id = $2
		ORDER BY trait_key
	`
	rows, err := r.db.QueryContext(ctx, query, contractID, int64(tokenID))
	if err != nil {
		return nil, fmt.Errorf("failed to list traits: %w", err)
	}
	defer rows.Close()

	var traits []*entities.Trait
	for rows.Next() {
		var keyRaw, valueRaw []byte
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&keyRaw, &valueRaw, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trait: %w", err)
		}
		trait := &entities.Trait{
			ContractID: contractID,
			TokenID:    tokenID,
			CreatedAt:  createdAt,
			UpdatedAt:  updatedAt,
		}
		copy(trait.Key[:], keyRaw)
		value, err := rawFromBytes(valueRaw)
		if err != nil {
			return nil, err
		}
		trait.Value = value
		traits = append(traits, trait)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating traits: %w", err)
	}
	return traits, nil
}

func rawFromBytes(b []byte) (entities.RawValue, error) {
	var value entities.RawValue
	if len(b) != len(value) {
		return value, fmt.Errorf("stored trait value has %d bytes, want %d", len(b), len(value))
	}
	copy(value[:], b)
	return value, nil
}
