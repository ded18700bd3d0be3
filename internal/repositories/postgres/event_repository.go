package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/repositories"
)

// SchemaChangedChannel is the NOTIFY channel broadcasting metadata
// updates so peer instances can reload the contract's schema.
const SchemaChangedChannel = "trait_schema_changed"

// PostgresEventRepository implements EventRepository using PostgreSQL.
// Metadata-URI events are additionally broadcast over LISTEN/NOTIFY.
type PostgresEventRepository struct {
	db *sql.DB
}

// NewPostgresEventRepository creates a new PostgreSQL event repository.
func NewPostgresEventRepository(db *sql.DB) repositories.EventRepository {
	return &PostgresEventRepository{db: db}
}

// Append stores an event and broadcasts it to listening instances.
func (r *PostgresEventRepository) Append(ctx context.Context, event *entities.TraitEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now()
	}

	tokenIDs, err := json.Marshal(event.TokenIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal token IDs: %w", err)
	}

	query := `
		INSERT INTO trait_events
			(id, contract_id, event_type, trait_key, token_id, from_token, to_token, token_ids, uri, emitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = r.db.ExecContext(ctx, query,
		event.ID, event.ContractID, string(event.Type), event.TraitKey[:],
		int64(event.TokenID), int64(event.FromToken), int64(event.ToToken),
		string(tokenIDs), event.URI, event.EmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}

	if event.Type == entities.EventTraitMetadataURIUpdated {
		if _, err := r.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, SchemaChangedChannel, event.ContractID); err != nil {
			return fmt.Errorf("failed to notify schema change: %w", err)
		}
	}
	return nil
}

// ListByContract retrieves the newest events for a contract.
func (r *PostgresEventRepository) ListByContract(ctx context.Context, contractID string, limit int) ([]*entities.TraitEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, event_type, trait_key, token_id, from_token, to_token, token_ids, uri, emitted_at
		FROM trait_events
		WHERE contract_id = $1
		ORDER BY emitted_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, contractID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*entities.TraitEvent
	for rows.Next() {
		event := &entities.TraitEvent{ContractID: contractID}
		var eventType string
		var keyRaw []byte
		var tokenID, fromToken, toToken int64
		var tokenIDs string
		if err := rows.Scan(&event.ID, &eventType, &keyRaw, &tokenID, &fromToken, &toToken, &tokenIDs, &event.URI, &event.EmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		event.Type = entities.EventType(eventType)
		copy(event.TraitKey[:], keyRaw)
		event.TokenID = uint64(tokenID)
		event.FromToken = uint64(fromToken)
		event.ToToken = uint64(toToken)
		if err := json.Unmarshal([]byte(tokenIDs), &event.TokenIDs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal token IDs: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}
