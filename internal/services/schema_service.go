package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/repositories"
	"github.com/mizuhara/dyntraits/internal/services/schema"
)

// SchemaServiceInterface defines the interface for trait metadata
// document management.
type SchemaServiceInterface interface {
	UpdateMetadata(ctx context.Context, contractID string, uri string, document string) (string, error)
	GetSchema(ctx context.Context, contractID string) (*entities.TraitSchema, error)
	GetSchemaVersion(ctx context.Context, contractID string, version string) (*entities.TraitSchema, error)
	ValidateDocument(ctx context.Context, document string) error
	Reload(ctx context.Context, contractID string) error
}

// SchemaService manages trait metadata documents. Each contract's
// current schema is held in memory and swapped atomically on update, so
// in-flight readers keep the version they started with.
type SchemaService struct {
	schemaRepo repositories.SchemaRepository
	eventRepo  repositories.EventRepository

	mu      sync.RWMutex
	current map[string]*entities.TraitSchema
}

// NewSchemaService creates a new SchemaService.
func NewSchemaService(schemaRepo repositories.SchemaRepository, eventRepo repositories.EventRepository) *SchemaService {
	return &SchemaService{
		schemaRepo: schemaRepo,
		eventRepo:  eventRepo,
		current:    make(map[string]*entities.TraitSchema),
	}
}

// UpdateMetadata validates and stores a new metadata document version,
// swaps it in as the contract's current schema, and emits a
// TraitMetadataURIUpdated event. For data: URIs the document is decoded
// from the URI itself and the document argument may be empty.
func (s *SchemaService) UpdateMetadata(ctx context.Context, contractID string, uri string, document string) (string, error) {
	if contractID == "" {
		return "", fmt.Errorf("contract ID is required")
	}
	if uri == "" {
		return "", fmt.Errorf("metadata URI is required")
	}

	data, isDataURI, err := schema.DecodeDataURI(uri)
	if err != nil {
		return "", fmt.Errorf("%w: %v", entities.ErrInvalidDocument, err)
	}
	if isDataURI {
		document = string(data)
	}
	if document == "" {
		return "", fmt.Errorf("%w: metadata document is required for non-data URIs", entities.ErrInvalidDocument)
	}

	// Full validation before anything is persisted. A rejected document
	// leaves the previous schema in place.
	loaded, err := schema.LoadSchema([]byte(document))
	if err != nil {
		return "", err
	}

	version, err := s.schemaRepo.Create(ctx, contractID, uri, document)
	if err != nil {
		return "", fmt.Errorf("failed to create schema version: %w", err)
	}

	loaded.ContractID = contractID
	loaded.URI = uri
	loaded.Version = version

	s.mu.Lock()
	s.current[contractID] = loaded
	s.mu.Unlock()

	event := entities.NewTraitMetadataURIUpdated(contractID, uri)
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return "", fmt.Errorf("failed to emit metadata event: %w", err)
	}

	return version, nil
}

// GetSchema returns the contract's current schema. On a cold start the
// latest stored version is loaded and cached.
func (s *SchemaService) GetSchema(ctx context.Context, contractID string) (*entities.TraitSchema, error) {
	if contractID == "" {
		return nil, fmt.Errorf("contract ID is required")
	}

	s.mu.RLock()
	loaded, ok := s.current[contractID]
	s.mu.RUnlock()
	if ok {
		return loaded, nil
	}

	return s.loadFromStore(ctx, contractID)
}

// GetSchemaVersion loads a specific stored version. Historic versions
// are not cached; they serve audits and sale-consumption replays.
func (s *SchemaService) GetSchemaVersion(ctx context.Context, contractID string, version string) (*entities.TraitSchema, error) {
	record, err := s.schemaRepo.GetByVersion(ctx, contractID, version)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("schema version %s not found for contract %s", version, contractID)
	}
	return s.buildFromRecord(record)
}

// ValidateDocument validates a metadata document without saving it.
func (s *SchemaService) ValidateDocument(ctx context.Context, document string) error {
	if document == "" {
		return fmt.Errorf("%w: metadata document is required", entities.ErrInvalidDocument)
	}
	_, err := schema.LoadSchema([]byte(document))
	return err
}

// Reload refreshes a contract's schema from storage. An empty
// contractID refreshes every contract currently held in memory. Called
// by the reload watcher when a peer instance updates metadata.
func (s *SchemaService) Reload(ctx context.Context, contractID string) error {
	if contractID != "" {
		_, err := s.loadFromStore(ctx, contractID)
		return err
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.current))
	for id := range s.current {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	var errs []string
	for _, id := range ids {
		if _, err := s.loadFromStore(ctx, id); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", id, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to reload schemas: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (s *SchemaService) loadFromStore(ctx context.Context, contractID string) (*entities.TraitSchema, error) {
	record, err := s.schemaRepo.GetLatest(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("failed to get schema: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("schema not found for contract: %s", contractID)
	}

	loaded, err := s.buildFromRecord(record)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current[contractID] = loaded
	s.mu.Unlock()

	return loaded, nil
}

func (s *SchemaService) buildFromRecord(record *repositories.SchemaRecord) (*entities.TraitSchema, error) {
	loaded, err := schema.LoadSchema([]byte(record.Document))
	if err != nil {
		return nil, fmt.Errorf("stored document failed to load: %w", err)
	}
	loaded.ContractID = record.ContractID
	loaded.URI = record.URI
	loaded.Version = record.Version
	loaded.CreatedAt = record.CreatedAt
	return loaded, nil
}
