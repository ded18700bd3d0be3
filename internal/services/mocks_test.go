package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/repositories"
)

// Mock SchemaRepository
type mockSchemaRepository struct {
	mu      sync.Mutex
	records map[string][]*repositories.SchemaRecord
}

func newMockSchemaRepository() *mockSchemaRepository {
	return &mockSchemaRepository{
		records: make(map[string][]*repositories.SchemaRecord),
	}
}

func (m *mockSchemaRepository) Create(ctx context.Context, contractID string, uri string, document string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	version := fmt.Sprintf("v%d", len(m.records[contractID])+1)
	m.records[contractID] = append(m.records[contractID], &repositories.SchemaRecord{
		ContractID: contractID,
		Version:    version,
		URI:        uri,
		Document:   document,
	})
	return version, nil
}

func (m *mockSchemaRepository) GetLatest(ctx context.Context, contractID string) (*repositories.SchemaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	records := m.records[contractID]
	if len(records) == 0 {
		return nil, nil
	}
	return records[len(records)-1], nil
}

func (m *mockSchemaRepository) GetByVersion(ctx context.Context, contractID string, version string) (*repositories.SchemaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records[contractID] {
		if record.Version == version {
			return record, nil
		}
	}
	return nil, nil
}

// Mock TraitRepository
type mockTraitRepository struct {
	mu     sync.Mutex
	values map[string]entities.RawValue
	order  []string
}

func newMockTraitRepository() *mockTraitRepository {
	return &mockTraitRepository{
		values: make(map[string]entities.RawValue),
	}
}

func traitStoreKey(contractID string, tokenID uint64, key entities.TraitKey) string {
	return fmt.Sprintf("%s/%d/%s", contractID, tokenID, key.Hex())
}

func (m *mockTraitRepository) Set(ctx context.Context, contractID string, tokenID uint64, key entities.TraitKey, value entities.RawValue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sk := traitStoreKey(contractID, tokenID, key)
	if _, exists := m.values[sk]; !exists {
		m.order = append(m.order, sk)
	}
	m.values[sk] = value
	return nil
}

func (m *mockTraitRepository) SetBulk(ctx context.Context, contractID string, tokenIDs []uint64, key entities.TraitKey, value entities.RawValue) error {
	for _, tokenID := range tokenIDs {
		if err := m.Set(ctx, contractID, tokenID, key, value); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockTraitRepository) Get(ctx context.Context, contractID string, tokenID uint64, key entities.TraitKey) (entities.RawValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.values[traitStoreKey(contractID, tokenID, key)], nil
}

func (m *mockTraitRepository) GetMany(ctx context.Context, contractID string, tokenID uint64, keys []entities.TraitKey) ([]entities.RawValue, error) {
	result := make([]entities.RawValue, len(keys))
	for i, key := range keys {
		value, err := m.Get(ctx, contractID, tokenID, key)
		if err != nil {
			return nil, err
		}
		result[i] = value
	}
	return result, nil
}

func (m *mockTraitRepository) ListByToken(ctx context.Context, contractID string, tokenID uint64) ([]*entities.Trait, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	prefix := fmt.Sprintf("%s/%d/", contractID, tokenID)
	var result []*entities.Trait
	for _, sk := range m.order {
		if len(sk) < len(prefix) || sk[:len(prefix)] != prefix {
			continue
		}
		key, err := entities.ParseTraitKey(sk[len(prefix):])
		if err != nil {
			return nil, err
		}
		result = append(result, &entities.Trait{
			ContractID: contractID,
			TokenID:    tokenID,
			Key:        key,
			Value:      m.values[sk],
		})
	}
	return result, nil
}

func (m *mockTraitRepository) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Mock EventRepository
type mockEventRepository struct {
	mu     sync.Mutex
	events []*entities.TraitEvent
}

func newMockEventRepository() *mockEventRepository {
	return &mockEventRepository{}
}

func (m *mockEventRepository) Append(ctx context.Context, event *entities.TraitEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventRepository) ListByContract(ctx context.Context, contractID string, limit int) ([]*entities.TraitEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []*entities.TraitEvent
	for i := len(m.events) - 1; i >= 0 && len(result) < limit; i-- {
		if m.events[i].ContractID == contractID {
			result = append(result, m.events[i])
		}
	}
	return result, nil
}

func (m *mockEventRepository) last() *entities.TraitEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.events) == 0 {
		return nil
	}
	return m.events[len(m.events)-1]
}

func (m *mockEventRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
