package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/infrastructure/logger"
	"github.com/mizuhara/dyntraits/internal/infrastructure/metrics"
	"github.com/mizuhara/dyntraits/internal/repositories"
	"github.com/mizuhara/dyntraits/internal/services/schema"
	"github.com/mizuhara/dyntraits/internal/services/traits"
	"github.com/mizuhara/dyntraits/pkg/cache"
)

// TokenTrait is one denormalized trait read: the declared name (or hex
// key for undeclared traits), the raw value, and the display value.
type TokenTrait struct {
	Name    string            `json:"name"`
	Key     string            `json:"key"`
	Raw     string            `json:"raw"`
	Display interface{}       `json:"display"`
	Value   entities.RawValue `json:"-"`
}

// TraitServiceInterface defines the interface for trait value
// operations.
type TraitServiceInterface interface {
	SetTrait(ctx context.Context, caller *traits.Caller, contractID string, tokenID uint64, nameOrKey string, value entities.RawValue) error
	SetTraitDisplay(ctx context.Context, caller *traits.Caller, contractID string, tokenID uint64, nameOrKey string, display interface{}) (entities.RawValue, error)
	SetTraitBulkRange(ctx context.Context, caller *traits.Caller, contractID string, fromToken, toToken uint64, nameOrKey string, value entities.RawValue) error
	SetTraitBulkList(ctx context.Context, caller *traits.Caller, contractID string, tokenIDs []uint64, nameOrKey string, value entities.RawValue) error
	GetTraitValue(ctx context.Context, contractID string, tokenID uint64, nameOrKey string) (entities.RawValue, error)
	GetTraitValues(ctx context.Context, contractID string, tokenID uint64, namesOrKeys []string) ([]entities.RawValue, error)
	GetTokenTraits(ctx context.Context, contractID string, tokenID uint64) ([]*TokenTrait, error)
	GetDisplayValue(ctx context.Context, contractID string, tokenID uint64, nameOrKey string) (*TokenTrait, error)
	ValidateSale(ctx context.Context, contractID string, tokenID uint64, nameOrKey string, captured entities.RawValue) (bool, error)
	ListEvents(ctx context.Context, contractID string, limit int) ([]*entities.TraitEvent, error)
}

// TraitService orchestrates trait reads and writes: key resolution,
// authorization, value validation, persistence, and event emission.
// Failed writes persist nothing and emit nothing.
type TraitService struct {
	schemaService SchemaServiceInterface
	traitRepo     repositories.TraitRepository
	eventRepo     repositories.EventRepository
	engine        *traits.Engine
	policy        traits.AccessPolicy
	readCache     cache.Cache
	cacheTTL      time.Duration
	exporter      *metrics.PrometheusExporter
	log           *logger.Logger
}

// NewTraitService creates a new TraitService. readCache and exporter
// are optional; pass nil to disable caching or metrics.
func NewTraitService(
	schemaService SchemaServiceInterface,
	traitRepo repositories.TraitRepository,
	eventRepo repositories.EventRepository,
	policy traits.AccessPolicy,
	readCache cache.Cache,
	cacheTTL time.Duration,
	exporter *metrics.PrometheusExporter,
	log *logger.Logger,
) *TraitService {
	return &TraitService{
		schemaService: schemaService,
		traitRepo:     traitRepo,
		eventRepo:     eventRepo,
		engine:        traits.NewEngine(),
		policy:        policy,
		readCache:     readCache,
		cacheTTL:      cacheTTL,
		exporter:      exporter,
		log:           log.WithComponent("trait_service"),
	}
}

// SetTrait validates and stores a raw value for one token, then emits a
// TraitUpdated event.
func (s *TraitService) SetTrait(ctx context.Context, caller *traits.Caller, contractID string, tokenID uint64, nameOrKey string, value entities.RawValue) error {
	key, entry, err := s.resolveEntry(ctx, contractID, nameOrKey)
	if err != nil {
		return err
	}
	if err := checkWritableKey(key); err != nil {
		return err
	}

	if err := s.authorizeAndValidate(ctx, caller, entry, value); err != nil {
		return err
	}

	if err := s.traitRepo.Set(ctx, contractID, tokenID, key, value); err != nil {
		return fmt.Errorf("failed to store trait: %w", err)
	}

	s.invalidateToken(ctx, contractID, tokenID)
	return s.emit(ctx, entities.NewTraitUpdated(contractID, key, tokenID))
}

// SetTraitDisplay normalizes a display value to its raw form and stores
// it. Returns the raw value that was written.
func (s *TraitService) SetTraitDisplay(ctx context.Context, caller *traits.Caller, contractID string, tokenID uint64, nameOrKey string, display interface{}) (entities.RawValue, error) {
	key, entry, err := s.resolveEntry(ctx, contractID, nameOrKey)
	if err != nil {
		return entities.ZeroValue, err
	}
	if entry == nil {
		return entities.ZeroValue, fmt.Errorf("%w: display values need a declared trait", entities.ErrTraitNotFound)
	}
	if err := checkWritableKey(key); err != nil {
		return entities.ZeroValue, err
	}

	if err := s.policy.Authorize(ctx, entry, caller); err != nil {
		return entities.ZeroValue, err
	}

	value, err := s.engine.Normalize(entry, display)
	if err != nil {
		return entities.ZeroValue, err
	}

	if err := s.traitRepo.Set(ctx, contractID, tokenID, key, value); err != nil {
		return entities.ZeroValue, fmt.Errorf("failed to store trait: %w", err)
	}

	s.invalidateToken(ctx, contractID, tokenID)
	if err := s.emit(ctx, entities.NewTraitUpdated(contractID, key, tokenID)); err != nil {
		return entities.ZeroValue, err
	}
	return value, nil
}

// SetTraitBulkRange stores the same value for every token in the
// inclusive range [fromToken, toToken] and emits one
// TraitUpdatedBulkRange event.
func (s *TraitService) SetTraitBulkRange(ctx context.Context, caller *traits.Caller, contractID string, fromToken, toToken uint64, nameOrKey string, value entities.RawValue) error {
	if fromToken > toToken {
		return fmt.Errorf("%w: token range [%d, %d] is inverted", entities.ErrInvalidValue, fromToken, toToken)
	}
	if toToken-fromToken >= entities.MaxBulkRangeTokens {
		return fmt.Errorf("%w: token range [%d, %d] covers more than %d tokens",
			entities.ErrInvalidValue, fromToken, toToken, entities.MaxBulkRangeTokens)
	}

	key, entry, err := s.resolveEntry(ctx, contractID, nameOrKey)
	if err != nil {
		return err
	}
	if err := checkWritableKey(key); err != nil {
		return err
	}

	if err := s.authorizeAndValidate(ctx, caller, entry, value); err != nil {
		return err
	}

	event := entities.NewTraitUpdatedBulkRange(contractID, key, fromToken, toToken)
	if err := s.traitRepo.SetBulk(ctx, contractID, event.AffectedTokens(), key, value); err != nil {
		return fmt.Errorf("failed to store traits: %w", err)
	}

	s.invalidateContract(ctx, contractID)
	return s.emit(ctx, event)
}

// SetTraitBulkList stores the same value for an explicit token list and
// emits one TraitUpdatedBulkList event.
func (s *TraitService) SetTraitBulkList(ctx context.Context, caller *traits.Caller, contractID string, tokenIDs []uint64, nameOrKey string, value entities.RawValue) error {
	if len(tokenIDs) == 0 {
		return fmt.Errorf("%w: token list is empty", entities.ErrInvalidValue)
	}

	key, entry, err := s.resolveEntry(ctx, contractID, nameOrKey)
	if err != nil {
		return err
	}
	if err := checkWritableKey(key); err != nil {
		return err
	}

	if err := s.authorizeAndValidate(ctx, caller, entry, value); err != nil {
		return err
	}

	if err := s.traitRepo.SetBulk(ctx, contractID, tokenIDs, key, value); err != nil {
		return fmt.Errorf("failed to store traits: %w", err)
	}

	s.invalidateContract(ctx, contractID)
	return s.emit(ctx, entities.NewTraitUpdatedBulkList(contractID, key, tokenIDs))
}

// GetTraitValue retrieves the raw value for one trait. Traits that were
// never set read as the zero value.
func (s *TraitService) GetTraitValue(ctx context.Context, contractID string, tokenID uint64, nameOrKey string) (entities.RawValue, error) {
	key, _, err := s.resolveEntry(ctx, contractID, nameOrKey)
	if err != nil {
		return entities.ZeroValue, err
	}
	return s.traitRepo.Get(ctx, contractID, tokenID, key)
}

// GetTraitValues retrieves raw values for several traits in input
// order.
func (s *TraitService) GetTraitValues(ctx context.Context, contractID string, tokenID uint64, namesOrKeys []string) ([]entities.RawValue, error) {
	keys := make([]entities.TraitKey, len(namesOrKeys))
	for i, nameOrKey := range namesOrKeys {
		key, _, err := s.resolveEntry(ctx, contractID, nameOrKey)
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return s.traitRepo.GetMany(ctx, contractID, tokenID, keys)
}

// GetTokenTraits returns every set trait for a token in denormalized
// form, served from the read cache when possible.
func (s *TraitService) GetTokenTraits(ctx context.Context, contractID string, tokenID uint64) ([]*TokenTrait, error) {
	cacheKey := fmt.Sprintf("%s:%d:all", contractID, tokenID)
	if s.readCache != nil {
		if cached, ok := s.readCache.Get(ctx, cacheKey); ok {
			if result, ok := cached.([]*TokenTrait); ok {
				return cloneTokenTraits(result), nil
			}
		}
	}

	stored, err := s.traitRepo.ListByToken(ctx, contractID, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to list traits: %w", err)
	}

	loaded := s.currentSchema(ctx, contractID)
	result := make([]*TokenTrait, 0, len(stored))
	for _, trait := range stored {
		entry := loaded.Entry(trait.Key)
		tt, err := s.denormalize(entry, trait.Key, trait.Value)
		if err != nil {
			return nil, err
		}
		result = append(result, tt)
	}

	if s.readCache != nil {
		_ = s.readCache.Set(ctx, cacheKey, result, s.cacheTTL)
		return cloneTokenTraits(result), nil
	}
	return result, nil
}

// GetDisplayValue retrieves one trait in denormalized form.
func (s *TraitService) GetDisplayValue(ctx context.Context, contractID string, tokenID uint64, nameOrKey string) (*TokenTrait, error) {
	key, entry, err := s.resolveEntry(ctx, contractID, nameOrKey)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%s:%d:%s", contractID, tokenID, key.Hex())
	if s.readCache != nil {
		if cached, ok := s.readCache.Get(ctx, cacheKey); ok {
			if result, ok := cached.(*TokenTrait); ok {
				return cloneTokenTrait(result), nil
			}
		}
	}

	value, err := s.traitRepo.Get(ctx, contractID, tokenID, key)
	if err != nil {
		return nil, err
	}

	result, err := s.denormalize(entry, key, value)
	if err != nil {
		return nil, err
	}

	if s.readCache != nil {
		_ = s.readCache.Set(ctx, cacheKey, result, s.cacheTTL)
		return cloneTokenTrait(result), nil
	}
	return result, nil
}

// ValidateSale checks whether a sale captured against an earlier value
// may still settle given the trait's current value and its declared
// consumption policy.
func (s *TraitService) ValidateSale(ctx context.Context, contractID string, tokenID uint64, nameOrKey string, captured entities.RawValue) (bool, error) {
	key, entry, err := s.resolveEntry(ctx, contractID, nameOrKey)
	if err != nil {
		return false, err
	}

	policy := entities.ConsumptionNone
	if entry != nil {
		policy = entry.ConsumptionValidation
	}

	current, err := s.traitRepo.Get(ctx, contractID, tokenID, key)
	if err != nil {
		return false, err
	}

	return s.engine.ValidateConsumption(policy, captured, current)
}

// ListEvents returns the newest update events for a contract.
func (s *TraitService) ListEvents(ctx context.Context, contractID string, limit int) ([]*entities.TraitEvent, error) {
	return s.eventRepo.ListByContract(ctx, contractID, limit)
}

// resolveEntry resolves a trait name or literal key against the
// contract's current schema. Undeclared traits resolve to a key with a
// nil entry; the schema is advisory for them.
func (s *TraitService) resolveEntry(ctx context.Context, contractID string, nameOrKey string) (entities.TraitKey, *entities.TraitSchemaEntry, error) {
	loaded := s.currentSchema(ctx, contractID)

	if loaded != nil {
		if key, ok := loaded.KeyForName(nameOrKey); ok {
			return key, loaded.Entry(key), nil
		}
	}

	key, err := schema.ResolveKey(nameOrKey)
	if err != nil {
		return entities.TraitKey{}, nil, err
	}
	return key, loaded.Entry(key), nil
}

// checkWritableKey rejects the all-zero trait key on write paths. The
// zero key is reserved: metadata events carry it to mean "no specific
// trait", so a stored row under it could never emit a valid event.
func checkWritableKey(key entities.TraitKey) error {
	if key.IsZero() {
		return fmt.Errorf("%w: the zero trait key is reserved", entities.ErrInvalidValue)
	}
	return nil
}

// currentSchema returns the contract's schema, or nil when none has
// been published. Traits remain settable by privileged callers before
// metadata exists.
func (s *TraitService) currentSchema(ctx context.Context, contractID string) *entities.TraitSchema {
	loaded, err := s.schemaService.GetSchema(ctx, contractID)
	if err != nil {
		s.log.Debug().Str("contract_id", contractID).Err(err).Msg("no schema for contract")
		return nil
	}
	return loaded
}

func (s *TraitService) authorizeAndValidate(ctx context.Context, caller *traits.Caller, entry *entities.TraitSchemaEntry, value entities.RawValue) error {
	if err := s.policy.Authorize(ctx, entry, caller); err != nil {
		return err
	}
	return s.engine.ValidateRaw(entry, value)
}

func (s *TraitService) denormalize(entry *entities.TraitSchemaEntry, key entities.TraitKey, value entities.RawValue) (*TokenTrait, error) {
	display, err := s.engine.Denormalize(entry, value)
	if err != nil {
		return nil, err
	}

	name := key.Hex()
	if entry != nil {
		name = entry.Name
	}
	return &TokenTrait{
		Name:    name,
		Key:     key.Hex(),
		Raw:     value.Hex(),
		Display: display,
		Value:   value,
	}, nil
}

// emit appends an event to the log. An event that cannot be appended
// fails the whole operation so callers never observe a write without
// its event.
func (s *TraitService) emit(ctx context.Context, event *entities.TraitEvent) error {
	if err := s.eventRepo.Append(ctx, event); err != nil {
		return fmt.Errorf("failed to emit event: %w", err)
	}
	if s.exporter != nil {
		s.exporter.RecordTraitUpdate(string(event.Type))
	}
	return nil
}

// Cached entries are shared across requests; callers always receive
// copies so a caller mutating its result cannot change later reads.
func cloneTokenTrait(tt *TokenTrait) *TokenTrait {
	c := *tt
	return &c
}

func cloneTokenTraits(in []*TokenTrait) []*TokenTrait {
	out := make([]*TokenTrait, len(in))
	for i, tt := range in {
		out[i] = cloneTokenTrait(tt)
	}
	return out
}

type prefixDeleter interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

func (s *TraitService) invalidateToken(ctx context.Context, contractID string, tokenID uint64) {
	if s.readCache == nil {
		return
	}
	if pd, ok := s.readCache.(prefixDeleter); ok {
		if err := pd.DeletePrefix(ctx, fmt.Sprintf("%s:%d:", contractID, tokenID)); err != nil {
			s.log.Warn().Err(err).Msg("cache invalidation failed")
		}
		return
	}
	_ = s.readCache.Clear(ctx)
}

func (s *TraitService) invalidateContract(ctx context.Context, contractID string) {
	if s.readCache == nil {
		return
	}
	if pd, ok := s.readCache.(prefixDeleter); ok {
		if err := pd.DeletePrefix(ctx, contractID+":"); err != nil {
			s.log.Warn().Err(err).Msg("cache invalidation failed")
		}
		return
	}
	_ = s.readCache.Clear(ctx)
}
