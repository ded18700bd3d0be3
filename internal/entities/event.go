package entities

import (
	"fmt"
	"time"
)

// EventType identifies the update-event form emitted after a successful
// trait or metadata write.
type EventType string

const (
	EventTraitUpdated            EventType = "TraitUpdated"
	EventTraitUpdatedBulkRange   EventType = "TraitUpdatedBulkRange"
	EventTraitUpdatedBulkList    EventType = "TraitUpdatedBulkList"
	EventTraitMetadataURIUpdated EventType = "TraitMetadataURIUpdated"
)

// MaxBulkRangeTokens caps how many tokens one bulk range event may
// cover. Wider updates must be split into several ranges; without a cap
// a single request could expand into an unbounded token slice.
const MaxBulkRangeTokens = 10000

// TraitEvent is one emitted update event. Exactly one of the payload
// shapes is populated, selected by Type. Events are only emitted after a
// successful persist; a rejected set emits nothing.
type TraitEvent struct {
	ID         string
	ContractID string
	Type       EventType
	TraitKey   TraitKey
	TokenID    uint64   // EventTraitUpdated
	FromToken  uint64   // EventTraitUpdatedBulkRange, inclusive
	ToToken    uint64   // EventTraitUpdatedBulkRange, inclusive
	TokenIDs   []uint64 // EventTraitUpdatedBulkList, any order
	URI        string   // EventTraitMetadataURIUpdated
	EmittedAt  time.Time
}

// NewTraitUpdated builds a single-token update event.
func NewTraitUpdated(contractID string, key TraitKey, tokenID uint64) *TraitEvent {
	return &TraitEvent{
		ContractID: contractID,
		Type:       EventTraitUpdated,
		TraitKey:   key,
		TokenID:    tokenID,
	}
}

// NewTraitUpdatedBulkRange builds an inclusive consecutive-range event.
func NewTraitUpdatedBulkRange(contractID string, key TraitKey, from, to uint64) *TraitEvent {
	return &TraitEvent{
		ContractID: contractID,
		Type:       EventTraitUpdatedBulkRange,
		TraitKey:   key,
		FromToken:  from,
		ToToken:    to,
	}
}

// NewTraitUpdatedBulkList builds an explicit token-list event.
func NewTraitUpdatedBulkList(contractID string, key TraitKey, tokenIDs []uint64) *TraitEvent {
	return &TraitEvent{
		ContractID: contractID,
		Type:       EventTraitUpdatedBulkList,
		TraitKey:   key,
		TokenIDs:   tokenIDs,
	}
}

// NewTraitMetadataURIUpdated builds a metadata-URI change event.
func NewTraitMetadataURIUpdated(contractID string, uri string) *TraitEvent {
	return &TraitEvent{
		ContractID: contractID,
		Type:       EventTraitMetadataURIUpdated,
		URI:        uri,
	}
}

// Validate checks the payload matches the event type.
func (e *TraitEvent) Validate() error {
	if e.ContractID == "" {
		return fmt.Errorf("contract ID is required")
	}
	switch e.Type {
	case EventTraitUpdated:
		if e.TraitKey.IsZero() {
			return fmt.Errorf("trait key is required")
		}
	case EventTraitUpdatedBulkRange:
		if e.TraitKey.IsZero() {
			return fmt.Errorf("trait key is required")
		}
		if e.FromToken > e.ToToken {
			return fmt.Errorf("bulk range is inverted: %d > %d", e.FromToken, e.ToToken)
		}
		if e.ToToken-e.FromToken >= MaxBulkRangeTokens {
			return fmt.Errorf("bulk range [%d, %d] covers more than %d tokens", e.FromToken, e.ToToken, MaxBulkRangeTokens)
		}
	case EventTraitUpdatedBulkList:
		if e.TraitKey.IsZero() {
			return fmt.Errorf("trait key is required")
		}
		if len(e.TokenIDs) == 0 {
			return fmt.Errorf("bulk list must name at least one token")
		}
	case EventTraitMetadataURIUpdated:
		if e.URI == "" {
			return fmt.Errorf("metadata URI is required")
		}
	default:
		return fmt.Errorf("unknown event type: %q", e.Type)
	}
	return nil
}

// AffectedTokens expands the event into the exact token set it covers.
// A bulk range from=10 to=15 expands to {10,11,12,13,14,15}. Metadata
// events affect no specific token and return nil.
func (e *TraitEvent) AffectedTokens() []uint64 {
	switch e.Type {
	case EventTraitUpdated:
		return []uint64{e.TokenID}
	case EventTraitUpdatedBulkRange:
		// ToToken-FromToken also screens out ranges whose inclusive
		// width would wrap uint64, such as [0, MaxUint64].
		if e.FromToken > e.ToToken || e.ToToken-e.FromToken >= MaxBulkRangeTokens {
			return nil
		}
		out := make([]uint64, 0, e.ToToken-e.FromToken+1)
		for id := e.FromToken; ; id++ {
			out = append(out, id)
			if id == e.ToToken {
				break
			}
		}
		return out
	case EventTraitUpdatedBulkList:
		return e.TokenIDs
	}
	return nil
}
