package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/services"
)

// TraitHandler exposes trait value operations over HTTP.
type TraitHandler struct {
	traitService services.TraitServiceInterface
}

// NewTraitHandler creates a new TraitHandler.
func NewTraitHandler(traitService services.TraitServiceInterface) *TraitHandler {
	return &TraitHandler{traitService: traitService}
}

// Register registers the trait routes on a mux.
func (h *TraitHandler) Register(mux *http.ServeMux, wrap Wrapper) {
	mux.Handle("PUT /v1/contracts/{contract}/tokens/{token}/traits/{trait}", wrapped(wrap, "SetTrait", h.SetTrait))
	mux.Handle("GET /v1/contracts/{contract}/tokens/{token}/traits/{trait}", wrapped(wrap, "GetTrait", h.GetTrait))
	mux.Handle("GET /v1/contracts/{contract}/tokens/{token}/traits", wrapped(wrap, "GetTraits", h.GetTraits))
	mux.Handle("POST /v1/contracts/{contract}/traits/{trait}/bulk", wrapped(wrap, "SetTraitBulk", h.SetTraitBulk))
	mux.Handle("POST /v1/contracts/{contract}/tokens/{token}/traits/{trait}/validate-sale", wrapped(wrap, "ValidateSale", h.ValidateSale))
	mux.Handle("GET /v1/contracts/{contract}/events", wrapped(wrap, "ListEvents", h.ListEvents))
}

type setTraitRequest struct {
	Raw     string      `json:"raw,omitempty"`
	Display interface{} `json:"display,omitempty"`
}

type setTraitResponse struct {
	Raw string `json:"raw"`
}

// SetTrait handles PUT /v1/contracts/{contract}/tokens/{token}/traits/{trait}.
// The body carries either a raw 32-byte value or a display value to be
// normalized against the declared data type.
func (h *TraitHandler) SetTrait(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contract")
	trait := r.PathValue("trait")
	tokenID, err := pathToken(r)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad token ID: %v", entities.ErrInvalidValue, err))
		return
	}

	var req setTraitRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", entities.ErrInvalidValue, err))
		return
	}

	caller := callerFromRequest(r)

	if req.Raw != "" {
		if req.Display != nil {
			writeError(w, fmt.Errorf("%w: raw and display are mutually exclusive", entities.ErrInvalidValue))
			return
		}
		value, err := entities.ParseRawValue(req.Raw)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.traitService.SetTrait(r.Context(), caller, contractID, tokenID, trait, value); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, setTraitResponse{Raw: value.Hex()})
		return
	}

	if req.Display == nil {
		writeError(w, fmt.Errorf("%w: raw or display value is required", entities.ErrInvalidValue))
		return
	}

	value, err := h.traitService.SetTraitDisplay(r.Context(), caller, contractID, tokenID, trait, req.Display)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setTraitResponse{Raw: value.Hex()})
}

// GetTrait handles GET /v1/contracts/{contract}/tokens/{token}/traits/{trait}.
// With ?denormalized=true the response carries the display value too.
func (h *TraitHandler) GetTrait(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contract")
	trait := r.PathValue("trait")
	tokenID, err := pathToken(r)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad token ID: %v", entities.ErrInvalidValue, err))
		return
	}

	if r.URL.Query().Get("denormalized") == "true" {
		result, err := h.traitService.GetDisplayValue(r.Context(), contractID, tokenID, trait)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	value, err := h.traitService.GetTraitValue(r.Context(), contractID, tokenID, trait)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setTraitResponse{Raw: value.Hex()})
}

type getTraitsResponse struct {
	Raw []string `json:"raw"`
}

// GetTraits handles GET /v1/contracts/{contract}/tokens/{token}/traits.
// With ?keys=a,b,c the response lists raw values in input order; without
// keys it returns every set trait in denormalized form.
func (h *TraitHandler) GetTraits(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contract")
	tokenID, err := pathToken(r)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad token ID: %v", entities.ErrInvalidValue, err))
		return
	}

	if keysParam := r.URL.Query().Get("keys"); keysParam != "" {
		keys := strings.Split(keysParam, ",")
		values, err := h.traitService.GetTraitValues(r.Context(), contractID, tokenID, keys)
		if err != nil {
			writeError(w, err)
			return
		}
		raw := make([]string, len(values))
		for i, v := range values {
			raw[i] = v.Hex()
		}
		writeJSON(w, http.StatusOK, getTraitsResponse{Raw: raw})
		return
	}

	result, err := h.traitService.GetTokenTraits(r.Context(), contractID, tokenID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type setTraitBulkRequest struct {
	Raw       string   `json:"raw"`
	FromToken *uint64  `json:"fromToken,omitempty"`
	ToToken   *uint64  `json:"toToken,omitempty"`
	TokenIDs  []uint64 `json:"tokenIds,omitempty"`
}

// SetTraitBulk handles POST /v1/contracts/{contract}/traits/{trait}/bulk.
// The body carries either an inclusive token range or an explicit list.
func (h *TraitHandler) SetTraitBulk(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contract")
	trait := r.PathValue("trait")

	var req setTraitBulkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", entities.ErrInvalidValue, err))
		return
	}

	value, err := entities.ParseRawValue(req.Raw)
	if err != nil {
		writeError(w, err)
		return
	}

	caller := callerFromRequest(r)

	hasRange := req.FromToken != nil && req.ToToken != nil
	if hasRange == (len(req.TokenIDs) > 0) {
		writeError(w, fmt.Errorf("%w: exactly one of token range or token list is required", entities.ErrInvalidValue))
		return
	}

	if hasRange {
		err = h.traitService.SetTraitBulkRange(r.Context(), caller, contractID, *req.FromToken, *req.ToToken, trait, value)
	} else {
		err = h.traitService.SetTraitBulkList(r.Context(), caller, contractID, req.TokenIDs, trait, value)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, setTraitResponse{Raw: value.Hex()})
}

type validateSaleRequest struct {
	Captured string `json:"captured"`
}

type validateSaleResponse struct {
	OK bool `json:"ok"`
}

// ValidateSale handles POST .../traits/{trait}/validate-sale. The body
// carries the raw value the sale was captured against.
func (h *TraitHandler) ValidateSale(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contract")
	trait := r.PathValue("trait")
	tokenID, err := pathToken(r)
	if err != nil {
		writeError(w, fmt.Errorf("%w: bad token ID: %v", entities.ErrInvalidValue, err))
		return
	}

	var req validateSaleRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", entities.ErrInvalidValue, err))
		return
	}

	captured, err := entities.ParseRawValue(req.Captured)
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.traitService.ValidateSale(r.Context(), contractID, tokenID, trait, captured)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateSaleResponse{OK: ok})
}

type eventResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TraitKey  string    `json:"traitKey,omitempty"`
	TokenID   uint64    `json:"tokenId,omitempty"`
	FromToken uint64    `json:"fromToken,omitempty"`
	ToToken   uint64    `json:"toToken,omitempty"`
	TokenIDs  []uint64  `json:"tokenIds,omitempty"`
	URI       string    `json:"uri,omitempty"`
	EmittedAt time.Time `json:"emittedAt"`
}

// ListEvents handles GET /v1/contracts/{contract}/events.
func (h *TraitHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contract")

	limit := 100
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed <= 0 {
			writeError(w, fmt.Errorf("%w: bad limit", entities.ErrInvalidValue))
			return
		}
		limit = parsed
	}

	events, err := h.traitService.ListEvents(r.Context(), contractID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	result := make([]eventResponse, len(events))
	for i, event := range events {
		result[i] = eventResponse{
			ID:        event.ID,
			Type:      string(event.Type),
			TokenID:   event.TokenID,
			FromToken: event.FromToken,
			ToToken:   event.ToToken,
			TokenIDs:  event.TokenIDs,
			URI:       event.URI,
			EmittedAt: event.EmittedAt,
		}
		if !event.TraitKey.IsZero() {
			result[i].TraitKey = event.TraitKey.Hex()
		}
	}
	writeJSON(w, http.StatusOK, result)
}
