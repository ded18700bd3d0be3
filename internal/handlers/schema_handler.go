package handlers

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/services"
)

// SchemaHandler exposes trait metadata document operations over HTTP.
type SchemaHandler struct {
	schemaService services.SchemaServiceInterface
}

// NewSchemaHandler creates a new SchemaHandler.
func NewSchemaHandler(schemaService services.SchemaServiceInterface) *SchemaHandler {
	return &SchemaHandler{schemaService: schemaService}
}

// Register registers the metadata routes on a mux.
func (h *SchemaHandler) Register(mux *http.ServeMux, wrap Wrapper) {
	mux.Handle("PUT /v1/contracts/{contract}/metadata", wrapped(wrap, "UpdateMetadata", h.UpdateMetadata))
	mux.Handle("GET /v1/contracts/{contract}/metadata", wrapped(wrap, "GetMetadata", h.GetMetadata))
	mux.Handle("GET /v1/contracts/{contract}/metadata/versions/{version}", wrapped(wrap, "GetMetadataVersion", h.GetMetadataVersion))
	mux.Handle("POST /v1/metadata/validate", wrapped(wrap, "ValidateDocument", h.ValidateDocument))
}

type updateMetadataRequest struct {
	URI      string `json:"uri"`
	Document string `json:"document,omitempty"`
}

type updateMetadataResponse struct {
	Version string `json:"version"`
}

// UpdateMetadata handles PUT /v1/contracts/{contract}/metadata. For
// data: URIs the document field may be omitted.
func (h *SchemaHandler) UpdateMetadata(w http.ResponseWriter, r *http.Request) {
	contractID := r.PathValue("contract")

	var req updateMetadataRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", entities.ErrInvalidDocument, err))
		return
	}

	version, err := h.schemaService.UpdateMetadata(r.Context(), contractID, req.URI, req.Document)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updateMetadataResponse{Version: version})
}

type traitSummary struct {
	Name                  string `json:"name"`
	Key                   string `json:"key"`
	DisplayName           string `json:"displayName"`
	DataType              string `json:"dataType"`
	TokenOwnerCanUpdate   bool   `json:"tokenOwnerCanUpdateValue"`
	ConsumptionValidation string `json:"consumptionValidationOnSale,omitempty"`
}

type metadataResponse struct {
	ContractID string         `json:"contractId"`
	URI        string         `json:"uri"`
	Version    string         `json:"version"`
	Traits     []traitSummary `json:"traits"`
}

// GetMetadata handles GET /v1/contracts/{contract}/metadata.
func (h *SchemaHandler) GetMetadata(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.schemaService.GetSchema(r.Context(), r.PathValue("contract"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildMetadataResponse(loaded))
}

// GetMetadataVersion handles GET .../metadata/versions/{version}.
func (h *SchemaHandler) GetMetadataVersion(w http.ResponseWriter, r *http.Request) {
	loaded, err := h.schemaService.GetSchemaVersion(r.Context(), r.PathValue("contract"), r.PathValue("version"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, buildMetadataResponse(loaded))
}

type validateDocumentRequest struct {
	Document string `json:"document"`
}

type validateDocumentResponse struct {
	Valid bool `json:"valid"`
}

// ValidateDocument handles POST /v1/metadata/validate. Nothing is
// persisted; validation errors come back with their usual statuses.
func (h *SchemaHandler) ValidateDocument(w http.ResponseWriter, r *http.Request) {
	var req validateDocumentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: %v", entities.ErrInvalidDocument, err))
		return
	}

	if err := h.schemaService.ValidateDocument(r.Context(), req.Document); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validateDocumentResponse{Valid: true})
}

func buildMetadataResponse(loaded *entities.TraitSchema) *metadataResponse {
	result := &metadataResponse{
		ContractID: loaded.ContractID,
		URI:        loaded.URI,
		Version:    loaded.Version,
		Traits:     make([]traitSummary, 0, loaded.Len()),
	}
	for _, entry := range loaded.Entries {
		summary := traitSummary{
			Name:                entry.Name,
			Key:                 entry.Key.Hex(),
			DisplayName:         entry.DisplayName,
			DataType:            entry.DataType.TypeName(),
			TokenOwnerCanUpdate: entry.TokenOwnerCanUpdate,
		}
		if entry.ConsumptionValidation != entities.ConsumptionNone {
			summary.ConsumptionValidation = string(entry.ConsumptionValidation)
		}
		result.Traits = append(result.Traits, summary)
	}
	sort.Slice(result.Traits, func(i, j int) bool {
		return result.Traits[i].Name < result.Traits[j].Name
	})
	return result
}
