package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// Document is the wire form of a trait metadata document: a JSON object
// whose top-level "traits" key maps trait name to descriptor.
type Document struct {
	Traits map[string]*Descriptor `json:"traits"`
}

// Descriptor is one trait declaration as authored in the document.
type Descriptor struct {
	DisplayName                 string       `json:"displayName"`
	DataType                    *DataTypeDoc `json:"dataType"`
	TokenOwnerCanUpdateValue    bool         `json:"tokenOwnerCanUpdateValue"`
	ConsumptionValidationOnSale string       `json:"consumptionValidationOnSale"`
}

// DataTypeDoc is the polymorphic dataType object. Type selects the
// variant; the remaining fields are type-specific and optional.
type DataTypeDoc struct {
	Type          string                 `json:"type"`
	MinLength     *int                   `json:"minLength"`
	MaxLength     *int                   `json:"maxLength"`
	Signed        *bool                  `json:"signed"`
	Bits          *int                   `json:"bits"`
	Decimals      *int                   `json:"decimals"`
	ValueMappings map[string]interface{} `json:"valueMappings"`
}

// ParseDocument decodes a metadata document. The document format is
// versioned and fully specified, so unknown fields are rejected.
func ParseDocument(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrInvalidDocument, err)
	}
	if doc.Traits == nil {
		return nil, fmt.Errorf("%w: top-level \"traits\" object is required", entities.ErrInvalidDocument)
	}
	return &doc, nil
}

// parseRawKey parses a valueMappings key into a raw 32-byte value.
// Keys may be 0x-prefixed 32-byte hex or unsigned decimal integers.
func parseRawKey(s string) (entities.RawValue, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return entities.ParseRawValue(s)
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return entities.RawValue{}, fmt.Errorf("value mapping key %q is neither hex nor unsigned decimal", s)
	}
	return entities.RawValueFromBigInt(n)
}
