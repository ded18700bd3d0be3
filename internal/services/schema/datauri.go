package schema

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/mizuhara/dyntraits/internal/entities"
)

// DecodeDataURI extracts the document bytes from a data URI such as
// "data:application/json;base64,..." or "data:application/json,...".
// Returns ok=false when uri is not a data URI at all, so callers can
// fall back to treating it as an offchain location.
func DecodeDataURI(uri string) ([]byte, bool, error) {
	const prefix = "data:"
	if !strings.HasPrefix(uri, prefix) {
		return nil, false, nil
	}

	rest := uri[len(prefix):]
	comma := strings.IndexByte(rest, ',')
	if comma < 0 {
		return nil, true, fmt.Errorf("%w: data URI has no payload separator", entities.ErrInvalidDocument)
	}

	meta := rest[:comma]
	payload := rest[comma+1:]

	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, true, fmt.Errorf("%w: bad base64 payload: %v", entities.ErrInvalidDocument, err)
		}
		return data, true, nil
	}

	data, err := url.PathUnescape(payload)
	if err != nil {
		return nil, true, fmt.Errorf("%w: bad percent encoding: %v", entities.ErrInvalidDocument, err)
	}
	return []byte(data), true, nil
}
