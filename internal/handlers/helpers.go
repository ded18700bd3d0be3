package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/mizuhara/dyntraits/internal/entities"
	"github.com/mizuhara/dyntraits/internal/services/traits"
)

// Caller identity headers. The service sits behind a gateway that has
// already authenticated the caller; these headers carry the result.
const (
	headerCallerAddress = "X-Caller-Address"
	headerCallerRoles   = "X-Caller-Roles"
	headerTokenOwner    = "X-Token-Owner"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Wrapper decorates a route handler with the operation name, used to
// attach metrics middleware per endpoint. A nil Wrapper is an identity.
type Wrapper func(operation string, next http.Handler) http.Handler

func wrapped(wrap Wrapper, operation string, next http.HandlerFunc) http.Handler {
	if wrap == nil {
		return next
	}
	return wrap(operation, next)
}

// writeJSON writes a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, entities.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, entities.ErrTraitNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entities.ErrInvalidDocument),
		errors.Is(err, entities.ErrKeyCollision),
		errors.Is(err, entities.ErrDisplayNameCollision),
		errors.Is(err, entities.ErrUnknownDataType),
		errors.Is(err, entities.ErrInvalidConstraint):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, entities.ErrInvalidValue),
		errors.Is(err, entities.ErrOutOfRange),
		errors.Is(err, entities.ErrOverflow):
		status = http.StatusBadRequest
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// callerFromRequest builds the caller identity from gateway headers.
func callerFromRequest(r *http.Request) *traits.Caller {
	caller := &traits.Caller{
		Address:      r.Header.Get(headerCallerAddress),
		IsTokenOwner: r.Header.Get(headerTokenOwner) == "true",
	}
	if roles := r.Header.Get(headerCallerRoles); roles != "" {
		for _, role := range strings.Split(roles, ",") {
			if role = strings.TrimSpace(role); role != "" {
				caller.Roles = append(caller.Roles, role)
			}
		}
	}
	return caller
}

// pathToken parses the {token} path segment as an unsigned token ID.
func pathToken(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("token"), 10, 64)
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
