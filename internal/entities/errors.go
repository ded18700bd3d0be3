package entities

import "errors"

// Schema-load errors. Any of these rejects the whole metadata document;
// no partial schema is ever produced.
var (
	ErrInvalidDocument      = errors.New("invalid trait metadata document")
	ErrKeyCollision         = errors.New("trait key collision")
	ErrDisplayNameCollision = errors.New("duplicate display name")
	ErrUnknownDataType      = errors.New("unknown data type")
	ErrInvalidConstraint    = errors.New("invalid constraint")
)

// Value-validation errors. These fail a single set/get operation and
// leave the schema and all stored traits untouched.
var (
	ErrUnauthorized  = errors.New("caller is not authorized to update trait")
	ErrOutOfRange    = errors.New("value out of range")
	ErrOverflow      = errors.New("value overflows declared width")
	ErrInvalidValue  = errors.New("invalid trait value")
	ErrTraitNotFound = errors.New("trait not found")
)
