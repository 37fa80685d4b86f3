package decode

import (
	"errors"
	"fmt"
)

// ErrSchemaMismatch matches every SchemaMismatchError.
var ErrSchemaMismatch = errors.New("schema mismatch")

// SchemaMismatchError reports a response whose shape violates a declared field:
// a required field that is absent or null, or a value of the wrong JSON kind.
type SchemaMismatchError struct {
	// Entity is the Go type that declares the field.
	Entity string
	// Field is the JSON path from the document root, e.g. "beatmap.id" or "scores[2].id".
	Field    string
	Expected string
	Got      string
	Err      error
}

func (e *SchemaMismatchError) Error() string {
	entity := e.Entity
	if entity == "" {
		entity = "document"
	}
	return fmt.Sprintf("schema mismatch in %s: field %q expected %s, got %s", entity, e.Field, e.Expected, e.Got)
}

func (e *SchemaMismatchError) Unwrap() error { return e.Err }

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrSchemaMismatch }
