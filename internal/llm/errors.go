// In file: internal/llm/errors.go
package llm

import (
	"errors"
	"fmt"
)

// ErrProvider marks a failed call to a language-model provider, after retries.
var ErrProvider = errors.New("language model provider call failed")

// ErrSchemaParse matches any *SchemaParseError via errors.Is.
var ErrSchemaParse = errors.New("model output does not match schema")

// SchemaParseError is returned when a model's structured output cannot be
// validated against, or decoded into, the requested schema.
type SchemaParseError struct {
	// Schema is the name of the function schema the output was checked against.
	Schema string
	// Raw is the model output that failed, kept for logs.
	Raw string
	Err error
}

func (e *SchemaParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: schema %q", ErrSchemaParse, e.Schema)
	}
	return fmt.Sprintf("%s: schema %q: %v", ErrSchemaParse, e.Schema, e.Err)
}

func (e *SchemaParseError) Unwrap() error { return e.Err }

func (e *SchemaParseError) Is(target error) bool { return target == ErrSchemaParse }
