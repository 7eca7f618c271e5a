package models

import "fmt"

// SchemaError reports data that does not have the shape this program expects.
type SchemaError struct {
	Field string
	Err   error
}

func (e *SchemaError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("schema mismatch: %s", e.Field)
	}
	return fmt.Sprintf("schema mismatch: %s: %v", e.Field, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }
