package assessment

import (
	"fmt"
	"strings"
)

// ValidationError reports why a model response was rejected. It never
// leaves this package: two of them in a row collapse into the null
// assessment.
type ValidationError struct {
	Errors []FieldError
}

// FieldError is one schema violation at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("assessment response validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}
