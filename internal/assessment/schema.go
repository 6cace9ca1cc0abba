package assessment

import (
	"github.com/xeipuuv/gojsonschema"
)

// responseSchema is the contract the model response must satisfy before it
// is accepted. Enumerations are closed so a creative model answer cannot
// leak into scoring.
const responseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "bio_depth",
    "treatment_specificity",
    "qualifications_completeness",
    "plain_english_score",
    "interests",
    "languages"
  ],
  "additionalProperties": false,
  "properties": {
    "bio_depth": {
      "type": "string",
      "enum": ["none", "minimal", "moderate", "comprehensive"]
    },
    "treatment_specificity": {
      "type": "string",
      "enum": ["none", "generic", "specific"]
    },
    "qualifications_completeness": {
      "type": "string",
      "enum": ["none", "partial", "complete"]
    },
    "plain_english_score": {
      "type": "integer",
      "minimum": 1,
      "maximum": 5
    },
    "interests": {
      "type": "array",
      "items": { "type": "string" }
    },
    "languages": {
      "type": "array",
      "items": { "type": "string" }
    }
  }
}`

// validateResponse checks raw model output against the response schema.
func validateResponse(jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(responseSchema)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		// Unparseable output fails validation the same way an
		// off-schema document does.
		return &ValidationError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}
