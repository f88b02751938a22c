package validation

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// requestSchema describes the orchestrator request envelope. The nested
// application_data and documents objects stay open: field coercion happens
// downstream and unknown keys are ignored rather than rejected.
var requestSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"message": map[string]interface{}{
			"type":      "string",
			"maxLength": 4000,
		},
		"application_data": map[string]interface{}{
			"type": "object",
		},
		"documents": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"aadhaar": map[string]interface{}{"type": "string"},
				"pan":     map[string]interface{}{"type": "string"},
				"name":    map[string]interface{}{"type": "string"},
			},
		},
		"customer_id": map[string]interface{}{
			"type": "string",
		},
	},
	"additionalProperties": true,
}

// advisorSchema constrains decision-support model output before it is
// trusted: a reply string, a string action list, and a confidence in [0,1].
var advisorSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"reply": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"actions": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"confidence": map[string]interface{}{
			"type":    "number",
			"minimum": 0,
			"maximum": 1,
		},
	},
	"required": []string{"reply", "actions"},
}

// ValidateRequest checks an incoming orchestrator payload against the
// request schema and returns the full list of violations.
func ValidateRequest(payload map[string]interface{}) error {
	return validateAgainst(requestSchema, payload, "request")
}

// ValidateAdvice checks a parsed decision-support document.
func ValidateAdvice(doc map[string]interface{}) error {
	return validateAgainst(advisorSchema, doc, "decision advice")
}

func validateAgainst(schemaMap map[string]interface{}, data map[string]interface{}, label string) error {
	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%s validation error: %w", label, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%s validation failed: %v", label, errs)
	}

	return nil
}
