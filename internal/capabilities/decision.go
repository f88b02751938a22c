// internal/capabilities/decision.go
package capabilities

import (
	"encoding/json"
	"regexp"
	"strings"

	"loan-decision-pipeline/internal/common/errors"
	"loan-decision-pipeline/internal/common/validation"
	"loan-decision-pipeline/internal/models"
)

var jsonTagPattern = regexp.MustCompile(`(?s)<json>(.*?)</json>`)

// ExtractDecisionAdvice pulls the first well-formed decision proposal out of
// model output. It prefers an explicit <json>...</json> block, then falls
// back to scanning for balanced top-level JSON objects in the surrounding
// prose, taking the first candidate that parses and validates.
func ExtractDecisionAdvice(text string) (models.DecisionAdvice, error) {
	var candidates []string

	if m := jsonTagPattern.FindStringSubmatch(text); m != nil {
		candidates = append(candidates, strings.TrimSpace(m[1]))
	}
	candidates = append(candidates, scanJSONObjects(text)...)

	for _, candidate := range candidates {
		advice, ok := parseAdvice(candidate)
		if ok {
			return advice, nil
		}
	}

	return models.DecisionAdvice{}, errors.NewDecisionParseFailedError(
		"no well-formed decision block found in model output")
}

// scanJSONObjects returns every balanced top-level {...} block in text.
func scanJSONObjects(text string) []string {
	var blocks []string
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, r := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}

		switch r {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					blocks = append(blocks, text[start:i+1])
					start = -1
				}
			}
		}
	}

	return blocks
}

func parseAdvice(candidate string) (models.DecisionAdvice, bool) {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return models.DecisionAdvice{}, false
	}
	if err := validation.ValidateAdvice(doc); err != nil {
		return models.DecisionAdvice{}, false
	}

	var advice models.DecisionAdvice
	if err := json.Unmarshal([]byte(candidate), &advice); err != nil {
		return models.DecisionAdvice{}, false
	}
	if advice.Confidence == 0 {
		advice.Confidence = 0.5
	}
	return advice, true
}
