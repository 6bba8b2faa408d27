package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports that a model answer could not be reduced to a JSON
// object. It is non-fatal at target granularity: the fallback chain treats
// it exactly like a transport failure and moves on to the next target.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parsing model response: " + e.Reason
}

// Sanitize recovers a well-formed JSON object from noisy model output.
// Models wrap their answer in markdown fences or prose often enough that
// this runs on every response: trim, strip a fenced code block if present,
// then slice from the first "{" to the last "}" and validate the result.
// Pure and deterministic; returns the raw object bytes for the caller to
// unmarshal into whatever shape it expects.
func Sanitize(text string) ([]byte, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return nil, &ParseError{Reason: "empty model output"}
	}

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		cleaned = strings.TrimSuffix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &ParseError{Reason: "no JSON object in model output"}
	}
	cleaned = cleaned[start : end+1]

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return nil, &ParseError{Reason: fmt.Sprintf("malformed JSON object: %v", err)}
	}

	return []byte(cleaned), nil
}
