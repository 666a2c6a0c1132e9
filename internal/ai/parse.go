// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeObject extracts the JSON object from a model reply and
// unmarshals it into out. Models wrap JSON in markdown fences or prose
// despite instructions, so the fences are stripped first and, failing
// that, the outermost brace pair is tried.
func DecodeObject(raw string, out any) error {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if err := json.Unmarshal([]byte(text), out); err == nil {
		return nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(text[start:end+1]), out); err == nil {
			return nil
		}
	}
	return fmt.Errorf("no JSON object in reply: %w", ErrMalformedResponse)
}
