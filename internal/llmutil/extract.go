// Package llmutil holds response-shaping helpers shared by every prompt
// chain (diagram, script, qa): stripping scratchpad reasoning, markdown
// fences, and locating the JSON payload inside an otherwise free-form LLM
// reply. Factored out of internal/script/claude.go, which used to
// duplicate this logic inline for a single chain.
package llmutil

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var scratchpadRe = regexp.MustCompile(`(?s)<scratchpad>.*?</scratchpad>`)
var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// StripScratchpad removes <scratchpad>...</scratchpad> blocks some prompts
// ask the model to reason inside before producing its answer.
func StripScratchpad(text string) string {
	return scratchpadRe.ReplaceAllString(text, "")
}

// StripMarkdownFences unwraps a ```json ... ``` or ``` ... ``` fence if present.
func StripMarkdownFences(text string) string {
	if matches := fenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return matches[1]
	}
	return text
}

// ExtractJSONObject returns the substring between the first '{' and the
// last '}', which is usually the JSON payload even when the model added
// commentary around it.
func ExtractJSONObject(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// ExtractJSONArray is ExtractJSONObject's counterpart for top-level arrays.
func ExtractJSONArray(text string) string {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

// CleanJSON runs the full pipeline: strip scratchpad, strip fences, locate
// the object, trim whitespace. Use for payloads expected to be a JSON object.
func CleanJSON(text string) string {
	text = StripScratchpad(text)
	text = StripMarkdownFences(text)
	text = ExtractJSONObject(text)
	return strings.TrimSpace(text)
}

// CleanJSONArray is CleanJSON for payloads expected to be a top-level array.
func CleanJSONArray(text string) string {
	text = StripScratchpad(text)
	text = StripMarkdownFences(text)
	text = ExtractJSONArray(text)
	return strings.TrimSpace(text)
}

// UnmarshalJSONObject cleans text and unmarshals it into v, which must be a
// pointer to a struct or map.
func UnmarshalJSONObject(text string, v any) error {
	cleaned := CleanJSON(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("unmarshal JSON object: %w (payload: %s)", err, Truncate(cleaned, 300))
	}
	return nil
}

// UnmarshalJSONArray cleans text and unmarshals it into v, which must be a
// pointer to a slice.
func UnmarshalJSONArray(text string, v any) error {
	cleaned := CleanJSONArray(text)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return fmt.Errorf("unmarshal JSON array: %w (payload: %s)", err, Truncate(cleaned, 300))
	}
	return nil
}

// Truncate shortens s to maxLen bytes for inclusion in error messages.
func Truncate(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
