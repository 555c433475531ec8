package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
)

// deepCopy clones the JSON-shaped value tree so normalization never touches
// the caller's input.
func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}

// text returns m[key] when it is a non-blank string.
func text(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// present reports whether m carries a non-nil value under key.
func present(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

// setDefault stores value under key unless a non-nil value is already there.
// It reports whether it wrote.
func setDefault(m map[string]any, key string, value any) bool {
	if present(m, key) {
		return false
	}
	m[key] = value
	return true
}

// emptyList reports whether v is absent, not a list or a list with no items.
func emptyList(v any) bool {
	list, ok := v.([]any)
	return !ok || len(list) == 0
}

// asFloat converts a number as decoded from JSON, YAML or Go.
func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// display renders a raw value for messages.
func display(v any) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%v", v)
}

// titleCase turns "welcome-step" or "welcome_step" into "Welcome Step".
func titleCase(id string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(id))
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
