package transform

import (
	"context"
	"fmt"
	"log/slog"
)

// jq fallback chains. Each picks the first usable raw field; empty strings
// count as absent.
const (
	bodyChain       = `first((.content, .text, .message, .body) | strings | select(length > 0))`
	nextChain       = `first((.events | arrays | .[] | objects | .nextStepID), .nextStepId, .nextStep | strings | select(length > 0))`
	noReplyAfter    = `first(.events | arrays | .[] | objects | select(.type == "noreply") | .after | objects)`
	webhookURLChain = `first((.webhook_url, .url) | strings | select(length > 0))`
	tagsChain       = `if (.tagName | type) == "string" then [.tagName]
		elif (.tags | type) == "array" then .tags
		elif (.tagName | type) == "array" then .tagName
		else [] end`
	distributionChain = `first((.distributionType, .distribution) | strings | select(length > 0))`
	targetsChain      = `if (.targets | type) == "array" and (.targets | length) > 0 then .targets
		elif (.paths | type) == "array" then .paths
		else [] end`
)

// stepView reads one raw step for a builder.
type stepView struct {
	ctx    context.Context
	raw    map[string]any
	index  int
	t      *Transformer
	logger *slog.Logger
}

// query runs a jq chain against the raw step. A failing chain is logged and
// treated as absent.
func (v *stepView) query(chain string) any {
	out, err := v.t.jq.Evaluate(v.ctx, chain, v.raw)
	if err != nil {
		v.logger.Warn("field chain failed", slog.Int("step_index", v.index), slog.Any("error", err))
		return nil
	}
	return out
}

// queryString runs a chain and falls back to def unless it yields a string.
func (v *stepView) queryString(chain, def string) string {
	if s, ok := v.query(chain).(string); ok {
		return s
	}
	return def
}

// str returns raw[key] if it is a non-empty string, else def.
func (v *stepView) str(key, def string) string {
	if s, ok := v.raw[key].(string); ok && s != "" {
		return s
	}
	return def
}

// optional returns raw[key] rendered as a string, or "" when absent.
func (v *stepView) optional(key string) string {
	switch val := v.raw[key].(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}

// object returns raw[key] if it is an object, else an empty map.
func (v *stepView) object(key string) map[string]any {
	if m, ok := v.raw[key].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// list returns raw[key] if it is a list, else an empty list.
func (v *stepView) list(key string) []any {
	if l, ok := v.raw[key].([]any); ok {
		return l
	}
	return []any{}
}

// number returns raw[key] as a float64, or def when it is not numeric.
func (v *stepView) number(key string, def float64) float64 {
	if f, ok := toFloat(v.raw[key]); ok {
		return f
	}
	return def
}

func (v *stepView) active() bool {
	if b, ok := v.raw["active"].(bool); ok {
		return b
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
