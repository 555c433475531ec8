package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/campaignflow/pkg/schema"
)

func normalizedFlow() map[string]any {
	return map[string]any{
		"name":          "Welcome",
		"description":   "Welcome series",
		"initialStepID": "s1",
		"steps": []any{
			map[string]any{
				"id": "s1", "type": "message", "label": "S1", "content": "Hi",
				"active": true, "parameters": map[string]any{}, "messageText": "Hi",
				"events": []any{
					map[string]any{
						"id": "e1", "type": "noreply", "nextStepID": "s2", "active": true,
						"parameters": map[string]any{},
						"after":      map[string]any{"value": 24, "unit": "hours"},
					},
					map[string]any{
						"id": "e2", "type": "reply", "nextStepID": "s3", "active": true,
						"intent": "yes", "description": "Customer replied with intent: yes",
					},
				},
			},
			map[string]any{"id": "s2", "type": "end", "label": "S2", "content": "Step S2", "active": true, "events": []any{}},
			map[string]any{"id": "s3", "type": "end", "label": "S3", "content": "Step S3", "active": true, "events": []any{}},
		},
	}
}

func newStrict(t *testing.T) *StrictParser {
	t.Helper()
	p, err := NewStrictParser()
	require.NoError(t, err)
	return p
}

func TestStrictParse_Valid(t *testing.T) {
	flow, err := newStrict(t).Parse(normalizedFlow())
	require.NoError(t, err)

	require.Len(t, flow.Steps, 3)
	assert.Equal(t, schema.StepMessage, flow.Steps[0].Type)
	assert.Equal(t, "Hi", flow.Steps[0].Fields["messageText"])
	require.NotNil(t, flow.Steps[0].Events[0].After)
	assert.Equal(t, float64(24), flow.Steps[0].Events[0].After.Value)
	assert.Equal(t, schema.EventReply, flow.Steps[0].Events[1].Type)
}

func TestStrictParse_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f map[string]any)
		want   string
	}{
		{"unknown step kind", func(f map[string]any) {
			step(f, 1)["type"] = "bogus"
		}, "steps[1].type"},
		{"missing label", func(f map[string]any) {
			delete(step(f, 1), "label")
		}, "steps[1].label"},
		{"reply without intent", func(f map[string]any) {
			delete(event(f, 0, 1), "intent")
		}, "steps[0].events[1].intent"},
		{"noreply without after", func(f map[string]any) {
			delete(event(f, 0, 0), "after")
		}, "steps[0].events[0].after"},
		{"after with bad unit", func(f map[string]any) {
			event(f, 0, 0)["after"] = map[string]any{"value": 1, "unit": "weeks"}
		}, "steps[0].events[0].after.unit"},
		{"missing initial step id", func(f map[string]any) {
			delete(f, "initialStepID")
		}, "initialStepID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := normalizedFlow()
			tt.mutate(f)

			_, err := newStrict(t).Parse(f)
			var fe *schema.FlowError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, schema.ErrCodeStrictParse, fe.Code)
			assert.True(t, containsAny(Violations(err), tt.want), "violations %v", Violations(err))
		})
	}
}

func TestStrictParse_DecodeFailure(t *testing.T) {
	f := normalizedFlow()
	step(f, 0)["active"] = "yes"

	_, err := newStrict(t).Parse(f)
	var fe *schema.FlowError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, schema.ErrCodeStrictParse, fe.Code)
	assert.NotEmpty(t, Violations(err))
}

func step(f map[string]any, i int) map[string]any {
	return f["steps"].([]any)[i].(map[string]any)
}

func event(f map[string]any, i, j int) map[string]any {
	return step(f, i)["events"].([]any)[j].(map[string]any)
}

func containsAny(items []string, sub string) bool {
	for _, s := range items {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
