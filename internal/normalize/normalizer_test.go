package normalize

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/campaignflow/pkg/schema"
)

func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &m))
	return m
}

func issuesAt(issues []schema.ValidationIssue, path string) []schema.ValidationIssue {
	var out []schema.ValidationIssue
	for _, is := range issues {
		if is.Path == path {
			out = append(out, is)
		}
	}
	return out
}

func stepAt(t *testing.T, flow map[string]any, i int) map[string]any {
	t.Helper()
	steps := flow[schema.KeySteps].([]any)
	require.Greater(t, len(steps), i)
	return steps[i].(map[string]any)
}

const scenarioA = `{"initialStepID":"s1","steps":[
	{"id":"s1","type":"message","content":"Hi","events":[{"id":"e1","type":"noreply","nextStepID":"s2"}]},
	{"id":"s2","type":"end"}]}`

// --- Scenarios ---

func TestNormalize_ScenarioA(t *testing.T) {
	res := New().Normalize(context.Background(), decode(t, scenarioA))

	assert.Empty(t, res.Report.Errors)
	assert.True(t, res.Valid())

	s1 := stepAt(t, res.Flow, 0)
	ev := s1[schema.KeyEvents].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"value": 24, "unit": "hours"}, ev["after"])
	assert.Len(t, issuesAt(res.Report.Warnings, "steps[0].events[0].after"), 1)

	assert.Equal(t, "Hi", s1["messageText"])
	assert.Equal(t, "S1", s1[schema.KeyLabel])
	assert.Equal(t, "Step S2", stepAt(t, res.Flow, 1)[schema.KeyContent])
}

func TestNormalize_ScenarioB_DuplicateTarget(t *testing.T) {
	raw := decode(t, `{"initialStepID":"s1","steps":[
		{"id":"s1","type":"message","content":"a","events":[{"id":"e1","type":"default","nextStepID":"s2"}]},
		{"id":"s3","type":"message","content":"b","events":[{"id":"e2","type":"default","nextStepID":"s2"}]},
		{"id":"s2","type":"end"}]}`)

	res := New().Normalize(context.Background(), raw)

	dups := res.Report.ErrorsWithCode(schema.ErrCodeDuplicateTarget)
	require.Len(t, dups, 1)
	assert.Contains(t, dups[0].Message, "'s1'")
	assert.Contains(t, dups[0].Message, "'s3'")
	assert.Len(t, res.Report.Errors, 1)
}

func TestNormalize_ScenarioC_BogusType(t *testing.T) {
	raw := decode(t, `{"initialStepID":"s1","steps":[
		{"id":"s1","type":"message","content":"a"},
		{"id":"s2","type":"bogus_type"}]}`)

	res := New().Normalize(context.Background(), raw)

	require.Len(t, res.Report.Errors, 1)
	assert.Equal(t, "Invalid node type: bogus_type", res.Report.Errors[0].Message)
	assert.Equal(t, schema.ErrCodeInvalidNodeType, res.Report.Errors[0].Code)
	assert.Len(t, res.Flow[schema.KeySteps], 1)
}

func TestNormalize_ScenarioC_InitialStepDropped(t *testing.T) {
	raw := decode(t, `{"initialStepID":"s2","steps":[
		{"id":"s1","type":"message","content":"a"},
		{"id":"s2","type":"bogus_type"}]}`)

	res := New().Normalize(context.Background(), raw)

	assert.Len(t, res.Report.ErrorsWithCode(schema.ErrCodeInvalidNodeType), 1)
	assert.Len(t, res.Report.ErrorsWithCode(schema.ErrCodeMissingInitialStep), 1)
	assert.Len(t, res.Report.Errors, 2)
}

// --- Root ---

func TestNormalize_RootDefaults(t *testing.T) {
	raw := decode(t, `{"metadata":{"campaign_description":"Winback for lapsed buyers"},
		"steps":[{"id":"welcome","type":"start","label":"Start","content":"go"}]}`)

	res := New().Normalize(context.Background(), raw)

	assert.Equal(t, "welcome", res.Flow[schema.KeyInitialStepID])
	assert.Equal(t, "Generated Campaign welcome", res.Flow[schema.KeyName])
	assert.Equal(t, "Winback for lapsed buyers", res.Flow[schema.KeyDescription])
	assert.Len(t, res.Report.Warnings, 3)
	assert.Empty(t, res.Report.Errors)
}

func TestNormalize_NoSteps(t *testing.T) {
	res := New().Normalize(context.Background(), map[string]any{})

	require.Len(t, res.Report.Errors, 1)
	assert.Equal(t, schema.ErrCodeMissingInitialStep, res.Report.Errors[0].Code)
	assert.Equal(t, "No initialStepID found and no steps available", res.Report.Errors[0].Message)
	assert.Equal(t, "Generated Campaign Unknown", res.Flow[schema.KeyName])
	assert.Equal(t, "Auto-generated campaign", res.Flow[schema.KeyDescription])
}

func TestNormalize_StepsNotAList(t *testing.T) {
	res := New().Normalize(context.Background(), map[string]any{"steps": "nope"})

	assert.NotEmpty(t, res.Report.ErrorsWithCode(schema.ErrCodeValidation))
	assert.Equal(t, []any{}, res.Flow[schema.KeySteps])
}

func TestNormalize_DuplicateStepID(t *testing.T) {
	raw := decode(t, `{"initialStepID":"s1","steps":[
		{"id":"s1","type":"message","content":"a"},
		{"id":"s1","type":"end"}]}`)

	res := New().Normalize(context.Background(), raw)

	require.Len(t, res.Report.Errors, 1)
	assert.Contains(t, res.Report.Errors[0].Message, "Duplicate step id 's1'")
	assert.Len(t, res.Flow[schema.KeySteps], 1)
	assert.Equal(t, "message", stepAt(t, res.Flow, 0)[schema.KeyType])
}

// --- Properties ---

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	raw := decode(t, scenarioA)
	before, err := json.Marshal(raw)
	require.NoError(t, err)

	New().Normalize(context.Background(), raw)

	after, err := json.Marshal(raw)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestNormalize_Idempotent(t *testing.T) {
	var steps []any
	for i, kind := range schema.StepKinds() {
		steps = append(steps, map[string]any{
			"id":   string(kind),
			"type": string(kind),
			"events": []any{
				map[string]any{"type": "reply", "nextStepID": "terminal", "extra": true},
				map[string]any{"type": "noreply", "nextStepID": "x", "after": "soon"},
				map[string]any{"type": "split"},
			},
		})
		if i == 0 {
			steps = append(steps, map[string]any{"id": "terminal", "type": "end", "period": "weekly"})
		}
	}
	n := New()

	first := n.Normalize(context.Background(), map[string]any{"steps": steps})
	require.NotEmpty(t, first.Report.Warnings)

	second := n.Normalize(context.Background(), first.Flow)
	assert.Equal(t, first.Flow, second.Flow)
	assert.Empty(t, second.Report.Warnings)
	assert.Equal(t, first.Report.Errors, second.Report.Errors)
}

func TestNormalize_ConcurrentCallsOwnReports(t *testing.T) {
	n := New()
	raw := decode(t, scenarioA)
	done := make(chan *Result, 2)

	go func() { done <- n.Normalize(context.Background(), raw) }()
	go func() { done <- n.Normalize(context.Background(), map[string]any{}) }()

	a, b := <-done, <-done
	assert.NotEqual(t, len(a.Report.Errors), len(b.Report.Errors))
}
